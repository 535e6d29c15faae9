package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Telecall/internal/adapters/signal"
	"github.com/dkeye/Telecall/internal/app"
	"github.com/dkeye/Telecall/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserDirectory is the external user store behind token issuance.
type UserDirectory interface {
	UpsertUser(ctx context.Context, id, name, role string) error
	DeleteUser(ctx context.Context, id string) error
	RestoreUser(ctx context.Context, id string) error
	UserToken(id string) (string, error)
}

// Synthesizer turns text into mp3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Deps are the services the router exposes. Directory and Speech are
// optional; their routes are not mounted when nil.
type Deps struct {
	Coord     *app.Coordinator
	Directory UserDirectory
	Speech    Synthesizer
}

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TelecallSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.Static("/audio", cfg.AudioPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("audio", cfg.AudioPath).Msg("router setup")

	api := r.Group("/api")

	ctrl := signal.NewSignalWSController(deps.Coord, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	st := stateHandler{coord: deps.Coord}
	api.GET("/presence", st.presence)
	api.GET("/calls", st.calls)

	if deps.Directory != nil {
		th := tokenHandler{dir: deps.Directory}
		// /deleteUser is kept for clients of the first release.
		for _, prefix := range []string{"/generateToken", "/deleteUser"} {
			g := r.Group(prefix)
			g.POST("", th.generate)
			g.DELETE("/remove/:id", th.remove)
			g.PUT("/restore/:id", th.restore)
		}
	}

	if deps.Speech != nil {
		sh := speechHandler{synth: deps.Speech, audioPath: cfg.AudioPath}
		r.POST("/agent", sh.agent)
	}

	return r
}
