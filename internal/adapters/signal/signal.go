package signal

import (
	"context"
	"net/http"
	"sync"

	"github.com/dkeye/Telecall/internal/app"
	"github.com/dkeye/Telecall/internal/config"
	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Cookie session keys written by the token endpoint.
const (
	SessionUserID      = "user_id"
	SessionDisplayName = "display_name"
)

type SignalWSController struct {
	Coord *app.Coordinator
	Cfg   *config.Config
}

func NewSignalWSController(coord *app.Coordinator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{Coord: coord, Cfg: cfg}
}

// WsSignalConn is one websocket endpoint. It implements core.Peer.
type WsSignalConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) ID() domain.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrPeerClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Deliver(ev core.Event) error {
	b, err := MarshalEvent(ev)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	client := c.GetString("client_token")
	hint := sessionHint(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Str("client", client).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.sendWelcome(conn, hint)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}

// sessionHint returns the identity last issued a token in this browser.
func sessionHint(c *gin.Context) *domain.User {
	s := sessions.Default(c)
	uid, _ := s.Get(SessionUserID).(string)
	if uid == "" {
		return nil
	}
	name, _ := s.Get(SessionDisplayName).(string)
	return &domain.User{ID: domain.UserID(uid), DisplayName: name}
}
