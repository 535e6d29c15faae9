package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	router "github.com/dkeye/Telecall/internal/adapters/http"
	"github.com/dkeye/Telecall/internal/adapters/natsbus"
	"github.com/dkeye/Telecall/internal/adapters/speech"
	"github.com/dkeye/Telecall/internal/adapters/stream"
	"github.com/dkeye/Telecall/internal/app"
	"github.com/dkeye/Telecall/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWith(v)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// prune drops throttle histories of users who went quiet.
func prune(ctx context.Context, rl *app.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

func serve(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		Policy:      app.SimplePolicy{},
		RingTimeout: cfg.RingTimeout,
	}
	if cfg.InitiateLimit > 0 {
		opts.Limiter = app.NewRateLimiter(cfg.InitiateLimit, cfg.InitiateInterval)
		go prune(ctx, opts.Limiter, cfg.InitiateInterval)
	}
	if cfg.NATS.URL != "" {
		sink, err := natsbus.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		defer sink.Close()
		opts.Sink = sink
	}
	coord := app.NewCoordinator(app.NewRegistry(), opts)
	defer coord.Shutdown()

	deps := router.Deps{Coord: coord}
	if cfg.Stream.APIKey != "" {
		deps.Directory = &stream.Client{
			APIKey:    cfg.Stream.APIKey,
			APISecret: cfg.Stream.APISecret,
			BaseURL:   cfg.Stream.BaseURL,
			TokenTTL:  cfg.Stream.TokenTTL,
		}
	} else {
		log.Warn().Str("module", "main").Msg("stream.api_key not set, token routes disabled")
	}
	if cfg.Speech.APIKey != "" {
		deps.Speech = &speech.Client{
			APIKey:       cfg.Speech.APIKey,
			BaseURL:      cfg.Speech.BaseURL,
			Model:        cfg.Speech.Model,
			Voice:        cfg.Speech.Voice,
			Instructions: cfg.Speech.Instructions,
		}
	} else {
		log.Warn().Str("module", "main").Msg("speech.api_key not set, /agent disabled")
	}

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Telecall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return err
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
