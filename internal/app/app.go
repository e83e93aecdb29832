package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/DaveMcBlame1/chatroom/internal/auth"
	"github.com/DaveMcBlame1/chatroom/internal/config"
	"github.com/DaveMcBlame1/chatroom/internal/core"
	chatlog "github.com/DaveMcBlame1/chatroom/internal/log"
	"github.com/DaveMcBlame1/chatroom/internal/moderation"
	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/telemetry"
	transporthttp "github.com/DaveMcBlame1/chatroom/internal/transport/http"
)

const (
	serviceName = "chatroom"
	censorMask  = '*'
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	telemetryStop   func(context.Context) error
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	telemetryStop, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = telemetryStop(ctx)
		return nil, err
	}

	opts := core.Options{
		AuthorizedUsers:  cfg.AuthorizedUsers,
		MaxMessageLength: cfg.MaxMessageLength,
		HistoryLimit:     cfg.HistoryLimit,
		SendBuffer:       cfg.SendBuffer,
	}
	censor, err := moderation.NewCensor(cfg.CensoredWords, censorMask)
	if err != nil {
		_ = st.Close()
		_ = telemetryStop(ctx)
		return nil, fmt.Errorf("build censor: %w", err)
	}
	if censor != nil {
		opts.Filter = censor
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	hub := core.NewHub(st, opts, chatlog.Component(logger, "hub"))
	server := transporthttp.NewServer(hub, authService, cfg, chatlog.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		telemetryStop:   telemetryStop,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the hub and the HTTP server and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		<-a.hub.Done()
		a.cleanup()
		return err
	case <-ctx.Done():
	}

	// Stop the hub first so every connection gets a shutdown notice and its
	// stream closed; the gateway then finishes the WebSocket handshakes.
	stopHub()
	<-a.hub.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down http server")
	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return err
	}
	return <-serverErr
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.telemetryStop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.telemetryStop(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to flush traces")
		}
	}
}
