package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/DaveMcBlame1/chatroom/internal/auth"
	"github.com/DaveMcBlame1/chatroom/internal/config"
	"github.com/DaveMcBlame1/chatroom/internal/core"
	"github.com/DaveMcBlame1/chatroom/internal/proto"
	"github.com/DaveMcBlame1/chatroom/internal/utils"
)

const writeTimeout = 5 * time.Second

// WSOptions tune a gateway connection.
type WSOptions struct {
	MaxMessageBytes   int64
	PingInterval      time.Duration
	RateLimitBurst    int
	RateLimitInterval time.Duration
	// OriginPatterns lists the hosts allowed to open a cross-origin
	// connection. Same-origin requests are always accepted.
	OriginPatterns []string
}

// WSOptionsFromConfig copies the gateway settings out of cfg.
func WSOptionsFromConfig(cfg *config.Config) WSOptions {
	return WSOptions{
		MaxMessageBytes:   cfg.MaxMessageBytes,
		PingInterval:      cfg.PingInterval,
		RateLimitBurst:    cfg.RateLimitBurst,
		RateLimitInterval: cfg.RateLimitInterval,
		OriginPatterns:    cfg.OriginPatterns,
	}
}

// serverClosedError ends a connection whose event stream the hub closed.
type serverClosedError struct {
	reason string
}

func (e serverClosedError) Error() string {
	if e.reason == "" {
		return "closed by server"
	}
	return e.reason
}

// WSHandler upgrades HTTP connections and bridges them to a core.Client.
type WSHandler struct {
	hub      *core.Hub
	auth     *auth.Service
	opts     WSOptions
	validate *validator.Validate
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:      hub,
		auth:     authService,
		opts:     opts,
		validate: validator.New(),
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token, ok := bearerToken(r)
	if !ok {
		stdhttp.Error(w, "missing token", stdhttp.StatusUnauthorized)
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := h.hub.NewClient(utils.NewID(), claims.Username)
	log := h.log.With().Str("client_id", client.ID).Str("user", client.Name).Logger()

	if err := h.hub.Connect(ctx, client); err != nil {
		log.Warn().Err(err).Msg("hub rejected connection")
		_ = wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: proto.ErrCodeServerShutdown, Msg: "server unavailable"},
		})
		_ = conn.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	defer func() {
		// Blocks until the hub accepts it or stops; a dropped disconnect
		// would leave the identity present forever.
		if err := h.hub.Disconnect(context.WithoutCancel(ctx), client); err != nil && !errors.Is(err, core.ErrHubStopped) {
			log.Warn().Err(err).Msg("disconnect")
		}
	}()

	errCh := make(chan error, 3)
	go func() { errCh <- h.readLoop(ctx, conn, client, &log) }()
	go func() { errCh <- h.writeLoop(ctx, conn, client) }()
	go func() { errCh <- h.pingLoop(ctx, conn) }()

	err = <-errCh

	status, reason := closeStatus(err)
	if status == websocket.StatusInternalError {
		log.Warn().Err(err).Msg("ws connection closed with error")
	} else {
		log.Debug().Err(err).Msg("ws connection closed")
	}
	_ = conn.Close(status, reason)
	cancel()

	<-errCh
	<-errCh
}

// closeStatus maps the error that ended a connection to a close frame.
func closeStatus(err error) (websocket.StatusCode, string) {
	var closed serverClosedError
	switch {
	case err == nil:
		return websocket.StatusNormalClosure, "closing"
	case errors.As(err, &closed):
		if closed.reason == core.ReasonShutdown {
			return websocket.StatusGoingAway, closed.reason
		}
		return websocket.StatusNormalClosure, closed.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, "closing"
	case websocket.StatusMessageTooBig:
		return websocket.StatusMessageTooBig, "message too big"
	}
	return websocket.StatusInternalError, "internal error"
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.opts.RateLimitBurst, h.opts.RateLimitInterval)
	for {
		typ, payload, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			log.Debug().Msg("rate limited")
			if err := h.writeError(ctx, conn, &proto.Error{Code: proto.ErrCodeRateLimited, Msg: "slow down"}); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if typ != websocket.MessageText || json.Unmarshal(payload, &inbound) != nil {
			if err := h.writeError(ctx, conn, badRequest("malformed envelope")); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(h.validate, inbound)
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if err := h.hub.Submit(ctx, client, cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	var reason string
	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				return serverClosedError{reason: reason}
			}
			if event.Kind == core.EventForceDisconnect {
				reason = event.Reason
			}
			if err := h.write(ctx, conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	if h.opts.PingInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, h.opts.PingInterval)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return h.write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, out proto.Outbound) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, out)
}
