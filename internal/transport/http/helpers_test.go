package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/auth"
	"github.com/DaveMcBlame1/chatroom/internal/config"
	"github.com/DaveMcBlame1/chatroom/internal/core"
	"github.com/DaveMcBlame1/chatroom/internal/proto"
	"github.com/DaveMcBlame1/chatroom/internal/store/memory"
)

const testPassword = "secret-pass"

type testEnv struct {
	srv   *httptest.Server
	store *memory.Store
	auth  *auth.Service
	hub   *core.Hub
	stop  context.CancelFunc
}

// wireOutbound mirrors proto.Outbound with raw data for decoding in tests.
type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.PingInterval = time.Hour
	cfg.AuthorizedUsers = []string{"alice"}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	st := memory.New()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	hub := core.NewHub(st, core.Options{AuthorizedUsers: cfg.AuthorizedUsers}, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, authService, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		ts.Close()
	})

	return &testEnv{srv: ts, store: st, auth: authService, hub: hub, stop: cancel}
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	session, err := e.auth.Register(context.Background(), username, testPassword)
	require.NoError(t, err)
	return session.Token
}

func (e *testEnv) wsURL(token string) string {
	return strings.Replace(e.srv.URL, "http", "ws", 1) + "/ws?token=" + token
}

// dial connects and consumes the connect burst up to the initial history.
func (e *testEnv) dial(ctx context.Context, t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, e.wsURL(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	readUntil(ctx, t, conn, proto.EventHistory)
	return conn
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) wireOutbound {
	t.Helper()
	var out wireOutbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	return out
}

// readUntil skips frames until an event named event arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, event string) wireOutbound {
	t.Helper()
	for {
		out := readOutbound(ctx, t, conn)
		if out.Type == proto.OutboundTypeEvent && out.Event == event {
			return out
		}
	}
}

// readError skips events until an error envelope arrives.
func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) *proto.Error {
	t.Helper()
	for {
		out := readOutbound(ctx, t, conn)
		if out.Type == proto.OutboundTypeError {
			require.NotNil(t, out.Error)
			return out.Error
		}
	}
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	in := proto.Inbound{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		in.Data = raw
	}
	require.NoError(t, wsjson.Write(ctx, conn, in))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
