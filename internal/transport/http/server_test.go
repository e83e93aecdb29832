package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/core"
)

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, env.srv.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}

func TestRegisterAndLogin(t *testing.T) {
	env := startTestServer(t, nil)
	creds := CredentialsRequest{Username: "carol", Password: testPassword}

	resp := doJSON(t, http.MethodPost, env.srv.URL+"/api/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issued := decode[AuthResponse](t, resp)
	require.Equal(t, "carol", issued.Username)
	require.NotEmpty(t, issued.ExpiresAt)
	claims, err := env.auth.ValidateToken(issued.Token)
	require.NoError(t, err)
	require.Equal(t, "carol", claims.Username)

	resp = doJSON(t, http.MethodPost, env.srv.URL+"/api/register", "", creds)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, env.srv.URL+"/api/login", "", CredentialsRequest{Username: "carol", Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, decode[AuthResponse](t, resp).Token)

	resp = doJSON(t, http.MethodPost, env.srv.URL+"/api/login", "", CredentialsRequest{Username: "carol", Password: "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := startTestServer(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing fields", body: map[string]string{}},
		{name: "reserved name", body: CredentialsRequest{Username: "System", Password: testPassword}},
		{name: "spaces in name", body: CredentialsRequest{Username: "bad name", Password: testPassword}},
		{name: "short password", body: CredentialsRequest{Username: "dave", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, env.srv.URL+"/api/register", "", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestMessagesRequireAuth(t *testing.T) {
	env := startTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, env.srv.URL+"/api/messages", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, env.srv.URL+"/api/presence", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListMessagesPaging(t *testing.T) {
	env := startTestServer(t, nil)
	token := env.register(t, "alice")
	ctx := testContext(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := env.store.AppendMessage(ctx, "alice", text, time.Now())
		require.NoError(t, err)
	}

	resp := doJSON(t, http.MethodGet, env.srv.URL+"/api/messages?limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[HistoryResponse](t, resp)
	require.Len(t, page.Messages, 2)
	require.Equal(t, "two", page.Messages[0].Text)
	require.Equal(t, "three", page.Messages[1].Text)
	require.NotNil(t, page.NextBefore)
	require.Equal(t, int64(2), *page.NextBefore)

	resp = doJSON(t, http.MethodGet, env.srv.URL+"/api/messages?limit=2&before=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[HistoryResponse](t, resp)
	require.Len(t, page.Messages, 1)
	require.Equal(t, "one", page.Messages[0].Text)
	require.Nil(t, page.NextBefore)

	resp = doJSON(t, http.MethodGet, env.srv.URL+"/api/messages?limit=1000", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMessagesDefaultSizes(t *testing.T) {
	env := startTestServer(t, nil)
	token := env.register(t, "alice")
	ctx := testContext(t)
	for i := range 80 {
		_, err := env.store.AppendMessage(ctx, "alice", fmt.Sprintf("m%d", i), time.Now())
		require.NoError(t, err)
	}

	resp := doJSON(t, http.MethodGet, env.srv.URL+"/api/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	latest := decode[HistoryResponse](t, resp)
	require.Len(t, latest.Messages, core.DefaultHistoryLimit)
	require.NotNil(t, latest.NextBefore)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/messages?before=%d", env.srv.URL, *latest.NextBefore), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	older := decode[HistoryResponse](t, resp)
	require.Len(t, older.Messages, core.DefaultPageSize)
	require.Equal(t, *latest.NextBefore-1, older.Messages[len(older.Messages)-1].ID)
}

func TestPresenceEndpoint(t *testing.T) {
	env := startTestServer(t, nil)
	ctx := testContext(t)
	token := env.register(t, "alice")

	resp := doJSON(t, http.MethodGet, env.srv.URL+"/api/presence", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[PresenceResponse](t, resp).Users)

	env.dial(ctx, t, token)

	resp = doJSON(t, http.MethodGet, env.srv.URL+"/api/presence", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"alice"}, decode[PresenceResponse](t, resp).Users)
}
