package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/store/storetest"
)

// Set CHATROOM_TEST_REDIS_ADDR (e.g. localhost:6379) to run against a live server.
func TestBanList(t *testing.T) {
	addr := os.Getenv("CHATROOM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHATROOM_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	key := fmt.Sprintf("chatroom:test:bans:%d", time.Now().UnixNano())
	bans, err := New(ctx, addr, "", 0, key)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = bans.client.Del(context.Background(), key).Err()
		_ = bans.Close()
	})

	storetest.RunBans(t, bans)
}

func TestNewWithClientDefaultsKey(t *testing.T) {
	b := NewWithClient(nil, "")
	require.Equal(t, DefaultKey, b.key)
}

func TestNewFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := New(ctx, "127.0.0.1:1", "", 0, "")
	require.Error(t, err)
}
