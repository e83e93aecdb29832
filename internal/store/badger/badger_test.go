package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/store/storetest"
)

func TestBadgerStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := NewInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerIDsSurviveReopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	first, err := New(dir)
	req.NoError(err)
	msg, err := first.AppendMessage(ctx, "alice", "hello", time.Now())
	req.NoError(err)
	req.NoError(first.AddBan(ctx, "eve"))
	req.NoError(first.Close())

	second, err := New(dir)
	req.NoError(err)
	defer second.Close()

	next, err := second.AppendMessage(ctx, "alice", "again", time.Now())
	req.NoError(err)
	req.Greater(next.ID, msg.ID)

	banned, err := second.IsBanned(ctx, "eve")
	req.NoError(err)
	req.True(banned)

	page, err := second.ListMessages(ctx, 10, nil)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("hello", page[0].Body)
}

func TestMessageKeysSortByID(t *testing.T) {
	require.Less(t, string(messageKey(9)), string(messageKey(10)))
	require.Less(t, string(messageKey(99)), string(messageKey(100)))
}
