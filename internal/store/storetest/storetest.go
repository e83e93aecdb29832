// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

// Factory builds a fresh, empty store for a single subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("append ids increase", func(t *testing.T) { testAppendIDs(t, newStore(t)) })
	t.Run("ids not reused after delete", func(t *testing.T) { testIDsNotReused(t, newStore(t)) })
	t.Run("delete reports existence", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("latest page oldest first", func(t *testing.T) { testLatestPage(t, newStore(t)) })
	t.Run("backward pages cover history once", func(t *testing.T) { testBackwardPages(t, newStore(t)) })
	t.Run("pages stable under appends", func(t *testing.T) { testPagesUnderAppends(t, newStore(t)) })
	t.Run("bans", func(t *testing.T) { RunBans(t, newStore(t)) })
}

// RunBans checks set semantics of a ban list on its own.
func RunBans(t *testing.T, bans store.BanStore) {
	req := require.New(t)
	ctx := context.Background()

	banned, err := bans.IsBanned(ctx, "eve")
	req.NoError(err)
	req.False(banned)

	req.NoError(bans.AddBan(ctx, "eve"))
	req.NoError(bans.AddBan(ctx, "eve"))
	req.NoError(bans.AddBan(ctx, "mallory"))

	banned, err = bans.IsBanned(ctx, "eve")
	req.NoError(err)
	req.True(banned)

	names, err := bans.ListBans(ctx)
	req.NoError(err)
	req.ElementsMatch([]string{"eve", "mallory"}, names)

	req.NoError(bans.RemoveBan(ctx, "eve"))
	req.NoError(bans.RemoveBan(ctx, "eve"))
	req.NoError(bans.RemoveBan(ctx, "nobody"))

	banned, err = bans.IsBanned(ctx, "eve")
	req.NoError(err)
	req.False(banned)
}

func testUsers(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "alice", "hash")
	req.NoError(err)
	req.Equal("alice", u.Username)
	req.NotZero(u.ID)

	_, err = st.CreateUser(ctx, "alice", "other")
	req.ErrorIs(err, store.ErrUserExists)

	got, err := st.GetUserByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(u.ID, got.ID)
	req.Equal("hash", got.PasswordHash)

	_, err = st.GetUserByUsername(ctx, "ghost")
	req.True(errors.Is(err, store.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func appendN(t *testing.T, st store.MessageStore, n int) []*store.Message {
	t.Helper()
	out := make([]*store.Message, 0, n)
	base := time.Now().UTC()
	for i := range n {
		msg, err := st.AppendMessage(context.Background(), "alice", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func testAppendIDs(t *testing.T, st store.Store) {
	req := require.New(t)

	msgs := appendN(t, st, 10)
	for i := 1; i < len(msgs); i++ {
		req.Greater(msgs[i].ID, msgs[i-1].ID)
	}
	req.Equal("alice", msgs[0].Author)
	req.Equal("m0", msgs[0].Body)
}

func testIDsNotReused(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	msgs := appendN(t, st, 3)
	last := msgs[2]

	existed, err := st.DeleteMessage(ctx, last.ID)
	req.NoError(err)
	req.True(existed)

	next, err := st.AppendMessage(ctx, "bob", "after delete", time.Now())
	req.NoError(err)
	req.Greater(next.ID, last.ID)
}

func testDelete(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	msgs := appendN(t, st, 3)

	existed, err := st.DeleteMessage(ctx, msgs[1].ID)
	req.NoError(err)
	req.True(existed)

	existed, err = st.DeleteMessage(ctx, msgs[1].ID)
	req.NoError(err)
	req.False(existed)

	existed, err = st.DeleteMessage(ctx, 99999)
	req.NoError(err)
	req.False(existed)

	page, err := st.ListMessages(ctx, 10, nil)
	req.NoError(err)
	req.Equal([]int64{msgs[0].ID, msgs[2].ID}, ids(page))
}

func testLatestPage(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	msgs := appendN(t, st, 7)

	page, err := st.ListMessages(ctx, 3, nil)
	req.NoError(err)
	req.Equal(ids(msgs[4:]), ids(page))

	empty, err := st.ListMessages(ctx, 3, lo.ToPtr(msgs[0].ID))
	req.NoError(err)
	req.Empty(empty)
}

func testBackwardPages(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	msgs := appendN(t, st, 11)
	_, err := st.DeleteMessage(ctx, msgs[5].ID)
	req.NoError(err)

	var collected []int64
	var before *int64
	for {
		page, err := st.ListMessages(ctx, 4, before)
		req.NoError(err)
		if len(page) == 0 {
			break
		}
		collected = append(ids(page), collected...)
		before = lo.ToPtr(page[0].ID)
	}

	want := ids(append(append([]*store.Message{}, msgs[:5]...), msgs[6:]...))
	req.Equal(want, collected)
}

func testPagesUnderAppends(t *testing.T, st store.Store) {
	req := require.New(t)
	ctx := context.Background()

	initial := appendN(t, st, 20)

	first, err := st.ListMessages(ctx, 5, nil)
	req.NoError(err)
	req.Equal(ids(initial[15:]), ids(first))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 10 {
			_, _ = st.AppendMessage(ctx, "bob", fmt.Sprintf("late %d", i), time.Now())
		}
	}()

	collected := ids(first)
	before := lo.ToPtr(first[0].ID)
	for {
		page, err := st.ListMessages(ctx, 5, before)
		req.NoError(err)
		if len(page) == 0 {
			break
		}
		collected = append(ids(page), collected...)
		before = lo.ToPtr(page[0].ID)
	}
	wg.Wait()

	req.Equal(ids(initial), collected)
}

func ids(msgs []*store.Message) []int64 {
	return lo.Map(msgs, func(m *store.Message, _ int) int64 { return m.ID })
}
