package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/store/storetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", ApplyMigrations)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := ApplyMigrations(s.db); err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}

	var applied int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", applied)
	}
}

func TestIDsSurviveReopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	first, err := New(path)
	req.NoError(err)
	msg, err := first.AppendMessage(ctx, "alice", "hello", time.Now())
	req.NoError(err)
	existed, err := first.DeleteMessage(ctx, msg.ID)
	req.NoError(err)
	req.True(existed)
	req.NoError(first.Close())

	second, err := New(path)
	req.NoError(err)
	defer second.Close()

	next, err := second.AppendMessage(ctx, "alice", "again", time.Now())
	req.NoError(err)
	req.Greater(next.ID, msg.ID)
}

func TestNewWithSetupPropagatesSetupError(t *testing.T) {
	_, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`THIS IS NOT SQL`)
		return err
	})
	if err == nil {
		t.Fatalf("expected setup error")
	}
}
