package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when creating a user whose name is taken.
	ErrUserExists = errors.New("user already exists")
)

// User represents a registered identity.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	// Returns an error wrapping ErrNotFound when absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore is the ordered, appendable message log.
type MessageStore interface {
	// AppendMessage assigns the next id and persists the message.
	// Ids are strictly increasing and never reused, even after deletes.
	AppendMessage(ctx context.Context, author, body string, at time.Time) (*Message, error)

	// DeleteMessage removes a message and reports whether it existed.
	DeleteMessage(ctx context.Context, id int64) (bool, error)

	// ListMessages returns up to limit messages, oldest first.
	// If beforeID is provided, only messages with a smaller id are returned;
	// otherwise the most recent messages are returned.
	ListMessages(ctx context.Context, limit int, beforeID *int64) ([]*Message, error)
}

// BanStore is the moderation list: a set of banned usernames.
// Adding a present name and removing an absent one are no-ops.
type BanStore interface {
	AddBan(ctx context.Context, username string) error
	RemoveBan(ctx context.Context, username string) error
	IsBanned(ctx context.Context, username string) (bool, error)
	ListBans(ctx context.Context) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	BanStore

	// Close releases the underlying storage.
	Close() error
}

// WithBans returns a Store that serves the moderation list from bans and
// everything else from base.
func WithBans(base Store, bans BanStore) Store {
	return &banOverride{Store: base, bans: bans}
}

type banOverride struct {
	Store
	bans BanStore
}

func (b *banOverride) AddBan(ctx context.Context, username string) error {
	return b.bans.AddBan(ctx, username)
}

func (b *banOverride) RemoveBan(ctx context.Context, username string) error {
	return b.bans.RemoveBan(ctx, username)
}

func (b *banOverride) IsBanned(ctx context.Context, username string) (bool, error) {
	return b.bans.IsBanned(ctx, username)
}

func (b *banOverride) ListBans(ctx context.Context) ([]string, error) {
	return b.bans.ListBans(ctx)
}

func (b *banOverride) Close() error {
	var errs []error
	if c, ok := b.bans.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, b.Store.Close())
	return errors.Join(errs...)
}
