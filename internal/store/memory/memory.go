// Package memory provides a non-durable, in-process store.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

// Store keeps users, messages and bans in memory.
// Messages are held sorted by id; ids come from a counter that only grows.
type Store struct {
	mu         sync.RWMutex
	nextUserID int64
	nextMsgID  int64
	users      map[string]*store.User
	messages   []store.Message
	bans       map[string]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nextUserID: 1,
		nextMsgID:  1,
		users:      make(map[string]*store.User),
		bans:       make(map[string]struct{}),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateUser creates a new user with hashed password.
func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, store.ErrUserExists
	}
	user := &store.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextUserID++
	s.users[username] = user

	out := *user
	return &out, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
	}
	out := *user
	return &out, nil
}

// AppendMessage assigns the next id and stores the message.
func (s *Store) AppendMessage(_ context.Context, author, body string, at time.Time) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := store.Message{
		ID:        s.nextMsgID,
		Author:    author,
		Body:      body,
		CreatedAt: at.UTC(),
	}
	s.nextMsgID++
	s.messages = append(s.messages, msg)

	return &msg, nil
}

// DeleteMessage removes a message by id.
func (s *Store) DeleteMessage(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.search(id)
	if i == len(s.messages) || s.messages[i].ID != id {
		return false, nil
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	return true, nil
}

// ListMessages returns up to limit messages older than beforeID, oldest first.
func (s *Store) ListMessages(_ context.Context, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	end := len(s.messages)
	if beforeID != nil {
		end = s.search(*beforeID)
	}
	start := max(end-limit, 0)

	window := s.messages[start:end]
	return lo.Map(window, func(m store.Message, _ int) *store.Message {
		out := m
		return &out
	}), nil
}

// search returns the index of the first message with ID >= id.
func (s *Store) search(id int64) int {
	return sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].ID >= id
	})
}

// AddBan adds username to the ban set.
func (s *Store) AddBan(_ context.Context, username string) error {
	s.mu.Lock()
	s.bans[username] = struct{}{}
	s.mu.Unlock()
	return nil
}

// RemoveBan removes username from the ban set.
func (s *Store) RemoveBan(_ context.Context, username string) error {
	s.mu.Lock()
	delete(s.bans, username)
	s.mu.Unlock()
	return nil
}

// IsBanned reports whether username is in the ban set.
func (s *Store) IsBanned(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	_, ok := s.bans[username]
	s.mu.RUnlock()
	return ok, nil
}

// ListBans returns banned usernames in lexical order.
func (s *Store) ListBans(_ context.Context) ([]string, error) {
	s.mu.RLock()
	names := lo.Keys(s.bans)
	s.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}
