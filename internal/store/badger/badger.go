// Package badger implements store.Store on top of an embedded BadgerDB.
//
// Key layout:
//
//	msg:{id zero-padded to 20 digits} -> JSON message
//	user:{username}                   -> JSON user
//	ban:{username}                    -> empty
//
// Zero padding makes lexicographic key order match id order, so history pages
// are a reverse prefix scan. Ids come from a badger.Sequence, which only grows
// across restarts.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

const (
	messagePrefix = "msg:"
	userPrefix    = "user:"
	banPrefix     = "ban:"

	sequenceBandwidth = 100
)

// Store implements store.Store for BadgerDB.
type Store struct {
	db      *badger.DB
	msgSeq  *badger.Sequence
	userSeq *badger.Sequence
}

type diskMessage struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
}

type diskUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// New opens (or creates) a Badger database in dir.
func New(dir string) (*Store, error) {
	return Open(badger.DefaultOptions(dir).WithLogger(nil))
}

// NewInMemory opens a Badger database that lives only in memory.
func NewInMemory() (*Store, error) {
	return Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

// Open opens a Badger database with the given options.
func Open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	msgSeq, err := db.GetSequence([]byte("seq:messages"), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	userSeq, err := db.GetSequence([]byte("seq:users"), sequenceBandwidth)
	if err != nil {
		_ = msgSeq.Release()
		db.Close()
		return nil, fmt.Errorf("user sequence: %w", err)
	}

	return &Store{db: db, msgSeq: msgSeq, userSeq: userSeq}, nil
}

// Close releases the sequences and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.msgSeq.Release(), s.userSeq.Release(), s.db.Close())
}

func messageKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%020d", messagePrefix, id)
}

// nextID maps the zero-based sequence onto ids starting at 1.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

// CreateUser stores a new user; the username is the key.
func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (*store.User, error) {
	id, err := nextID(s.userSeq)
	if err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}
	user := diskUser{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return store.ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return toUser(user), nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	var user diskUser
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return toUser(user), nil
}

// AppendMessage assigns the next sequence id and persists the message.
func (s *Store) AppendMessage(_ context.Context, author, body string, at time.Time) (*store.Message, error) {
	id, err := nextID(s.msgSeq)
	if err != nil {
		return nil, fmt.Errorf("next message id: %w", err)
	}
	msg := diskMessage{ID: id, Author: author, Body: body, At: at.UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(id), data)
	}); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return toMessage(msg), nil
}

// DeleteMessage removes a message and reports whether it existed.
func (s *Store) DeleteMessage(_ context.Context, id int64) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := messageKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	return existed, nil
}

// ListMessages walks the message keys backwards from beforeID (or from the
// newest key) and returns up to limit messages, oldest first.
func (s *Store) ListMessages(_ context.Context, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 || (beforeID != nil && *beforeID <= 1) {
		return nil, nil
	}

	var messages []*store.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(messagePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the largest key <= seekKey.
		seekKey := append([]byte(messagePrefix), 0xFF)
		if beforeID != nil {
			seekKey = messageKey(*beforeID - 1)
		}

		for it.Seek(seekKey); it.ValidForPrefix([]byte(messagePrefix)); it.Next() {
			if len(messages) == limit {
				break
			}
			var msg diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			messages = append(messages, toMessage(msg))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}
	return messages, nil
}

// AddBan marks username as banned.
func (s *Store) AddBan(_ context.Context, username string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(banPrefix+username), nil)
	}); err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	return nil
}

// RemoveBan clears the ban for username.
func (s *Store) RemoveBan(_ context.Context, username string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(banPrefix + username))
	}); err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	return nil
}

// IsBanned reports whether username is banned.
func (s *Store) IsBanned(_ context.Context, username string) (bool, error) {
	banned := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(banPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		banned = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("query ban: %w", err)
	}
	return banned, nil
}

// ListBans returns banned usernames in key order.
func (s *Store) ListBans(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(banPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(banPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query bans: %w", err)
	}
	return names, nil
}

func toMessage(m diskMessage) *store.Message {
	return &store.Message{ID: m.ID, Author: m.Author, Body: m.Body, CreatedAt: m.At}
}

func toUser(u diskUser) *store.User {
	return &store.User{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
}
