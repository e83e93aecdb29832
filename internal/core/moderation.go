package core

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

// AuthorizedSet is the fixed set of identities allowed to run commands.
type AuthorizedSet map[string]struct{}

// NewAuthorizedSet builds a set from names.
func NewAuthorizedSet(names ...string) AuthorizedSet {
	return lo.SliceToMap(names, func(n string) (string, struct{}) { return n, struct{}{} })
}

// Contains reports whether name is authorized.
func (s AuthorizedSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Directory answers whether an identity is known to the system.
type Directory interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// UserDirectory adapts a store.UserStore to Directory.
func UserDirectory(users store.UserStore) Directory {
	return userDirectory{users: users}
}

type userDirectory struct {
	users store.UserStore
}

func (d userDirectory) Exists(ctx context.Context, username string) (bool, error) {
	_, err := d.users.GetUserByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// TextFilter rewrites message text before it is stored, e.g. to mask words.
type TextFilter interface {
	Censor(text string) string
}
