package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// reservedNames cannot be registered; they would impersonate server notices.
var reservedNames = map[string]struct{}{
	"system": {},
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	now       func() time.Time
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		now:       time.Now,
	}
}

// ValidateUsername checks the constraints a username must meet. Usernames are
// command arguments, so they may not contain whitespace or start with "/".
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 32 {
		return ErrInvalidUsername
	}
	if strings.ContainsFunc(username, unicode.IsSpace) || strings.HasPrefix(username, "/") {
		return ErrInvalidUsername
	}
	if _, reserved := reservedNames[strings.ToLower(username)]; reserved {
		return ErrInvalidUsername
	}
	return nil
}

// Register creates the account and signs the user in.
func (s *Service) Register(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return Session{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	switch {
	case errors.Is(err, store.ErrUserExists):
		return Session{}, ErrUserExists
	case err != nil:
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return IssueToken(s.jwtConfig, user.ID, user.Username, s.now())
}

// Login checks credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Session{}, ErrInvalidCredentials
	case err != nil:
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, err
	}
	return IssueToken(s.jwtConfig, user.ID, user.Username, s.now())
}

// ValidateToken returns the claims of a token this service issued.
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	return ParseToken(s.jwtConfig, raw)
}
