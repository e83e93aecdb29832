package core

import (
	"errors"
	"fmt"
)

// Error codes carried by private notices.
const (
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeNotFound           = "not_found"
	ErrCodeMalformed          = "malformed"
	ErrCodeBanned             = "banned"
	ErrCodeAlreadyBanned      = "already_banned"
	ErrCodeNotBanned          = "not_banned"
	ErrCodeStorageUnavailable = "storage_unavailable"
)

var (
	// ErrStorageUnavailable marks failures of the message or ban store.
	// The action that hit it was not applied.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrHubStopped is returned for requests submitted after the hub shut down.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
