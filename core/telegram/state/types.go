package state

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("state: unknown session backend")

// Store keeps at most one value per Telegram user.
type Store[T any] interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, userID int64) (T, bool, error)
	Put(ctx context.Context, userID int64, v T) error
	// Delete is a no-op for absent users.
	Delete(ctx context.Context, userID int64) error
	// Len counts live entries.
	Len(ctx context.Context) (int, error)
	Close() error
}
