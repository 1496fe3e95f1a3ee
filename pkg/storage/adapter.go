package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned when an operation is attempted on a closed backend.
var ErrClosed = errors.New("vstate/storage: backend is closed")

// Adapter is a generic key-value backend. Implementations must be safe for
// concurrent use. Callers treat every method as potentially slow.
type Adapter interface {
	// Get returns the stored bytes for key. The bool is false when the key
	// is absent; that is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Keys lists the keys of a, or reports ok=false when a cannot enumerate.
func Keys(ctx context.Context, a Adapter) (keys []string, ok bool, err error) {
	l, ok := a.(Lister)
	if !ok {
		return nil, false, nil
	}
	keys, err = l.Keys(ctx)
	return keys, true, err
}
