// Package store defines the key-value contract shared by every stateful
// component. A backend is chosen once at startup and injected.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get and Update when the key is absent or expired.
	ErrNotFound = errors.New("store: key not found")
	// ErrWrongType is returned when a string operation hits a hash key or the reverse.
	ErrWrongType = errors.New("store: wrong value type for key")
)

// UpdateFunc receives the current value of a key and returns its replacement.
// Returning an error aborts the update and leaves the key untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a minimal key-value contract. Values are opaque blobs, usually JSON.
//
// Backend failures are wrapped with domain.ErrStorage.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value. ttl == 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX writes value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	// Keys lists keys matching a glob pattern such as "link:*".
	Keys(ctx context.Context, pattern string) ([]string, error)
	// HIncrBy increments a field of a hash key and returns the new value.
	HIncrBy(ctx context.Context, key, field string, amount int64) (int64, error)
	// Update atomically rewrites one existing key, keeping its TTL.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	Ping(ctx context.Context) error
	Backend() string
	Close() error
}
