// Package storage provides the key/value blob store that session snapshots
// are persisted to. Keys are the fixed session keys; values are serialized
// blobs. A store outlives the process.
package storage

import "context"

// SessionStore is the persistence boundary for session state.
type SessionStore interface {
	// Ping tests the store connection.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error

	// Get retrieves a value. Returns "" (not an error) when the key is
	// absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a single value.
	Set(ctx context.Context, key, value string) error

	// SetMulti writes a group of values in one operation. Backends that
	// support transactions write all entries or none.
	SetMulti(ctx context.Context, entries map[string]string) error

	// Del removes keys. Removing an absent key is not an error.
	Del(ctx context.Context, keys ...string) error

	// Exists reports whether any of the given keys is present.
	Exists(ctx context.Context, keys ...string) (bool, error)
}
