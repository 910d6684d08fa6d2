// Package store provides the domain interface for persisting agent state bytes.
package store

import "context"

// Backend is a key-value store holding one encoded agent state per key.
// Implementations may be in-memory, Redis, Badger, SQLite, Postgres or any
// other backend. Put overwrites the previous value in full.
type Backend interface {
	// Get retrieves the value stored under key.
	// Returns the value, whether it was found, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

// Pinger is an optional interface for backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats provides backend statistics.
type Stats struct {
	// Gets is the number of Get calls.
	Gets int64
	// Hits is the number of Get calls that found a value.
	Hits int64
	// Puts is the number of Put calls.
	Puts int64
	// Keys is the current number of stored keys, when known.
	Keys int64
}

// StatsProvider is an optional interface for backends that support statistics.
type StatsProvider interface {
	Stats() Stats
}

// ValidateKey returns ErrInvalidKey for an empty key.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
