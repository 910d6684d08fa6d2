// Package memory provides an in-memory state backend.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// Backend is an in-memory implementation of store.Backend.
// Values are copied on the way in and out.
type Backend struct {
	mu      sync.RWMutex
	entries map[string][]byte

	gets atomic.Int64
	hits atomic.Int64
	puts atomic.Int64
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{entries: make(map[string][]byte)}
}

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := store.ValidateKey(key); err != nil {
		return nil, false, err
	}

	b.gets.Add(1)

	b.mu.RLock()
	value, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	b.hits.Add(1)
	return clone(value), true, nil
}

// Put stores value under key.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	b.puts.Add(1)

	b.mu.Lock()
	b.entries[key] = clone(value)
	b.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (b *Backend) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Stats returns backend statistics.
func (b *Backend) Stats() store.Stats {
	b.mu.RLock()
	keys := int64(len(b.entries))
	b.mu.RUnlock()

	return store.Stats{
		Gets: b.gets.Load(),
		Hits: b.hits.Load(),
		Puts: b.puts.Load(),
		Keys: keys,
	}
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
