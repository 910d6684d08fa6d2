package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLockStore is the shared state behind in-process locks.
type MemoryLockStore struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewMemoryLockStore creates a new shared lock store.
func NewMemoryLockStore() *MemoryLockStore {
	return &MemoryLockStore{
		locks: make(map[string]*lockEntry),
	}
}

// NewLock returns a lock with a new holder ID over this store.
func (s *MemoryLockStore) NewLock() Lock {
	return &MemoryLock{store: s, holderID: uuid.NewString()}
}

type lockEntry struct {
	holderID  string
	expiresAt time.Time
}

// MemoryLock implements Lock using in-memory storage.
type MemoryLock struct {
	store    *MemoryLockStore
	holderID string
}

// ID returns the holder identifier.
func (l *MemoryLock) ID() string {
	return l.holderID
}

// Acquire attempts to acquire the lock. Expired entries are taken over.
func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	now := time.Now()
	if entry, exists := l.store.locks[key]; exists {
		if entry.expiresAt.After(now) && entry.holderID != l.holderID {
			return false, nil
		}
	}

	l.store.locks[key] = &lockEntry{
		holderID:  l.holderID,
		expiresAt: now.Add(ttl),
	}
	return true, nil
}

// Release releases the lock.
func (l *MemoryLock) Release(_ context.Context, key string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	entry, exists := l.store.locks[key]
	if !exists || entry.holderID != l.holderID {
		return ErrLockNotHeld
	}

	delete(l.store.locks, key)
	return nil
}

// Extend extends the TTL of a held lock.
func (l *MemoryLock) Extend(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	entry, exists := l.store.locks[key]
	if !exists || entry.holderID != l.holderID {
		return ErrLockNotHeld
	}

	now := time.Now()
	if !entry.expiresAt.After(now) {
		return ErrLockExpired
	}

	entry.expiresAt = now.Add(ttl)
	return nil
}
