package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/lock"
)

// UpdateFunc computes the next state from the current one.
// current is nil when nothing is stored. Returning a nil state skips the write.
type UpdateFunc func(ctx context.Context, current *agent.State) (*agent.State, error)

// StateStore persists agent states on a backend and serializes
// read-modify-write cycles per identity.
type StateStore struct {
	backend  store.Backend
	locks    lock.Provider
	ttl      time.Duration
	lockOpts []lock.Option
}

// NewStateStore creates a store over backend. The identity is used as the
// key; namespacing is left to the backend's key prefix.
func NewStateStore(backend store.Backend, locks lock.Provider, cfg config.LockConfig) *StateStore {
	ttl := cfg.TTL.Duration()
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	var opts []lock.Option
	if cfg.RetryInterval > 0 {
		opts = append(opts, lock.WithRetryInterval(cfg.RetryInterval.Duration()))
	}
	if cfg.WaitTimeout > 0 {
		opts = append(opts, lock.WithWait(cfg.WaitTimeout.Duration()))
	}

	return &StateStore{
		backend:  backend,
		locks:    locks,
		ttl:      ttl,
		lockOpts: opts,
	}
}

func (s *StateStore) key(id string) (string, error) {
	if err := store.ValidateKey(id); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads the state stored for id. It returns agent.ErrNoState when
// nothing is stored.
func (s *StateStore) Get(ctx context.Context, id string) (*agent.State, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, key)
}

// Put overwrites the state stored for id.
func (s *StateStore) Put(ctx context.Context, id string, st *agent.State) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}
	return s.save(ctx, key, st)
}

// Update runs fn under the identity lock and persists its result.
// An error from fn aborts the cycle without writing, and so does a lease
// lost while fn ran.
func (s *StateStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}

	return lock.WithLock(ctx, s.locks, key, s.ttl, func(ctx context.Context) error {
		current, err := s.load(ctx, key)
		if err != nil && !errors.Is(err, agent.ErrNoState) {
			return err
		}

		next, err := fn(ctx, current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return s.save(ctx, key, next)
	}, s.lockOpts...)
}

func (s *StateStore) load(ctx context.Context, key string) (*agent.State, error) {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, agent.ErrNoState
	}
	st, err := agent.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return st, nil
}

func (s *StateStore) save(ctx context.Context, key string, st *agent.State) error {
	data, err := agent.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	// a holder whose lease lapsed must not overwrite the new holder's state
	if err := lock.Confirm(ctx); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the backend can serve requests. Backends without a
// liveness check are assumed healthy.
func (s *StateStore) Ping(ctx context.Context) error {
	if p, ok := s.backend.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns the backend's counters, or zero when it keeps none.
func (s *StateStore) Stats() store.Stats {
	if sp, ok := s.backend.(store.StatsProvider); ok {
		return sp.Stats()
	}
	return store.Stats{}
}
