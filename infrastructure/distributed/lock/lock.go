// Package lock provides per-key mutual exclusion across goroutines and processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// Lock is a lease on keys held by one holder.
//
// A holder may re-acquire a key it already holds, so a Lock must not be
// shared between callers that need to exclude each other. Use a Provider to
// get a fresh holder per critical section.
type Lock interface {
	// Acquire attempts to acquire the lock.
	// Returns true if the lock was acquired, false if already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock.
	Release(ctx context.Context, key string) error

	// Extend resets the TTL of a lock this holder still owns.
	Extend(ctx context.Context, key string, ttl time.Duration) error

	// ID returns the holder identifier.
	ID() string
}

// Provider hands out locks with distinct holder IDs over shared state.
type Provider interface {
	NewLock() Lock
}

// Common errors.
var (
	ErrLockNotHeld = errors.New("lock not held")
	ErrLockExpired = errors.New("lock has expired")
	ErrLockLost    = errors.New("lock lost")
	ErrInvalidTTL  = errors.New("invalid TTL")
	ErrTimeout     = errors.New("timed out waiting for lock")
)

// minKeepAlive bounds how often a lease is extended.
const minKeepAlive = time.Millisecond

// Option configures lock acquisition.
type Option func(*options)

type options struct {
	retryInterval time.Duration
	maxRetries    int
	wait          time.Duration
}

// WithRetryInterval sets the interval between lock acquisition retries.
func WithRetryInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// WithWait derives the retry count from the total time to wait.
func WithWait(wait time.Duration) Option {
	return func(o *options) {
		o.wait = wait
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		retryInterval: 100 * time.Millisecond,
		maxRetries:    10,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.wait > 0 {
		o.maxRetries = int(o.wait / o.retryInterval)
	}
	return o
}

func acquire(ctx context.Context, lock Lock, key string, ttl time.Duration, o *options) (bool, error) {
	for i := 0; i <= o.maxRetries; i++ {
		acquired, err := lock.Acquire(ctx, key, ttl)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		if i < o.maxRetries {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(o.retryInterval):
			}
		}
	}
	return false, nil
}

type leaseKey struct{}

type lease struct {
	lock Lock
	key  string
	ttl  time.Duration
}

// WithLock runs fn while holding key under a fresh holder from p.
// It returns ErrTimeout when the lock cannot be acquired within the retries.
//
// The lease is extended every ttl/3 while fn runs. When an extension fails
// the context passed to fn is cancelled and WithLock returns ErrLockLost.
// Writes made under the lock should call Confirm first.
func WithLock(ctx context.Context, p Provider, key string, ttl time.Duration, fn func(ctx context.Context) error, opts ...Option) error {
	o := newOptions(opts)
	l := p.NewLock()

	acquired, err := acquire(ctx, l, key, ttl, o)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrTimeout, key)
	}

	held, cancel := context.WithCancelCause(ctx)
	held = context.WithValue(held, leaseKey{}, &lease{lock: l, key: key, ttl: ttl})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		keepAlive(held, l, key, ttl, done, cancel)
	}()

	err = fn(held)
	close(done)
	wg.Wait()

	cause := context.Cause(held)
	cancel(nil)

	// a fresh context so a cancelled caller still releases
	if rerr := l.Release(context.WithoutCancel(ctx), key); rerr != nil {
		logging.Warn().
			Add(logging.Component("lock")).
			Add(logging.Str("key", key)).
			Add(logging.ErrorField(rerr)).
			Msg("release failed")
	}

	if errors.Is(cause, ErrLockLost) {
		if err == nil || errors.Is(err, context.Canceled) {
			return cause
		}
		return errors.Join(cause, err)
	}
	return err
}

func keepAlive(ctx context.Context, l Lock, key string, ttl time.Duration, done <-chan struct{}, cancel context.CancelCauseFunc) {
	interval := ttl / 3
	if interval < minKeepAlive {
		interval = minKeepAlive
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Extend(ctx, key, ttl); err != nil {
				if ctx.Err() != nil {
					return
				}
				cancel(fmt.Errorf("%w: %s: %w", ErrLockLost, key, err))
				return
			}
		}
	}
}

// Confirm renews the lease carried by ctx and fails with ErrLockLost when
// its holder no longer owns the key. A context without a lease passes.
func Confirm(ctx context.Context) error {
	l, ok := ctx.Value(leaseKey{}).(*lease)
	if !ok {
		return nil
	}
	if cause := context.Cause(ctx); errors.Is(cause, ErrLockLost) {
		return cause
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.lock.Extend(ctx, l.key, l.ttl); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLockLost, l.key, err)
	}
	return nil
}
