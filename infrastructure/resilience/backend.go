// Package resilience protects state backend calls using fortify.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// Config configures the protected backend.
type Config struct {
	// MaxConcurrent limits in-flight backend calls (0 = unbounded).
	MaxConcurrent int

	// CircuitBreakerEnabled turns the breaker on.
	CircuitBreakerEnabled bool

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the total number of attempts (1 = no retries).
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// Timeout bounds each call (0 = none).
	Timeout time.Duration
}

// DefaultConfig returns the configuration used by the service: a breaker and
// a timeout, but no retries.
func DefaultConfig() Config {
	return Config{
		CircuitBreakerEnabled:   true,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        1,
		RetryInitialDelay:       50 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		Timeout:                 5 * time.Second,
	}
}

type result struct {
	value []byte
	found bool
}

// Backend decorates a store.Backend.
// Composition order: Bulkhead → Timeout → Circuit Breaker → Retry.
type Backend struct {
	next     store.Backend
	bulkhead bulkhead.Bulkhead[result]
	breaker  circuitbreaker.CircuitBreaker[result]
	retry    retry.Retry[result]
	timeout  time.Duration
}

// NewBackend wraps next with the configured protections.
func NewBackend(next store.Backend, config Config) *Backend {
	b := &Backend{next: next, timeout: config.Timeout}

	if config.MaxConcurrent > 0 {
		b.bulkhead = bulkhead.New[result](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		})
	}

	if config.CircuitBreakerEnabled {
		threshold := config.CircuitBreakerThreshold
		if threshold <= 0 {
			threshold = 5
		}
		b.breaker = circuitbreaker.New[result](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- positive above
			},
		})
	}

	if config.RetryMaxAttempts > 1 {
		b.retry = retry.New[result](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		})
	}

	return b
}

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := b.execute(ctx, "get", func(ctx context.Context) (result, error) {
		value, found, err := b.next.Get(ctx, key)
		return result{value: value, found: found}, err
	})
	return r.value, r.found, err
}

// Put stores value under key.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.execute(ctx, "put", func(ctx context.Context) (result, error) {
		return result{}, b.next.Put(ctx, key, value)
	})
	return err
}

// Ping fails with store.ErrUnavailable while the circuit is open and
// otherwise forwards to the wrapped backend when it supports it.
func (b *Backend) Ping(ctx context.Context) error {
	if state := b.CircuitBreakerState(); state == "open" {
		return fmt.Errorf("%w: circuit breaker %s", store.ErrUnavailable, state)
	}
	if p, ok := b.next.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
	}
	return nil
}

// Stats forwards to the wrapped backend when it supports it.
func (b *Backend) Stats() store.Stats {
	if sp, ok := b.next.(store.StatsProvider); ok {
		return sp.Stats()
	}
	return store.Stats{}
}

// CircuitBreakerState returns the breaker state, or "disabled".
func (b *Backend) CircuitBreakerState() string {
	if b.breaker == nil {
		return "disabled"
	}
	return b.breaker.State().String()
}

func (b *Backend) execute(ctx context.Context, op string, fn func(context.Context) (result, error)) (result, error) {
	if err := ctx.Err(); err != nil {
		return result{}, err
	}

	var called atomic.Bool
	call := func(ctx context.Context) (result, error) {
		called.Store(true)
		return b.withRetry(ctx, fn)
	}

	run := func(ctx context.Context) (result, error) {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		if b.breaker == nil {
			return call(ctx)
		}
		return b.breaker.Execute(ctx, call)
	}

	var (
		r   result
		err error
	)
	if b.bulkhead != nil {
		r, err = b.bulkhead.Execute(ctx, run)
	} else {
		r, err = run(ctx)
	}

	if err != nil && !called.Load() {
		logging.Warn().
			Add(logging.Component("resilience")).
			Add(logging.Operation(op)).
			Add(logging.Str("breaker", b.CircuitBreakerState())).
			Add(logging.ErrorField(err)).
			Msg("backend call refused")
		return r, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return r, errors.Join(store.ErrOperationTimeout, err)
	}
	return r, err
}

func (b *Backend) withRetry(ctx context.Context, fn func(context.Context) (result, error)) (result, error) {
	if b.retry == nil {
		return fn(ctx)
	}
	return b.retry.Do(ctx, fn)
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
