package resilience

import (
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// Option configures the protected backend.
type Option func(*Config)

// WithMaxConcurrent sets the maximum concurrent backend calls.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithCircuitBreaker enables the breaker with a failure threshold and open duration.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.CircuitBreakerEnabled = true
		c.CircuitBreakerThreshold = threshold
		c.CircuitBreakerTimeout = timeout
	}
}

// WithoutCircuitBreaker disables the breaker.
func WithoutCircuitBreaker() Option {
	return func(c *Config) {
		c.CircuitBreakerEnabled = false
	}
}

// WithRetry sets the total number of attempts and the exponential backoff.
func WithRetry(attempts int, initialDelay time.Duration, multiplier float64) Option {
	return func(c *Config) {
		c.RetryMaxAttempts = attempts
		c.RetryInitialDelay = initialDelay
		c.RetryBackoffMultiplier = multiplier
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// FromConfig maps the service configuration onto options.
func FromConfig(rc config.ResilienceConfig) []Option {
	opts := []Option{
		WithMaxConcurrent(rc.MaxConcurrent),
		WithRetry(rc.Retry.MaxAttempts, rc.Retry.InitialDelay.Duration(), rc.Retry.Multiplier),
		WithTimeout(rc.Timeout.Duration()),
	}
	if rc.CircuitBreaker.Enabled {
		opts = append(opts, WithCircuitBreaker(rc.CircuitBreaker.Threshold, rc.CircuitBreaker.Timeout.Duration()))
	} else {
		opts = append(opts, WithoutCircuitBreaker())
	}
	return opts
}

// NewBackendWithOptions wraps next using DefaultConfig plus opts.
func NewBackendWithOptions(next store.Backend, opts ...Option) *Backend {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewBackend(next, cfg)
}
