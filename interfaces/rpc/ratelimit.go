package rpc

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

const limiterIdle = 10 * time.Minute

// RateLimiter holds a token bucket per client address.
type RateLimiter struct {
	limiters sync.Map // addr -> *limiterEntry
	rpm      int
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewRateLimiter allows rpm requests per minute with the given burst per
// client. rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{rpm: rpm, burst: burst, lastCleanup: time.Now()}
}

// NewRateLimiterFromConfig builds a limiter from server configuration.
func NewRateLimiterFromConfig(cfg config.RateLimitConfig) *RateLimiter {
	return NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst)
}

// Enabled reports whether requests are limited at all.
func (rl *RateLimiter) Enabled() bool {
	return rl.rpm > 0
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	rl.maybeCleanup()

	now := time.Now()
	v, _ := rl.limiters.LoadOrStore(key, &limiterEntry{
		limiter:  rate.NewLimiter(rate.Limit(float64(rl.rpm)/60.0), rl.burst),
		lastSeen: now,
	})
	entry := v.(*limiterEntry)
	entry.mu.Lock()
	entry.lastSeen = now
	entry.mu.Unlock()
	return entry.limiter.Allow()
}

func (rl *RateLimiter) maybeCleanup() {
	rl.mu.Lock()
	if time.Since(rl.lastCleanup) < limiterIdle {
		rl.mu.Unlock()
		return
	}
	rl.lastCleanup = time.Now()
	rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterIdle)
	rl.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		stale := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitInterceptor rejects calls over the client's budget with
// ResourceExhausted. Health checks are never limited.
func RateLimitInterceptor(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if rl == nil || !rl.Enabled() || info.FullMethod == healthCheckMethod {
			return handler(ctx, req)
		}
		key := peerKey(ctx)
		if !rl.Allow(key) {
			logging.Warn().
				Add(logging.Method(info.FullMethod)).
				Add(logging.Str("peer", key)).
				Msg("rate limited")
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

const healthCheckMethod = "/grpc.health.v1.Health/Check"

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	return p.Addr.String()
}
