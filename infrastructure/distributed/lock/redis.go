package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLockProvider hands out Redis-backed locks sharing one client.
type RedisLockProvider struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLockProvider creates a provider. Lock keys are prefix + "lock:" + key.
func NewRedisLockProvider(client redis.UniversalClient, prefix string) *RedisLockProvider {
	return &RedisLockProvider{client: client, prefix: prefix}
}

// NewLock returns a lock with a new holder token.
func (p *RedisLockProvider) NewLock() Lock {
	return &RedisLock{client: p.client, prefix: p.prefix, holderID: uuid.NewString()}
}

// RedisLock implements Lock with SET NX PX and compare-and-delete scripts.
type RedisLock struct {
	client   redis.UniversalClient
	prefix   string
	holderID string
}

func (l *RedisLock) key(key string) string {
	return l.prefix + "lock:" + key
}

// ID returns the holder token.
func (l *RedisLock) ID() string {
	return l.holderID
}

// Acquire attempts to acquire the lock.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	ok, err := l.client.SetNX(ctx, l.key(key), l.holderID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return true, nil
	}

	// re-acquire by the same holder refreshes the TTL
	n, err := extendScript.Run(ctx, l.client, []string{l.key(key)}, l.holderID, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis extend: %w", err)
	}
	return n == 1, nil
}

// Release releases the lock if this holder still owns it.
func (l *RedisLock) Release(ctx context.Context, key string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, l.holderID).Int64()
	if err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend extends the TTL of a held lock.
func (l *RedisLock) Extend(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	n, err := extendScript.Run(ctx, l.client, []string{l.key(key)}, l.holderID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("redis extend: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
