package redis

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// Backend is a Redis-backed implementation of store.Backend.
// Each state is one string value under KeyPrefix + key.
type Backend struct {
	client    *redis.Client
	keyPrefix string
	ownClient bool

	gets atomic.Int64
	hits atomic.Int64
	puts atomic.Int64
}

// NewBackend connects to Redis and verifies the connection.
func NewBackend(cfg Config, opts ...ConfigOption) (*Backend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}

	b := NewBackendFromClient(client, cfg.KeyPrefix)
	b.ownClient = true
	return b, nil
}

// NewBackendFromClient wraps an existing client. Close leaves it open.
func NewBackendFromClient(client *redis.Client, keyPrefix string) *Backend {
	return &Backend{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (b *Backend) prefixKey(key string) string {
	return b.keyPrefix + key
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
	value, err := b.client.Get(ctx, b.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, wrapError(err)
	}

	b.hits.Add(1)
	return value, true, nil
}

// Put stores value under key with no expiration.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	b.puts.Add(1)
	if err := b.client.Set(ctx, b.prefixKey(key), value, 0).Err(); err != nil {
		return wrapError(err)
	}
	return nil
}

// Stats returns backend statistics. Keys is not tracked.
func (b *Backend) Stats() store.Stats {
	return store.Stats{
		Gets: b.gets.Load(),
		Hits: b.hits.Load(),
		Puts: b.puts.Load(),
	}
}

// Ping checks the Redis connection.
func (b *Backend) Ping(ctx context.Context) error {
	return wrapError(b.client.Ping(ctx).Err())
}

// Close closes the connection if the backend opened it.
func (b *Backend) Close() error {
	if !b.ownClient {
		return nil
	}
	return b.client.Close()
}

// Client returns the underlying Redis client, e.g. for locks.
func (b *Backend) Client() *redis.Client {
	return b.client
}

// KeyPrefix returns the namespace prepended to keys.
func (b *Backend) KeyPrefix() string {
	return b.keyPrefix
}

// wrapError maps Redis errors onto store errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(store.ErrOperationTimeout, err)
	}
	if errors.Is(err, redis.ErrClosed) {
		return errors.Join(store.ErrClosed, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(store.ErrOperationTimeout, err)
	}

	return err
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
