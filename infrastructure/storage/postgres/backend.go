package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// Backend is a PostgreSQL-backed implementation of store.Backend.
type Backend struct {
	pool      *pgxpool.Pool
	schema    string
	keyPrefix string
	ownPool   bool

	gets atomic.Int64
	hits atomic.Int64
	puts atomic.Int64
}

// NewBackend connects, verifies the connection and creates the table.
func NewBackend(ctx context.Context, cfg Config, opts ...ConfigOption) (*Backend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", store.ErrConnectionFailed)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}

	b := NewBackendFromPool(pool, cfg.Schema, cfg.KeyPrefix)
	b.ownPool = true
	if err := b.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// NewBackendFromPool wraps an existing pool. Close leaves it open.
func NewBackendFromPool(pool *pgxpool.Pool, schema, keyPrefix string) *Backend {
	if schema == "" {
		schema = "public"
	}
	return &Backend{
		pool:      pool,
		schema:    schema,
		keyPrefix: keyPrefix,
	}
}

func (b *Backend) tableName() string {
	return pgx.Identifier{b.schema, "agent_state"}.Sanitize()
}

// Migrate creates the state table if it does not exist.
func (b *Backend) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, b.tableName())

	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", b.tableName(), err)
	}
	return nil
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

	var value []byte
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, b.tableName())
	err := b.pool.QueryRow(ctx, query, b.keyPrefix+key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}

	b.hits.Add(1)
	return value, true, nil
}

// Put stores value under key, replacing any previous row.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	b.puts.Add(1)

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, b.tableName())

	if _, err := b.pool.Exec(ctx, query, b.keyPrefix+key, value); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// Stats returns backend statistics.
func (b *Backend) Stats() store.Stats {
	var keys int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, b.tableName())
	_ = b.pool.QueryRow(context.Background(), query).Scan(&keys)

	return store.Stats{
		Gets: b.gets.Load(),
		Hits: b.hits.Load(),
		Puts: b.puts.Load(),
		Keys: keys,
	}
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close closes the pool if the backend opened it.
func (b *Backend) Close() error {
	if b.ownPool {
		b.pool.Close()
	}
	return nil
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
