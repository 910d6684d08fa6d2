package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS agent_state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
`

// Backend is a SQLite-backed implementation of store.Backend.
type Backend struct {
	db        *sql.DB
	keyPrefix string
	ownDB     bool

	gets atomic.Int64
	hits atomic.Int64
	puts atomic.Int64
}

// NewBackend opens the database and creates the schema.
func NewBackend(cfg Config, opts ...Option) (*Backend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	b, err := NewBackendFromDB(db, cfg.KeyPrefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.ownDB = true
	return b, nil
}

// NewBackendFromDB wraps an existing database and creates the schema.
func NewBackendFromDB(db *sql.DB, keyPrefix string) (*Backend, error) {
	b := &Backend{db: db, keyPrefix: keyPrefix}
	if err := b.migrate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) migrate() error {
	if _, err := b.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
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
	err := b.db.QueryRowContext(ctx,
		"SELECT value FROM agent_state WHERE key = ?",
		b.keyPrefix+key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapError(err)
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

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO agent_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, b.keyPrefix+key, value, time.Now().UnixNano())
	return wrapError(err)
}

// Stats returns backend statistics.
func (b *Backend) Stats() store.Stats {
	var keys int64
	_ = b.db.QueryRow("SELECT COUNT(*) FROM agent_state").Scan(&keys)

	return store.Stats{
		Gets: b.gets.Load(),
		Hits: b.hits.Load(),
		Puts: b.puts.Load(),
		Keys: keys,
	}
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	return wrapError(b.db.PingContext(ctx))
}

// Close closes the database if the backend opened it.
func (b *Backend) Close() error {
	if !b.ownDB {
		return nil
	}
	return b.db.Close()
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || err.Error() == "sql: database is closed" {
		return errors.Join(store.ErrClosed, err)
	}
	return err
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
