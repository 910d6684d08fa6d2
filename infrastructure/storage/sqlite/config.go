// Package sqlite provides a SQLite state backend.
package sqlite

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// ErrMigrationFailed is returned when the schema cannot be created.
var ErrMigrationFailed = errors.New("sqlite: migration failed")

// Config configures SQLite storage.
type Config struct {
	// DSN is the data source name (e.g., "file:pathfinder.db?mode=rwc").
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration

	// JournalMode sets the SQLite journal mode (e.g., "WAL").
	JournalMode string

	// BusyTimeout sets the busy timeout in milliseconds.
	BusyTimeout int

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// Option configures SQLite storage.
type Option func(*Config)

// WithPath points the DSN at a database file, or at a private in-memory
// database for ":memory:".
func WithPath(path string) Option {
	return func(c *Config) {
		if path == MemoryDSN {
			c.DSN = MemoryDSN
			return
		}
		c.DSN = "file:" + path + "?mode=rwc"
	}
}

// WithJournalMode sets the SQLite journal mode. Empty keeps the default.
func WithJournalMode(mode string) Option {
	return func(c *Config) {
		if mode != "" {
			c.JournalMode = mode
		}
	}
}

// WithBusyTimeout sets how long a writer waits on a locked database.
// Zero keeps the default.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.BusyTimeout = int(d.Milliseconds())
		}
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DSN:             "file:pathfinder.db?mode=rwc",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		BusyTimeout:     5000,
	}
}

// openDB opens a SQLite database with the given configuration.
func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}

	if cfg.DSN == MemoryDSN {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	var pragmas []string
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode="+cfg.JournalMode)
	}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, "PRAGMA busy_timeout="+strconv.Itoa(cfg.BusyTimeout))
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrMigrationFailed, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}

	return db, nil
}
