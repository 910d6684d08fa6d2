// Package badger provides an embedded BadgerDB state backend.
package badger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// Config configures BadgerDB storage.
type Config struct {
	// Dir is the directory to store data in.
	Dir string

	// InMemory uses in-memory storage (useful for testing).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// NumVersionsToKeep sets the number of versions to keep per key.
	NumVersionsToKeep int

	// GCDiscardRatio is the discard ratio for value log GC.
	GCDiscardRatio float64

	// GCInterval is the interval between GC runs (0 disables GC).
	GCInterval time.Duration

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// Option configures BadgerDB storage.
type Option func(*Config)

// WithDir sets the data directory.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.Dir = dir
	}
}

// WithInMemory enables in-memory storage.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithSyncWrites enables synchronous writes.
func WithSyncWrites() Option {
	return func(c *Config) {
		c.SyncWrites = true
	}
}

// WithGCInterval sets the value log GC interval. Zero disables GC.
func WithGCInterval(d time.Duration) Option {
	return func(c *Config) {
		c.GCInterval = d
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
		NumVersionsToKeep: 1,
		GCDiscardRatio:    0.5,
		GCInterval:        5 * time.Minute,
	}
}

// openDB opens a BadgerDB database with the given configuration.
func openDB(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("%w: badger dir is required", store.ErrConnectionFailed)
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.NumVersionsToKeep > 0 {
		opts = opts.WithNumVersionsToKeep(cfg.NumVersionsToKeep)
	}

	opts = opts.WithLogger(boltLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(store.ErrConnectionFailed, err)
	}

	return db, nil
}

// boltLogger adapts the service logger to badger.Logger.
type boltLogger struct{}

func (boltLogger) Errorf(format string, args ...any) {
	logging.Error().Add(logging.Component("badger")).Msg(trim(format, args))
}

func (boltLogger) Warningf(format string, args ...any) {
	logging.Warn().Add(logging.Component("badger")).Msg(trim(format, args))
}

func (boltLogger) Infof(format string, args ...any) {
	logging.Debug().Add(logging.Component("badger")).Msg(trim(format, args))
}

func (boltLogger) Debugf(format string, args ...any) {
	logging.Trace().Add(logging.Component("badger")).Msg(trim(format, args))
}

func trim(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
