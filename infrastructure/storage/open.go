// Package storage opens the configured state backend and its lock provider.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/lock"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
	"github.com/felixgeelhaar/pathfinder/infrastructure/resilience"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage/badger"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage/memory"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage/redis"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage/sqlite"
)

// ErrUnknownBackend is returned for an unrecognised storage.backend.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Storage bundles a backend with the locks that guard it.
type Storage struct {
	Backend store.Backend
	Locks   lock.Provider
	Name    string

	closer func() error
}

// Close releases the backend's resources.
func (s *Storage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Open builds the backend named by cfg.Storage.Backend, wrapped with the
// resilience decorator.
//
// Redis gets distributed locks. Every other backend is served by a single
// process and uses in-process locks.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	sc := cfg.Storage

	var (
		backend store.Backend
		locks   lock.Provider = lock.NewMemoryLockStore()
		closer  func() error
	)

	switch sc.Backend {
	case config.BackendMemory, "":
		b := memory.NewBackend()
		backend, closer = b, b.Close

	case config.BackendRedis:
		b, err := redis.NewBackend(redis.DefaultConfig(),
			redis.WithAddress(sc.Redis.Addr),
			redis.WithPassword(sc.Redis.Password),
			redis.WithDB(sc.Redis.DB),
			redis.WithPoolSize(sc.Redis.PoolSize),
			redis.WithDialTimeout(sc.Redis.DialTimeout.Duration()),
			redis.WithKeyPrefix(sc.KeyPrefix),
		)
		if err != nil {
			return nil, fmt.Errorf("open redis %s: %w", sc.Redis.Addr, err)
		}
		backend, closer = b, b.Close
		locks = lock.NewRedisLockProvider(b.Client(), sc.KeyPrefix)

	case config.BackendBadger:
		opts := []badger.Option{
			badger.WithDir(sc.Badger.Path),
			badger.WithGCInterval(sc.Badger.GCInterval.Duration()),
			badger.WithKeyPrefix(sc.KeyPrefix),
		}
		if sc.Badger.InMemory {
			opts = append(opts, badger.WithInMemory())
		}
		if sc.Badger.SyncWrites {
			opts = append(opts, badger.WithSyncWrites())
		}
		b, err := badger.NewBackend(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, fmt.Errorf("open badger %s: %w", sc.Badger.Path, err)
		}
		backend, closer = b, b.Close

	case config.BackendSQLite:
		b, err := sqlite.NewBackend(sqlite.DefaultConfig(),
			sqlite.WithPath(sc.SQLite.Path),
			sqlite.WithJournalMode(sc.SQLite.JournalMode),
			sqlite.WithBusyTimeout(sc.SQLite.BusyTimeout.Duration()),
			sqlite.WithKeyPrefix(sc.KeyPrefix))
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", sc.SQLite.Path, err)
		}
		backend, closer = b, b.Close

	case config.BackendPostgres:
		b, err := postgres.NewBackend(ctx, postgres.DefaultConfig(),
			postgres.WithDSN(sc.Postgres.DSN),
			postgres.WithPoolSize(sc.Postgres.MaxConns),
			postgres.WithSchema(sc.Postgres.Schema),
			postgres.WithConnectTimeout(sc.Postgres.ConnectTimeout.Duration()),
			postgres.WithKeyPrefix(sc.KeyPrefix))
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		backend, closer = b, b.Close

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, sc.Backend)
	}

	logging.Info().
		Add(logging.Backend(backendName(sc.Backend))).
		Msg("state backend opened")

	return &Storage{
		Backend: resilience.NewBackendWithOptions(backend, resilience.FromConfig(cfg.Resilience)...),
		Locks:   locks,
		Name:    backendName(sc.Backend),
		closer:  closer,
	}, nil
}

func backendName(name string) string {
	if name == "" {
		return config.BackendMemory
	}
	return name
}
