package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/lock"
	"github.com/felixgeelhaar/pathfinder/infrastructure/resilience"
)

func TestOpen_EmbeddedBackends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"memory", func(c *config.Config) { c.Storage.Backend = config.BackendMemory }},
		{"default to memory", func(c *config.Config) { c.Storage.Backend = "" }},
		{"badger", func(c *config.Config) {
			c.Storage.Backend = config.BackendBadger
			c.Storage.Badger.InMemory = true
		}},
		{"sqlite", func(c *config.Config) {
			c.Storage.Backend = config.BackendSQLite
			c.Storage.SQLite.Path = filepath.Join(dir, "state.db")
		}},
		{"sqlite with pragmas", func(c *config.Config) {
			c.Storage.Backend = config.BackendSQLite
			c.Storage.SQLite.Path = filepath.Join(dir, "pragmas.db")
			c.Storage.SQLite.JournalMode = "truncate"
			c.Storage.SQLite.BusyTimeout = config.Duration(time.Second)
		}},
		{"badger without gc", func(c *config.Config) {
			c.Storage.Backend = config.BackendBadger
			c.Storage.Badger.InMemory = true
			c.Storage.Badger.GCInterval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(&cfg)

			s, err := Open(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			if _, ok := s.Backend.(*resilience.Backend); !ok {
				t.Errorf("Backend = %T, want *resilience.Backend", s.Backend)
			}
			if _, ok := s.Locks.(*lock.MemoryLockStore); !ok {
				t.Errorf("Locks = %T, want *lock.MemoryLockStore", s.Locks)
			}

			ctx := context.Background()
			if err := s.Backend.Put(ctx, "robot_id", []byte("v")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			value, found, err := s.Backend.Get(ctx, "robot_id")
			if err != nil || !found || string(value) != "v" {
				t.Errorf("Get() = %q, %v, %v", value, found, err)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.Backend = "cassandra"

	if _, err := Open(context.Background(), cfg); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestOpen_RedisUnreachable(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.Redis.Addr = "127.0.0.1:1"
	cfg.Storage.Redis.DialTimeout = config.Duration(100 * time.Millisecond)

	if _, err := Open(context.Background(), cfg); !errors.Is(err, store.ErrConnectionFailed) {
		t.Errorf("Open() error = %v, want ErrConnectionFailed", err)
	}
}

func TestStorage_CloseNil(t *testing.T) {
	t.Parallel()

	if err := (&Storage{}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
