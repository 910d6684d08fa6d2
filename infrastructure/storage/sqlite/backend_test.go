package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	b, err := NewBackend(DefaultConfig(), WithPath(MemoryDSN))
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_GetPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newTestBackend(t)

	if _, found, err := b.Get(ctx, "robot_id"); err != nil || found {
		t.Fatalf("Get() on empty table = found %v, err %v", found, err)
	}

	if err := b.Put(ctx, "robot_id", []byte("v1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := b.Put(ctx, "robot_id", []byte("v2")); err != nil {
		t.Fatalf("Put() upsert error = %v", err)
	}

	value, found, err := b.Get(ctx, "robot_id")
	if err != nil || !found || string(value) != "v2" {
		t.Errorf("Get() = %q, %v, %v", value, found, err)
	}

	stats := b.Stats()
	if stats.Keys != 1 || stats.Puts != 2 || stats.Gets != 2 || stats.Hits != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestBackend_FileAndPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	a, err := NewBackend(DefaultConfig(), WithPath(path), WithKeyPrefix("a:"))
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	defer a.Close()

	b, err := NewBackend(DefaultConfig(), WithPath(path), WithKeyPrefix("b:"))
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	defer b.Close()

	_ = a.Put(ctx, "robot_id", []byte("from a"))

	if _, found, _ := b.Get(ctx, "robot_id"); found {
		t.Error("prefixes are not isolated")
	}
	value, found, err := a.Get(ctx, "robot_id")
	if err != nil || !found || string(value) != "from a" {
		t.Errorf("Get() = %q, %v, %v", value, found, err)
	}
	if err := a.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestBackend_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newTestBackend(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Put(ctx, "k", []byte("v")); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if stats := b.Stats(); stats.Keys != 1 || stats.Puts != 20 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestBackend_Errors(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)

	if _, _, err := b.Get(context.Background(), ""); !errors.Is(err, store.ErrInvalidKey) {
		t.Errorf("Get(\"\") error = %v", err)
	}

	_ = b.Close()
	if err := b.Put(context.Background(), "k", []byte("v")); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Put() after Close error = %v", err)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	WithJournalMode("truncate")(&cfg)
	WithBusyTimeout(2 * time.Second)(&cfg)
	if cfg.JournalMode != "truncate" || cfg.BusyTimeout != 2000 {
		t.Errorf("config = %+v", cfg)
	}

	WithJournalMode("")(&cfg)
	WithBusyTimeout(0)(&cfg)
	if cfg.JournalMode != "truncate" || cfg.BusyTimeout != 2000 {
		t.Errorf("empty options changed config: %+v", cfg)
	}

	WithPath("state.db")(&cfg)
	if cfg.DSN != "file:state.db?mode=rwc" {
		t.Errorf("DSN = %q", cfg.DSN)
	}
}
