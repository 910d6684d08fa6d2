package badger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

// Backend is a BadgerDB-backed implementation of store.Backend.
type Backend struct {
	db        *badger.DB
	keyPrefix string
	ownDB     bool

	gets atomic.Int64
	hits atomic.Int64
	puts atomic.Int64

	gcStop chan struct{}
	gcWg   sync.WaitGroup
	closed sync.Once
}

// NewBackend opens a database and starts value log GC when configured.
func NewBackend(cfg Config, opts ...Option) (*Backend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	b := NewBackendFromDB(db, cfg.KeyPrefix)
	b.ownDB = true

	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return b, nil
}

// NewBackendFromDB wraps an existing database. Close leaves it open.
func NewBackendFromDB(db *badger.DB, keyPrefix string) *Backend {
	return &Backend{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

func (b *Backend) startGC(interval time.Duration, discardRatio float64) {
	b.gcWg.Add(1)
	go func() {
		defer b.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-b.gcStop:
				return
			case <-ticker.C:
				// repeat until there is nothing left to rewrite
				for b.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (b *Backend) prefixKey(key string) []byte {
	return []byte(b.keyPrefix + "state:" + key)
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
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.prefixKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapError(err)
	}

	b.hits.Add(1)
	return value, true, nil
}

// Put stores value under key.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	b.puts.Add(1)

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(b.prefixKey(key), value))
	})
	return wrapError(err)
}

// Stats returns backend statistics.
func (b *Backend) Stats() store.Stats {
	var keys int64
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(b.keyPrefix + "state:")

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys++
		}
		return nil
	})

	return store.Stats{
		Gets: b.gets.Load(),
		Hits: b.hits.Load(),
		Puts: b.puts.Load(),
		Keys: keys,
	}
}

// Ping reports whether the database is still open.
func (b *Backend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return store.ErrClosed
	}
	return nil
}

// Close stops GC and closes the database if the backend opened it.
func (b *Backend) Close() error {
	var err error
	b.closed.Do(func() {
		close(b.gcStop)
		b.gcWg.Wait()
		if b.ownDB {
			err = b.db.Close()
		}
	})
	return err
}

func wrapError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return errors.Join(store.ErrClosed, err)
	}
	return err
}

var (
	_ store.Backend       = (*Backend)(nil)
	_ store.Pinger        = (*Backend)(nil)
	_ store.StatsProvider = (*Backend)(nil)
)
