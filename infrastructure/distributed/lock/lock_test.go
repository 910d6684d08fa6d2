package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLockAcquireRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewMemoryLockStore().NewLock()

	acquired, err := l.Acquire(ctx, "robot_id", 10*time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !acquired {
		t.Error("expected lock to be acquired")
	}

	if err := l.Release(ctx, "robot_id"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := l.Release(ctx, "robot_id"); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("second release error = %v, want ErrLockNotHeld", err)
	}
}

func TestMemoryLockSameHolderReacquires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewMemoryLockStore().NewLock()

	_, _ = l.Acquire(ctx, "k", 10*time.Second)
	acquired, err := l.Acquire(ctx, "k", 10*time.Second)
	if err != nil || !acquired {
		t.Errorf("reacquire = %v, %v", acquired, err)
	}
}

func TestMemoryLockDifferentHolder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryLockStore()
	l1 := store.NewLock()
	l2 := store.NewLock()

	_, _ = l1.Acquire(ctx, "k", 10*time.Second)

	acquired, err := l2.Acquire(ctx, "k", 10*time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if acquired {
		t.Error("expected different holder not to acquire held lock")
	}
	if err := l2.Release(ctx, "k"); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("foreign release error = %v, want ErrLockNotHeld", err)
	}
	if err := l2.Extend(ctx, "k", time.Second); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("foreign extend error = %v, want ErrLockNotHeld", err)
	}
}

func TestMemoryLockExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryLockStore()
	l1 := store.NewLock()
	l2 := store.NewLock()

	if l1.ID() == l2.ID() {
		t.Fatal("NewLock() returned the same holder twice")
	}

	_, _ = l1.Acquire(ctx, "k", 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if err := l1.Extend(ctx, "k", time.Second); !errors.Is(err, ErrLockExpired) {
		t.Errorf("Extend() error = %v, want ErrLockExpired", err)
	}

	acquired, _ := l2.Acquire(ctx, "k", time.Second)
	if !acquired {
		t.Error("expected expired lock to be taken over")
	}
	if err := l1.Extend(ctx, "k", time.Second); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("Extend() after takeover error = %v, want ErrLockNotHeld", err)
	}
}

func TestMemoryLockInvalidTTL(t *testing.T) {
	t.Parallel()

	l := NewMemoryLockStore().NewLock()
	if _, err := l.Acquire(context.Background(), "k", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("Acquire(ttl=0) error = %v", err)
	}
	if err := l.Extend(context.Background(), "k", -time.Second); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("Extend(ttl<0) error = %v", err)
	}
}

func TestWithLock_WaitsForRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryLockStore()
	holder := store.NewLock()

	_, _ = holder.Acquire(ctx, "k", time.Second)
	go func() {
		time.Sleep(15 * time.Millisecond)
		_ = holder.Release(ctx, "k")
	}()

	ran := false
	err := WithLock(ctx, store, "k", time.Second, func(context.Context) error {
		ran = true
		return nil
	}, WithRetryInterval(5*time.Millisecond), WithWait(time.Second))
	if err != nil || !ran {
		t.Fatalf("WithLock() = %v, ran %v", err, ran)
	}
}

func TestWithLock_Timeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryLockStore()
	_, _ = store.NewLock().Acquire(ctx, "k", time.Minute)

	err := WithLock(ctx, store, "k", time.Second, func(context.Context) error {
		t.Error("fn ran without the lock")
		return nil
	}, WithRetryInterval(time.Millisecond), WithWait(5*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("WithLock() error = %v, want ErrTimeout", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = WithLock(cctx, store, "k", time.Second, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled WithLock() error = %v", err)
	}
}

func TestWithLock_MutualExclusion(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockStore()

	var (
		inside  atomic.Int32
		counter int
		wg      sync.WaitGroup
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), store, "robot_id", time.Second, func(context.Context) error {
				if inside.Add(1) != 1 {
					t.Error("two holders inside the critical section")
				}
				counter++
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			}, WithRetryInterval(time.Millisecond), WithWait(5*time.Second))
			if err != nil {
				t.Errorf("WithLock() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if counter != 25 {
		t.Errorf("counter = %d, want 25", counter)
	}
	if ok, _ := store.NewLock().Acquire(context.Background(), "robot_id", time.Second); !ok {
		t.Error("lock still held after all sections finished")
	}
}

func TestWithLock_PropagatesError(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockStore()
	boom := errors.New("boom")
	err := WithLock(context.Background(), store, "k", time.Second,
		func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("WithLock() error = %v, want boom", err)
	}
	if ok, _ := store.NewLock().Acquire(context.Background(), "k", time.Second); !ok {
		t.Error("lock not released after fn failed")
	}
}

func TestWithLock_KeepsLeaseAlive(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockStore()
	ttl := 30 * time.Millisecond

	err := WithLock(context.Background(), store, "k", ttl, func(ctx context.Context) error {
		time.Sleep(4 * ttl)
		if ok, _ := store.NewLock().Acquire(context.Background(), "k", ttl); ok {
			t.Error("another holder took a lease that was still in use")
		}
		return Confirm(ctx)
	})
	if err != nil {
		t.Errorf("WithLock() error = %v", err)
	}
}

func TestWithLock_LostLeaseCancels(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockStore()
	ttl := 30 * time.Millisecond

	err := WithLock(context.Background(), store, "k", ttl, func(ctx context.Context) error {
		// another process steals the key out from under the holder
		store.mu.Lock()
		store.locks["k"] = &lockEntry{holderID: "thief", expiresAt: time.Now().Add(time.Minute)}
		store.mu.Unlock()

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("context not cancelled after the lease was lost")
		}
		if err := Confirm(ctx); !errors.Is(err, ErrLockLost) {
			t.Errorf("Confirm() error = %v, want ErrLockLost", err)
		}
		return ctx.Err()
	})
	if !errors.Is(err, ErrLockLost) {
		t.Errorf("WithLock() error = %v, want ErrLockLost", err)
	}
}

func TestConfirm_WithoutLease(t *testing.T) {
	t.Parallel()

	if err := Confirm(context.Background()); err != nil {
		t.Errorf("Confirm() error = %v", err)
	}
}
