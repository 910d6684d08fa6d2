package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1} {
		if _, err := New[int](n); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestPool_Do(t *testing.T) {
	t.Parallel()

	p, err := New[int](2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Stop()

	got, err := p.Do(context.Background(), func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Do() = %d, want 42", got)
	}
	if p.Workers() != 2 {
		t.Errorf("Workers() = %d, want 2", p.Workers())
	}
}

func TestPool_JobError(t *testing.T) {
	t.Parallel()

	p, _ := New[string](1)
	defer p.Stop()

	boom := errors.New("boom")
	if _, err := p.Do(context.Background(), func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want boom", err)
	}

	m := p.Metrics()
	if m.Failed != 1 || m.Completed != 0 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestPool_RecoversPanic(t *testing.T) {
	t.Parallel()

	p, _ := New[int](1)
	defer p.Stop()

	_, err := p.Do(context.Background(), func() (int, error) { panic("bad job") })
	if !errors.Is(err, ErrJobPanicked) {
		t.Fatalf("Do() error = %v, want ErrJobPanicked", err)
	}

	// the worker survives
	got, err := p.Do(context.Background(), func() (int, error) { return 1, nil })
	if err != nil || got != 1 {
		t.Errorf("Do() after panic = %d, %v", got, err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3
	p, _ := New[int](workers, WithQueueSize(16))
	defer p.Stop()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Do(context.Background(), func() (int, error) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return 0, nil
			})
		}()
	}
	wg.Wait()

	if peak.Load() > workers {
		t.Errorf("peak concurrency = %d, want <= %d", peak.Load(), workers)
	}
	if m := p.Metrics(); m.Completed != 20 || m.Failed != 0 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestPool_ContextWhileEnqueuing(t *testing.T) {
	t.Parallel()

	p, _ := New[int](1, WithQueueSize(0))
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = p.Do(context.Background(), func() (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Do(ctx, func() (int, error) { return 1, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want DeadlineExceeded", err)
	}
	close(release)
}

func TestPool_AcceptedJobIgnoresCancel(t *testing.T) {
	t.Parallel()

	p, _ := New[int](1)
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	got, err := p.Do(ctx, func() (int, error) {
		cancel()
		time.Sleep(5 * time.Millisecond)
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Errorf("Do() = %d, %v, want 7, nil", got, err)
	}
}

func TestPool_StopDrainsAndRejects(t *testing.T) {
	t.Parallel()

	p, _ := New[int](1, WithQueueSize(8))

	var done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Do(context.Background(), func() (int, error) {
				time.Sleep(2 * time.Millisecond)
				done.Add(1)
				return 0, nil
			}); err != nil && !errors.Is(err, ErrPoolClosed) {
				t.Errorf("Do() error = %v", err)
			}
		}()
	}
	time.Sleep(time.Millisecond)
	p.Stop()
	wg.Wait()

	if m := p.Metrics(); int32(m.Completed) != done.Load() {
		t.Errorf("Completed = %d, ran = %d", m.Completed, done.Load())
	}
	if !p.Closed() {
		t.Error("Closed() = false after Stop")
	}
	if _, err := p.Do(context.Background(), func() (int, error) { return 0, nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Do() after Stop error = %v, want ErrPoolClosed", err)
	}
	p.Stop()
}

func TestPool_PendingAndFailures(t *testing.T) {
	t.Parallel()

	p, _ := New[int](1, WithQueueSize(4))
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = p.Do(context.Background(), func() (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()
	<-started

	errBoom := errors.New("boom")
	failed := make(chan error, 1)
	go func() {
		_, err := p.Do(context.Background(), func() (int, error) { return 0, errBoom })
		failed <- err
	}()

	deadline := time.Now().Add(time.Second)
	for p.Pending() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Pending() = %d, want 1", p.Pending())
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	if err := <-failed; !errors.Is(err, errBoom) {
		t.Errorf("Do() error = %v, want errBoom", err)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending() = %d after drain, want 0", p.Pending())
	}
	if m := p.Metrics(); m.Started != 2 || m.Completed != 1 || m.Failed != 1 {
		t.Errorf("Metrics() = %+v", m)
	}
}
