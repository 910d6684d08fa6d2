// Package pool provides a bounded worker pool for CPU-bound jobs.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// Common errors.
var (
	ErrPoolClosed  = errors.New("pool closed")
	ErrInvalidSize = errors.New("invalid pool size")
	ErrJobPanicked = errors.New("job panicked")
)

// Pool runs jobs on a fixed number of workers fed by a bounded queue.
//
// A job accepted by Do always runs to completion, even if the caller's
// context is cancelled while it waits for the result.
type Pool[T any] struct {
	workers int
	jobs    chan job[T]

	// mu guards closed and the close of jobs. Senders hold the read lock.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	metricsMu sync.Mutex
	metrics   Metrics
}

type job[T any] struct {
	fn     func() (T, error)
	result chan outcome[T]
}

type outcome[T any] struct {
	value T
	err   error
}

// Option configures the pool.
type Option func(*options)

type options struct {
	queueSize int
}

// WithQueueSize sets how many accepted jobs may wait for a worker.
// Zero means a caller waits until a worker is free.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.queueSize = n
		}
	}
}

// New creates a pool and starts its workers.
func New[T any](workers int, opts ...Option) (*Pool[T], error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d workers", ErrInvalidSize, workers)
	}

	o := options{queueSize: workers * 4}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		workers: workers,
		jobs:    make(chan job[T], o.queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	return p, nil
}

// Workers returns the number of workers.
func (p *Pool[T]) Workers() int {
	return p.workers
}

// Pending returns the number of accepted jobs not yet picked up.
func (p *Pool[T]) Pending() int {
	return len(p.jobs)
}

// Do submits fn and blocks until a worker has run it.
//
// ctx only bounds the wait for a queue slot. Once the job is accepted its
// result is returned regardless of ctx.
func (p *Pool[T]) Do(ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	j := job[T]{fn: fn, result: make(chan outcome[T], 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return zero, ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return zero, ctx.Err()
	}

	out := <-j.result
	return out.value, out.err
}

// Stop closes intake, lets the workers drain queued jobs and waits for them.
// It is safe to call more than once.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// Closed reports whether Stop has been called.
func (p *Pool[T]) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Metrics returns a snapshot of the pool's counters.
func (p *Pool[T]) Metrics() Metrics {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	return p.metrics
}

func (p *Pool[T]) loop() {
	defer p.wg.Done()

	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool[T]) run(j job[T]) {
	p.metricsMu.Lock()
	p.metrics.Started++
	p.metricsMu.Unlock()

	value, err := call(j.fn)

	p.metricsMu.Lock()
	if err != nil {
		p.metrics.Failed++
	} else {
		p.metrics.Completed++
	}
	p.metricsMu.Unlock()

	j.result <- outcome[T]{value: value, err: err}
}

func call[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
			logging.Error().
				Add(logging.Component("pool")).
				Add(logging.ErrorField(err)).
				Msg("recovered job panic")
		}
	}()
	return fn()
}

// Metrics counts jobs run by the pool.
type Metrics struct {
	Started   int64
	Completed int64
	Failed    int64
}
