package application

import (
	"context"

	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/pool"
	"github.com/felixgeelhaar/pathfinder/infrastructure/statemachine"
)

// Coordinator runs direction resolves on a bounded worker pool so that
// request goroutines never run a search themselves.
type Coordinator struct {
	pool     *pool.Pool[statemachine.Outcome]
	resolver *statemachine.Resolver
}

// NewCoordinator binds resolver to p. The caller owns p and stops it.
func NewCoordinator(p *pool.Pool[statemachine.Outcome], resolver *statemachine.Resolver) *Coordinator {
	return &Coordinator{pool: p, resolver: resolver}
}

// Dispatch resolves task on a worker and waits for the outcome.
// ctx bounds only the wait for a free slot in the queue.
func (c *Coordinator) Dispatch(ctx context.Context, task statemachine.Task) (statemachine.Outcome, error) {
	return c.pool.Do(ctx, func() (statemachine.Outcome, error) {
		return c.resolver.Resolve(task), nil
	})
}

// Metrics returns the pool's job metrics.
func (c *Coordinator) Metrics() pool.Metrics {
	return c.pool.Metrics()
}

// Pending returns the number of resolves waiting for a worker.
func (c *Coordinator) Pending() int {
	return c.pool.Pending()
}

// Closed reports whether the pool has stopped accepting resolves.
func (c *Coordinator) Closed() bool {
	return c.pool.Closed()
}
