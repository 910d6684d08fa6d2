package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName names the tracer and meter used by the service.
const InstrumentationName = "github.com/felixgeelhaar/pathfinder"

// Instruments holds the service's metric instruments.
// Instruments from the global meter are no-ops until an SDK is installed.
type Instruments struct {
	meter        metric.Meter
	moves        metric.Int64Counter
	fieldSets    metric.Int64Counter
	expansions   metric.Int64Histogram
	moveDuration metric.Float64Histogram
}

// NewInstruments creates the instruments on meter (nil = the global meter).
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	moves, err := meter.Int64Counter("pathfinder.moves",
		metric.WithDescription("Moves resolved, by direction"),
		metric.WithUnit("{move}"))
	if err != nil {
		return nil, err
	}
	fieldSets, err := meter.Int64Counter("pathfinder.field.sets",
		metric.WithDescription("Set-field requests, by outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	expansions, err := meter.Int64Histogram("pathfinder.search.expanded",
		metric.WithDescription("Nodes expanded per search"),
		metric.WithUnit("{node}"))
	if err != nil {
		return nil, err
	}
	moveDuration, err := meter.Float64Histogram("pathfinder.move.duration",
		metric.WithDescription("Move request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		meter:        meter,
		moves:        moves,
		fieldSets:    fieldSets,
		expansions:   expansions,
		moveDuration: moveDuration,
	}, nil
}

// RecordMove counts one move with its direction and resolver state.
func (i *Instruments) RecordMove(ctx context.Context, direction, state string, expanded int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("state", state),
	)
	i.moves.Add(ctx, 1, attrs)
	i.expansions.Record(ctx, int64(expanded))
	i.moveDuration.Record(ctx, durationMs, attrs)
}

// RecordFieldSet counts one set-field request.
func (i *Instruments) RecordFieldSet(ctx context.Context, outcome string) {
	i.fieldSets.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Snapshot is a point-in-time view of the worker pool and the state store.
type Snapshot struct {
	PoolPending   int64
	PoolStarted   int64
	PoolCompleted int64
	PoolFailed    int64
	StoreGets     int64
	StoreHits     int64
	StorePuts     int64
	StoreKeys     int64
}

// ObserveSnapshot exports the values returned by fn on every collection.
// The caller unregisters the returned registration on shutdown.
func (i *Instruments) ObserveSnapshot(fn func() Snapshot) (metric.Registration, error) {
	pending, err := i.meter.Int64ObservableGauge("pathfinder.pool.pending",
		metric.WithDescription("Resolves waiting for a worker"),
		metric.WithUnit("{job}"))
	if err != nil {
		return nil, err
	}
	jobs, err := i.meter.Int64ObservableCounter("pathfinder.pool.jobs",
		metric.WithDescription("Resolves run by the worker pool, by status"),
		metric.WithUnit("{job}"))
	if err != nil {
		return nil, err
	}
	ops, err := i.meter.Int64ObservableCounter("pathfinder.store.ops",
		metric.WithDescription("State store operations, by kind"),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, err
	}

	keys, err := i.meter.Int64ObservableGauge("pathfinder.store.keys",
		metric.WithDescription("Keys held by the state store"),
		metric.WithUnit("{key}"))
	if err != nil {
		return nil, err
	}

	return i.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := fn()
		o.ObserveInt64(pending, s.PoolPending)
		o.ObserveInt64(jobs, s.PoolStarted, metric.WithAttributes(attribute.String("status", "started")))
		o.ObserveInt64(jobs, s.PoolCompleted, metric.WithAttributes(attribute.String("status", "completed")))
		o.ObserveInt64(jobs, s.PoolFailed, metric.WithAttributes(attribute.String("status", "failed")))
		o.ObserveInt64(ops, s.StoreGets, metric.WithAttributes(attribute.String("op", "get")))
		o.ObserveInt64(ops, s.StoreHits, metric.WithAttributes(attribute.String("op", "hit")))
		o.ObserveInt64(ops, s.StorePuts, metric.WithAttributes(attribute.String("op", "put")))
		o.ObserveInt64(keys, s.StoreKeys)
		return nil
	}, pending, jobs, ops, keys)
}
