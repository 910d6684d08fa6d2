package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/pathfinder/infrastructure/observability"
)

// Option configures a Navigator.
type Option func(*Navigator)

// WithClock sets the time source used to stamp move events.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		n.now = now
	}
}

// WithIdentity sets the key of the agent being guided (default: robot_id).
func WithIdentity(id string) Option {
	return func(n *Navigator) {
		n.identity = id
	}
}

// WithFieldPolicy sets how SetField treats an existing state:
// config.PolicyReset (default) or config.PolicyPreserve.
func WithFieldPolicy(policy string) Option {
	return func(n *Navigator) {
		n.policy = policy
	}
}

// WithTracer sets the tracer for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) {
		n.tracer = t
	}
}

// WithInstruments sets the metric instruments.
func WithInstruments(i *observability.Instruments) Option {
	return func(n *Navigator) {
		n.instruments = i
	}
}
