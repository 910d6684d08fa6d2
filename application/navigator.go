// Package application provides the navigation service: field setup and
// move resolution over persisted agent state.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/pool"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
	"github.com/felixgeelhaar/pathfinder/infrastructure/observability"
	"github.com/felixgeelhaar/pathfinder/infrastructure/statemachine"
)

// DefaultIdentity is the key of the single agent when none is configured.
const DefaultIdentity = "robot_id"

// FieldRequest describes a grid in wire form and the agent's start cell.
type FieldRequest struct {
	Rows   int
	Cols   int
	Cells  string
	Source grid.Position
}

// Field outcomes reported by SetField.
const (
	FieldCreated   = "created"
	FieldReset     = "reset"
	FieldPreserved = "preserved"
)

// Navigator guides one agent: it stores the field and answers move requests
// with the next direction.
type Navigator struct {
	states      *StateStore
	coordinator *Coordinator
	identity    string
	policy      string
	now         func() time.Time
	tracer      trace.Tracer
	instruments *observability.Instruments
}

// NewNavigator creates a navigator over states, dispatching resolves
// through coordinator.
func NewNavigator(states *StateStore, coordinator *Coordinator, opts ...Option) (*Navigator, error) {
	n := &Navigator{
		states:      states,
		coordinator: coordinator,
		identity:    DefaultIdentity,
		policy:      config.PolicyReset,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.policy != config.PolicyReset && n.policy != config.PolicyPreserve {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, n.policy)
	}
	if n.identity == "" {
		n.identity = DefaultIdentity
	}
	if n.tracer == nil {
		n.tracer = otel.Tracer(observability.InstrumentationName)
	}
	if n.instruments == nil {
		inst, err := observability.NewInstruments(nil)
		if err != nil {
			return nil, fmt.Errorf("create instruments: %w", err)
		}
		n.instruments = inst
	}
	return n, nil
}

// Identity returns the key of the guided agent.
func (n *Navigator) Identity() string {
	return n.identity
}

// Ready reports whether moves can be served: the worker pool is running and
// the state backend answers.
func (n *Navigator) Ready(ctx context.Context) error {
	if n.coordinator.Closed() {
		return pool.ErrPoolClosed
	}
	return n.states.Ping(ctx)
}

// Snapshot returns the current pool and store counters.
func (n *Navigator) Snapshot() observability.Snapshot {
	m := n.coordinator.Metrics()
	st := n.states.Stats()
	return observability.Snapshot{
		PoolPending:   int64(n.coordinator.Pending()),
		PoolStarted:   m.Started,
		PoolCompleted: m.Completed,
		PoolFailed:    m.Failed,
		StoreGets:     st.Gets,
		StoreHits:     st.Hits,
		StorePuts:     st.Puts,
		StoreKeys:     st.Keys,
	}
}

// SetField validates req and stores a fresh state for the agent, subject
// to the field policy. It returns which outcome applied.
func (n *Navigator) SetField(ctx context.Context, req FieldRequest) (string, error) {
	ctx, span := n.tracer.Start(ctx, "navigator.set_field", trace.WithAttributes(
		attribute.String("identity", n.identity),
		attribute.Int("rows", req.Rows),
		attribute.Int("cols", req.Cols),
	))
	defer span.End()

	g, err := grid.Parse(req.Rows, req.Cols, req.Cells)
	if err != nil {
		return "", n.fail(span, "set_field", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	fresh, err := agent.NewState(g, req.Source)
	if err != nil {
		return "", n.fail(span, "set_field", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	outcome := FieldCreated
	err = n.states.Update(ctx, n.identity, func(_ context.Context, current *agent.State) (*agent.State, error) {
		if current == nil {
			return fresh, nil
		}
		if n.policy == config.PolicyPreserve {
			outcome = FieldPreserved
			return nil, nil
		}
		outcome = FieldReset
		return fresh, nil
	})
	if err != nil {
		return "", n.fail(span, "set_field", err)
	}

	span.SetAttributes(attribute.String("outcome", outcome))
	n.instruments.RecordFieldSet(ctx, outcome)
	logging.Info().
		Add(logging.Operation("set_field")).
		Add(logging.Identity(n.identity)).
		Add(logging.Position("source", req.Source)).
		Add(logging.Str("outcome", outcome)).
		Msg("field set")
	return outcome, nil
}

// Move resolves the next direction toward the nearest of targets and
// applies it to the stored state.
//
// Every resolved move counts as an attempt, including ERROR. A target
// outside the stored grid fails with ErrInvalidInput and leaves the state
// untouched.
func (n *Navigator) Move(ctx context.Context, targets []grid.Position) (agent.Direction, error) {
	start := time.Now()
	ctx, span := n.tracer.Start(ctx, "navigator.move", trace.WithAttributes(
		attribute.String("identity", n.identity),
		attribute.Int("goals", len(targets)),
	))
	defer span.End()

	var (
		direction = agent.Error
		outcome   statemachine.Outcome
		count     int
	)
	err := n.states.Update(ctx, n.identity, func(ctx context.Context, current *agent.State) (*agent.State, error) {
		if current == nil {
			return nil, agent.ErrNoState
		}
		for _, t := range targets {
			if err := current.Grid.Check(t); err != nil {
				return nil, fmt.Errorf("%w: target: %w", ErrInvalidInput, err)
			}
		}

		var err error
		outcome, err = n.coordinator.Dispatch(ctx, statemachine.Task{
			Grid:    current.Grid,
			Current: current.Current,
			Goals:   targets,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}

		direction = outcome.Direction
		if err := current.Apply(direction, n.now()); err != nil {
			logging.Warn().
				Add(logging.Operation("move")).
				Add(logging.Direction(direction)).
				Add(logging.ErrorField(err)).
				Msg("direction rejected")
			direction = agent.Error
			if err := current.Apply(direction, n.now()); err != nil {
				return nil, err
			}
		}
		count = current.MoveCount
		return current, nil
	})
	if err != nil {
		return agent.Error, n.fail(span, "move", err)
	}

	span.SetAttributes(
		attribute.String("direction", direction.String()),
		attribute.String("resolver.state", outcome.State),
		attribute.Int("search.expanded", outcome.Expanded),
	)
	elapsed := time.Since(start)
	n.instruments.RecordMove(ctx, direction.String(), outcome.State, outcome.Expanded, float64(elapsed.Microseconds())/1000)
	logging.Info().
		Add(logging.Operation("move")).
		Add(logging.Identity(n.identity)).
		Add(logging.Direction(direction)).
		Add(logging.MoveCount(count)).
		Add(logging.Goals(len(targets))).
		Add(logging.Expanded(outcome.Expanded)).
		Add(logging.Duration(elapsed)).
		Msg("move resolved")
	return direction, nil
}

// State returns a snapshot of the stored state.
func (n *Navigator) State(ctx context.Context) (*agent.State, error) {
	ctx, span := n.tracer.Start(ctx, "navigator.state", trace.WithAttributes(
		attribute.String("identity", n.identity),
	))
	defer span.End()

	st, err := n.states.Get(ctx, n.identity)
	if err != nil {
		return nil, n.fail(span, "state", err)
	}
	return st, nil
}

func (n *Navigator) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	event := logging.Warn()
	if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, agent.ErrNoState) {
		event = logging.Error()
	}
	event.
		Add(logging.Operation(op)).
		Add(logging.Identity(n.identity)).
		Add(logging.ErrorField(err)).
		Msg("operation failed")
	return err
}
