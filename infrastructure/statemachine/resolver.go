package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
	"github.com/felixgeelhaar/pathfinder/domain/search"
)

// Task is a read-only snapshot of what a resolve needs.
type Task struct {
	Grid    grid.Grid
	Current grid.Position
	Goals   []grid.Position
}

// Outcome is the result of resolving a Task.
type Outcome struct {
	Direction agent.Direction
	// State is the final machine state, e.g. "stepping" or "unreachable".
	State string
	// Reason explains an Error direction.
	Reason   string
	Path     []grid.Position
	Expanded int
}

// Resolver maps (grid, current, goals) to the next direction.
// It is safe for concurrent use; each call runs its own interpreter.
type Resolver struct {
	machine   *statekit.MachineConfig[*Resolution]
	algorithm search.Algorithm
	opts      []search.Option
}

// NewResolver builds the direction machine once for the given algorithm.
func NewResolver(algorithm search.Algorithm, opts ...search.Option) (*Resolver, error) {
	if algorithm.Name != search.AStar || !algorithm.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", search.ErrUnknownAlgorithm, algorithm)
	}
	machine, err := NewDirectionMachine()
	if err != nil {
		return nil, fmt.Errorf("build direction machine: %w", err)
	}
	return &Resolver{machine: machine, algorithm: algorithm, opts: opts}, nil
}

// Algorithm returns the configured algorithm.
func (r *Resolver) Algorithm() search.Algorithm {
	return r.algorithm
}

// Resolve runs the search (unless goals is empty) and drives the machine to a
// final state.
func (r *Resolver) Resolve(task Task) Outcome {
	res := &Resolution{Current: task.Current, Direction: agent.Error}

	var (
		event    statekit.Event
		expanded int
	)
	if len(task.Goals) == 0 {
		event = statekit.Event{Type: EventNoGoals}
	} else {
		result, err := search.Search(task.Grid, task.Current, task.Goals, r.algorithm.Mode, r.opts...)
		expanded = result.Expanded
		switch {
		case err != nil:
			event = statekit.Event{Type: EventSearchFailed, Payload: err}
		case !result.Found:
			event = statekit.Event{Type: EventPathUnreachable}
		case len(result.Path) == 0:
			event = statekit.Event{Type: EventPathEmpty}
		default:
			res.Path = result.Path
			event = statekit.Event{Type: EventPathFound}
		}
	}

	interp := statekit.NewInterpreter(r.machine)
	interp.UpdateContext(func(c **Resolution) {
		*c = res
	})
	interp.Start()
	interp.Send(event)
	final := interp.State().Value
	interp.Stop()

	if final == StateResolving {
		// a guard refused the transition
		res.Direction = agent.Error
		res.Reason = "no transition"
	}

	return Outcome{
		Direction: res.Direction,
		State:     string(final),
		Reason:    res.Reason,
		Path:      res.Path,
		Expanded:  expanded,
	}
}
