// Package statemachine provides the statekit machine that turns a search
// outcome into a movement direction.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Resolution carries one resolve call through the machine.
type Resolution struct {
	Current grid.Position
	Path    []grid.Position

	// Set by actions.
	Direction agent.Direction
	Reason    string
}

// State IDs.
const (
	StateResolving   statekit.StateID = "resolving"
	StateFinished    statekit.StateID = "finished"
	StateStepping    statekit.StateID = "stepping"
	StateInPlace     statekit.StateID = "in_place"
	StateUnreachable statekit.StateID = "unreachable"
	StateFailed      statekit.StateID = "failed"
)

// Events.
const (
	EventNoGoals         statekit.EventType = "NO_GOALS"
	EventPathFound       statekit.EventType = "PATH_FOUND"
	EventPathEmpty       statekit.EventType = "PATH_EMPTY"
	EventPathUnreachable statekit.EventType = "PATH_UNREACHABLE"
	EventSearchFailed    statekit.EventType = "SEARCH_FAILED"
)

// machineID identifies the resolver statechart.
const machineID = "direction"

// NewDirectionMachine creates the direction statechart. Every state other
// than resolving is final; the action on the taken transition sets the
// direction on the Resolution.
func NewDirectionMachine() (*statekit.MachineConfig[*Resolution], error) {
	return statekit.NewMachine[*Resolution](machineID).
		WithInitial(StateResolving).
		WithContext(&Resolution{}).
		WithAction("finish", finish).
		WithAction("step", step).
		WithAction("rejectUnreachable", rejectUnreachable).
		WithAction("rejectInPlace", rejectInPlace).
		WithAction("rejectFailed", rejectFailed).
		WithGuard("hasStep", guardHasStep).
		State(StateResolving).
			On(EventNoGoals).Target(StateFinished).Do("finish").
			On(EventPathFound).Target(StateStepping).Guard("hasStep").Do("step").
			On(EventPathEmpty).Target(StateInPlace).Do("rejectInPlace").
			On(EventPathUnreachable).Target(StateUnreachable).Do("rejectUnreachable").
			On(EventSearchFailed).Target(StateFailed).Do("rejectFailed").
			Done().
		State(StateFinished).Final().Done().
		State(StateStepping).Final().Done().
		State(StateInPlace).Final().Done().
		State(StateUnreachable).Final().Done().
		State(StateFailed).Final().Done().
		Build()
}
