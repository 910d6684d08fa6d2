package agent

import "errors"

// Domain errors for agent state.
var (
	// ErrNoState is returned when a move is requested before any field was set.
	ErrNoState = errors.New("no state")

	// ErrInvalidMove indicates a step would leave the grid or enter an obstacle.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidDirection indicates a direction value outside the known set.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrCorruptState indicates a stored state could not be decoded or violates
	// the position invariant.
	ErrCorruptState = errors.New("corrupt state")
)
