package agent

import (
	"fmt"
	"strings"
)

// Direction is the movement command returned for a move request.
// The numeric values are part of the wire protocol.
type Direction int

// Directions.
const (
	// Error means no path exists or the agent already stands on a goal.
	Error Direction = 0
	Right Direction = 1
	Down  Direction = 2
	Left  Direction = 3
	Up    Direction = 4
	// Finish means the goal set was empty and the agent is considered arrived.
	Finish Direction = 5
)

var directionNames = map[Direction]string{
	Error:  "ERROR",
	Right:  "RIGHT",
	Down:   "DOWN",
	Left:   "LEFT",
	Up:     "UP",
	Finish: "FINISH",
}

// AllDirections returns every direction in wire order.
func AllDirections() []Direction {
	return []Direction{Error, Right, Down, Left, Up, Finish}
}

// String returns the upper-case name of the direction.
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	_, ok := directionNames[d]
	return ok
}

// IsStep reports whether d moves the agent by one cell.
func (d Direction) IsStep() bool {
	return d == Right || d == Down || d == Left || d == Up
}

// Offset returns the (row, col) delta of a step direction and zero otherwise.
func (d Direction) Offset() (dr, dc int) {
	switch d {
	case Right:
		return 0, 1
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Up:
		return -1, 0
	}
	return 0, 0
}

// ParseDirection accepts a direction name in any case.
func ParseDirection(s string) (Direction, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == upper {
			return d, nil
		}
	}
	return Error, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
