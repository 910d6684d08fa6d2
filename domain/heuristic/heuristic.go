// Package heuristic provides the distance estimates used to guide A*.
package heuristic

import (
	"errors"
	"fmt"
	"math"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Mode selects a distance function.
type Mode string

// Supported modes.
const (
	// Manhattan is |dr| + |dc|. Admissible and consistent for 4-connected moves.
	Manhattan Mode = "manhattan"

	// Euclidean is the straight-line distance.
	Euclidean Mode = "euclidean"

	// Diagonal is the Chebyshev distance max(|dr|, |dc|).
	Diagonal Mode = "diagonal"
)

// Default is the mode used when none is configured.
const Default = Manhattan

var (
	// ErrInvalidMode is returned for an unrecognised mode.
	ErrInvalidMode = errors.New("invalid heuristic mode")

	// ErrNoGoals is returned when Estimate is called with an empty goal set.
	ErrNoGoals = errors.New("no goals")
)

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{Manhattan, Euclidean, Diagonal}
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	switch m {
	case Manhattan, Euclidean, Diagonal:
		return true
	}
	return false
}

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// ParseMode converts a name to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Distance returns the distance between a and b under mode.
func Distance(a, b grid.Position, mode Mode) (float64, error) {
	dr := math.Abs(float64(a.Row - b.Row))
	dc := math.Abs(float64(a.Col - b.Col))

	switch mode {
	case Manhattan:
		return dr + dc, nil
	case Euclidean:
		return math.Hypot(dr, dc), nil
	case Diagonal:
		return math.Max(dr, dc), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, string(mode))
	}
}

// Estimate returns the smallest distance from p to any of goals.
func Estimate(p grid.Position, goals []grid.Position, mode Mode) (float64, error) {
	if len(goals) == 0 {
		return 0, ErrNoGoals
	}
	best := math.Inf(1)
	for _, g := range goals {
		d, err := Distance(p, g, mode)
		if err != nil {
			return 0, err
		}
		if d < best {
			best = d
		}
	}
	return best, nil
}
