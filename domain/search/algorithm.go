package search

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pathfinder/domain/heuristic"
)

// AStar is the name of the A* algorithm in selector strings.
const AStar = "astar"

// Algorithm is a parsed algorithm selector such as "astar[euclidean]".
type Algorithm struct {
	Name string
	Mode heuristic.Mode
}

// DefaultAlgorithm is A* with the Manhattan heuristic.
var DefaultAlgorithm = Algorithm{Name: AStar, Mode: heuristic.Default}

// String returns the selector form, e.g. "astar[manhattan]".
func (a Algorithm) String() string {
	return fmt.Sprintf("%s[%s]", a.Name, a.Mode)
}

// ParseAlgorithm parses "name[mode]". A bare "astar" selects the default mode.
func ParseAlgorithm(s string) (Algorithm, error) {
	name, mode := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Algorithm{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
		}
		name, mode = s[:i], s[i+1:len(s)-1]
	}

	if name != AStar {
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
	if mode == "" {
		return DefaultAlgorithm, nil
	}

	m, err := heuristic.ParseMode(mode)
	if err != nil {
		return Algorithm{}, fmt.Errorf("%w: %q: %w", ErrUnknownAlgorithm, s, err)
	}
	return Algorithm{Name: name, Mode: m}, nil
}
