// Package search implements A* over 4-connected occupancy grids.
//
// Each step costs 1. The frontier is ordered by f = g + h; ties go to the
// node with the smaller heuristic value and then to the node discovered
// first. Neighbours are expanded right, left, down, up.
package search

import (
	"fmt"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
	"github.com/felixgeelhaar/pathfinder/domain/heuristic"
)

// neighbours in expansion order: right, left, down, up.
var neighbours = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// Result contains the outcome of a search.
type Result struct {
	// Path runs from the step after start through the reached goal.
	// It is empty (not nil) when start is itself a goal and nil when no
	// goal is reachable.
	Path []grid.Position

	// Found reports whether a goal was reached.
	Found bool

	// Cost is the number of steps in Path.
	Cost int

	// Expanded is the number of nodes taken off the frontier and expanded.
	Expanded int

	// Exhausted is set when the expansion budget ran out before a goal was found.
	Exhausted bool
}

// InPlace reports whether start already satisfied the goal set.
func (r Result) InPlace() bool {
	return r.Found && len(r.Path) == 0
}

// Options configures a search.
type Options struct {
	// MaxExpansions bounds the number of expanded nodes. Zero means unbounded.
	MaxExpansions int
}

// Option modifies Options.
type Option func(*Options)

// WithMaxExpansions caps the number of nodes a search may expand.
func WithMaxExpansions(n int) Option {
	return func(o *Options) { o.MaxExpansions = n }
}

// Search finds a shortest 4-connected path from start to the nearest of goals.
func Search(g grid.Grid, start grid.Position, goals []grid.Position, mode heuristic.Mode, opts ...Option) (Result, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	if !mode.Valid() {
		return Result{}, fmt.Errorf("%w: %q", heuristic.ErrInvalidMode, string(mode))
	}
	if len(goals) == 0 {
		return Result{}, heuristic.ErrNoGoals
	}
	if !g.InBounds(start) {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidStart, start)
	}

	s := newState(g, goals, mode)
	return s.run(start, options.MaxExpansions), nil
}

// state holds the bookkeeping of a single search call.
type state struct {
	grid    grid.Grid
	goals   map[grid.Position]struct{}
	goalSet []grid.Position
	mode    heuristic.Mode

	estimates map[grid.Position]float64
	gScore    map[grid.Position]int
	cameFrom  map[grid.Position]grid.Position

	open frontier
	seq  uint64
}

func newState(g grid.Grid, goals []grid.Position, mode heuristic.Mode) *state {
	set := make(map[grid.Position]struct{}, len(goals))
	for _, p := range goals {
		set[p] = struct{}{}
	}
	return &state{
		grid:      g,
		goals:     set,
		goalSet:   goals,
		mode:      mode,
		estimates: make(map[grid.Position]float64),
		gScore:    make(map[grid.Position]int),
		cameFrom:  make(map[grid.Position]grid.Position),
	}
}

// estimate memoizes the heuristic per position for the lifetime of the call.
func (s *state) estimate(p grid.Position) float64 {
	if h, ok := s.estimates[p]; ok {
		return h
	}
	// mode and goals were validated by Search.
	h, _ := heuristic.Estimate(p, s.goalSet, s.mode)
	s.estimates[p] = h
	return h
}

func (s *state) enqueue(p grid.Position, g int) {
	h := s.estimate(p)
	s.open.push(&frontierItem{pos: p, g: g, h: h, f: float64(g) + h, seq: s.seq})
	s.seq++
}

func (s *state) run(start grid.Position, maxExpansions int) Result {
	var res Result

	s.gScore[start] = 0
	s.enqueue(start, 0)

	for s.open.Len() > 0 {
		item := s.open.pop()

		// stale entry superseded by a cheaper route
		if item.g > s.gScore[item.pos] {
			continue
		}

		if _, ok := s.goals[item.pos]; ok {
			res.Path = s.reconstruct(item.pos)
			res.Found = true
			res.Cost = len(res.Path)
			return res
		}

		if maxExpansions > 0 && res.Expanded >= maxExpansions {
			res.Exhausted = true
			return res
		}

		res.Expanded++

		for _, d := range neighbours {
			next := item.pos.Add(d[0], d[1])
			if !s.grid.IsFree(next) {
				continue
			}

			// expanded nodes keep their g, so this also skips closed nodes
			// unless the new route is strictly cheaper
			tentative := item.g + 1
			if best, seen := s.gScore[next]; seen && tentative >= best {
				continue
			}

			s.cameFrom[next] = item.pos
			s.gScore[next] = tentative
			s.enqueue(next, tentative)
		}
	}

	return res
}

// reconstruct walks predecessors back from goal, excluding the start node.
func (s *state) reconstruct(goal grid.Position) []grid.Position {
	path := []grid.Position{}
	for cur := goal; ; {
		prev, ok := s.cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, cur)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
