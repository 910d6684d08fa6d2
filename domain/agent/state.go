// Package agent provides the domain model for the agent being guided across a grid.
package agent

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// MoveEvent records an arrival: the move count at which FINISH was emitted.
type MoveEvent struct {
	Count int
	When  time.Time
}

// State is the persisted record for one agent.
type State struct {
	Grid      grid.Grid
	Current   grid.Position
	MoveCount int
	MoveLog   []MoveEvent
}

// NewState creates a fresh state positioned at source.
func NewState(g grid.Grid, source grid.Position) (*State, error) {
	if err := g.CheckFree(source); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return &State{Grid: g, Current: source}, nil
}

// Apply records one move attempt and then applies d.
//
// MoveCount is incremented for every direction, including Error. A step
// moves Current by one cell and Finish appends a MoveEvent carrying the
// incremented count. If the step would leave the grid or enter an obstacle
// ErrInvalidMove is returned and the state is left untouched.
func (s *State) Apply(d Direction, now time.Time) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}

	next := s.Current
	if d.IsStep() {
		next = s.Current.Add(d.Offset())
		if !s.Grid.IsFree(next) {
			return fmt.Errorf("%w: %s from %s to %s", ErrInvalidMove, d, s.Current, next)
		}
	}

	s.MoveCount++
	s.Current = next
	if d == Finish {
		s.MoveLog = append(s.MoveLog, MoveEvent{Count: s.MoveCount, When: now})
	}
	return nil
}

// Validate checks the position invariant.
func (s *State) Validate() error {
	if s.Grid.IsZero() {
		return fmt.Errorf("%w: missing grid", ErrCorruptState)
	}
	if err := s.Grid.CheckFree(s.Current); err != nil {
		return fmt.Errorf("%w: current: %w", ErrCorruptState, err)
	}
	if s.MoveCount < 0 {
		return fmt.Errorf("%w: negative move count", ErrCorruptState)
	}
	return nil
}

// Clone returns a deep copy. Grids are immutable and shared.
func (s *State) Clone() *State {
	out := *s
	if s.MoveLog != nil {
		out.MoveLog = append([]MoveEvent(nil), s.MoveLog...)
	}
	return &out
}

// Equal reports whether two states hold the same data.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if !s.Grid.Equal(other.Grid) || s.Current != other.Current || s.MoveCount != other.MoveCount {
		return false
	}
	if len(s.MoveLog) != len(other.MoveLog) {
		return false
	}
	for i := range s.MoveLog {
		a, b := s.MoveLog[i], other.MoveLog[i]
		if a.Count != b.Count || !a.When.Equal(b.When) {
			return false
		}
	}
	return true
}
