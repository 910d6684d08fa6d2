package agent

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestState(t *testing.T) *State {
	t.Helper()

	// 0 0 0
	// 0 1 0
	// 0 0 0
	s, err := NewState(grid.MustParse(3, 3, "000010000"), grid.Pos(0, 0))
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	return s
}

func TestNewState(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	if s.MoveCount != 0 || len(s.MoveLog) != 0 {
		t.Errorf("fresh state = %+v, want zero counters", s)
	}

	g := grid.MustParse(2, 2, "0100")
	if _, err := NewState(g, grid.Pos(0, 1)); !errors.Is(err, grid.ErrBlocked) {
		t.Errorf("blocked source error = %v, want ErrBlocked", err)
	}
	if _, err := NewState(g, grid.Pos(2, 0)); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("outside source error = %v, want ErrOutOfBounds", err)
	}
}

func TestApply_Steps(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	steps := []struct {
		dir  Direction
		want grid.Position
	}{
		{Right, grid.Pos(0, 1)},
		{Right, grid.Pos(0, 2)},
		{Down, grid.Pos(1, 2)},
		{Down, grid.Pos(2, 2)},
		{Left, grid.Pos(2, 1)},
		{Left, grid.Pos(2, 0)},
		{Up, grid.Pos(1, 0)},
	}

	for i, st := range steps {
		if err := s.Apply(st.dir, epoch); err != nil {
			t.Fatalf("step %d Apply(%s) error = %v", i, st.dir, err)
		}
		if s.Current != st.want {
			t.Fatalf("step %d Current = %s, want %s", i, s.Current, st.want)
		}
		if s.MoveCount != i+1 {
			t.Fatalf("step %d MoveCount = %d, want %d", i, s.MoveCount, i+1)
		}
	}
	if len(s.MoveLog) != 0 {
		t.Errorf("MoveLog = %v, want empty", s.MoveLog)
	}
}

func TestApply_ErrorCountsTheAttemptOnly(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	before := s.Current

	if err := s.Apply(Error, epoch); err != nil {
		t.Fatalf("Apply(Error) error = %v", err)
	}
	if s.Current != before {
		t.Errorf("Current = %s, want %s", s.Current, before)
	}
	if s.MoveCount != 1 {
		t.Errorf("MoveCount = %d, want 1", s.MoveCount)
	}
	if len(s.MoveLog) != 0 {
		t.Errorf("MoveLog = %v, want empty", s.MoveLog)
	}
}

func TestApply_FinishAppendsEvent(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	_ = s.Apply(Right, epoch)
	_ = s.Apply(Error, epoch)

	if err := s.Apply(Finish, epoch.Add(time.Minute)); err != nil {
		t.Fatalf("Apply(Finish) error = %v", err)
	}
	if len(s.MoveLog) != 1 {
		t.Fatalf("MoveLog has %d events, want 1", len(s.MoveLog))
	}
	ev := s.MoveLog[0]
	if ev.Count != 3 {
		t.Errorf("event Count = %d, want 3 (previous count 2 plus this attempt)", ev.Count)
	}
	if !ev.When.Equal(epoch.Add(time.Minute)) {
		t.Errorf("event When = %v", ev.When)
	}
	if s.Current != grid.Pos(0, 1) {
		t.Errorf("Current = %s, want (0,1)", s.Current)
	}
}

func TestApply_RejectsInvalidSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dir     Direction
		wantErr error
	}{
		{name: "off the top", dir: Up, wantErr: ErrInvalidMove},
		{name: "off the left", dir: Left, wantErr: ErrInvalidMove},
		{name: "unknown value", dir: Direction(9), wantErr: ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestState(t)
			err := s.Apply(tt.dir, epoch)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if s.MoveCount != 0 || s.Current != grid.Pos(0, 0) {
				t.Errorf("state mutated on rejected move: %+v", s)
			}
		})
	}

	// into the obstacle at (1,1)
	s := newTestState(t)
	_ = s.Apply(Right, epoch)
	if err := s.Apply(Down, epoch); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("Apply(Down) into obstacle error = %v", err)
	}
	if s.Current != grid.Pos(0, 1) || s.MoveCount != 1 {
		t.Errorf("state mutated on blocked move: %+v", s)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	_ = s.Apply(Finish, epoch)

	c := s.Clone()
	_ = c.Apply(Finish, epoch)

	if len(s.MoveLog) != 1 {
		t.Errorf("original MoveLog length = %d, want 1", len(s.MoveLog))
	}
	if s.Equal(c) {
		t.Error("clone still equal after diverging")
	}
}
