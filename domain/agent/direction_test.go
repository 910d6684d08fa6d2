package agent

import (
	"errors"
	"testing"
)

func TestDirection_WireValues(t *testing.T) {
	t.Parallel()

	want := map[Direction]int{Error: 0, Right: 1, Down: 2, Left: 3, Up: 4, Finish: 5}
	for d, v := range want {
		if int(d) != v {
			t.Errorf("%s = %d, want %d", d, int(d), v)
		}
	}
	if len(AllDirections()) != len(want) {
		t.Errorf("AllDirections() has %d entries, want %d", len(AllDirections()), len(want))
	}
}

func TestDirection_Offset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir    Direction
		dr, dc int
		step   bool
	}{
		{Right, 0, 1, true},
		{Down, 1, 0, true},
		{Left, 0, -1, true},
		{Up, -1, 0, true},
		{Error, 0, 0, false},
		{Finish, 0, 0, false},
	}

	for _, tt := range tests {
		dr, dc := tt.dir.Offset()
		if dr != tt.dr || dc != tt.dc {
			t.Errorf("%s.Offset() = (%d,%d), want (%d,%d)", tt.dir, dr, dc, tt.dr, tt.dc)
		}
		if tt.dir.IsStep() != tt.step {
			t.Errorf("%s.IsStep() = %v, want %v", tt.dir, tt.dir.IsStep(), tt.step)
		}
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for _, d := range AllDirections() {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), got, err)
		}
	}
	if got, err := ParseDirection(" down "); err != nil || got != Down {
		t.Errorf("ParseDirection(\" down \") = %v, %v", got, err)
	}
	if _, err := ParseDirection("north"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("ParseDirection(north) error = %v", err)
	}
	if Direction(42).IsValid() {
		t.Error("Direction(42).IsValid() = true")
	}
	if Direction(42).String() != "Direction(42)" {
		t.Errorf("String() = %q", Direction(42).String())
	}
}
