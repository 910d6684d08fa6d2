package heuristic

import (
	"errors"
	"math"
	"testing"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	a, b := grid.Pos(0, 0), grid.Pos(3, 4)

	tests := []struct {
		mode Mode
		want float64
	}{
		{Manhattan, 7},
		{Euclidean, 5},
		{Diagonal, 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			got, err := Distance(a, b, tt.mode)
			if err != nil {
				t.Fatalf("Distance() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}

			// symmetric
			back, _ := Distance(b, a, tt.mode)
			if back != got {
				t.Errorf("Distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestDistance_SamePointIsZero(t *testing.T) {
	t.Parallel()

	for _, m := range Modes() {
		d, err := Distance(grid.Pos(2, 2), grid.Pos(2, 2), m)
		if err != nil || d != 0 {
			t.Errorf("Distance(%s) = %v, %v; want 0, nil", m, d, err)
		}
	}
}

func TestDistance_InvalidMode(t *testing.T) {
	t.Parallel()

	_, err := Distance(grid.Pos(0, 0), grid.Pos(1, 1), Mode("octile"))
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("error = %v, want ErrInvalidMode", err)
	}
}

func TestEstimate_MinimumOverGoals(t *testing.T) {
	t.Parallel()

	goals := []grid.Position{grid.Pos(9, 9), grid.Pos(1, 2), grid.Pos(5, 0)}

	got, err := Estimate(grid.Pos(0, 0), goals, Manhattan)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if got != 3 {
		t.Errorf("Estimate() = %v, want 3", got)
	}
}

func TestEstimate_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Estimate(grid.Pos(0, 0), nil, Manhattan); !errors.Is(err, ErrNoGoals) {
		t.Errorf("empty goals error = %v, want ErrNoGoals", err)
	}
	if _, err := Estimate(grid.Pos(0, 0), []grid.Position{grid.Pos(1, 1)}, "bogus"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("bad mode error = %v, want ErrInvalidMode", err)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("Manhattan"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ParseMode is case sensitive, got err = %v", err)
	}
	if Mode("").Valid() {
		t.Error("empty mode reported valid")
	}
}

func TestOrderingBetweenModes(t *testing.T) {
	t.Parallel()

	// diagonal <= euclidean <= manhattan for any pair of points
	for r := -4; r <= 4; r++ {
		for c := -4; c <= 4; c++ {
			p := grid.Pos(r, c)
			d, _ := Distance(grid.Pos(0, 0), p, Diagonal)
			e, _ := Distance(grid.Pos(0, 0), p, Euclidean)
			m, _ := Distance(grid.Pos(0, 0), p, Manhattan)
			if d > e+1e-9 || e > m+1e-9 {
				t.Errorf("at %s: diagonal=%v euclidean=%v manhattan=%v", p, d, e, m)
			}
		}
	}
}
