// Package grid defines the occupancy grid the agent moves on.
package grid

import (
	"fmt"
	"math"
	"strings"
)

// Cell is the content of one grid square.
type Cell uint8

// Cell values. The numeric values match the wire and storage encodings.
const (
	Free     Cell = 0
	Obstacle Cell = 1
)

// Position is a (row, col) coordinate. Row grows downwards, Col grows to the right.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns p shifted by (dr, dc).
func (p Position) Add(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// String returns "(row,col)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Grid is an immutable N x M occupancy map.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// Parse builds a grid from its row-major string form, where character
// i*cols+j describes cell (i, j): '0' is free and '1' is an obstacle.
func Parse(rows, cols int, cells string) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	// compare by division first so rows*cols cannot overflow
	if cols > len(cells)/rows || len(cells) != rows*cols {
		return Grid{}, fmt.Errorf("%w: got %d cells for %dx%d", ErrSizeMismatch, len(cells), rows, cols)
	}

	g := Grid{rows: rows, cols: cols, cells: make([]Cell, len(cells))}
	for i := 0; i < len(cells); i++ {
		switch cells[i] {
		case '0':
			g.cells[i] = Free
		case '1':
			g.cells[i] = Obstacle
		default:
			return Grid{}, fmt.Errorf("%w: %q at index %d", ErrInvalidCell, cells[i], i)
		}
	}
	return g, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(rows, cols int, cells string) Grid {
	g, err := Parse(rows, cols, cells)
	if err != nil {
		panic(err)
	}
	return g
}

// FromRows builds a grid from a 2D array of cell values.
func FromRows(data [][]int) (Grid, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return Grid{}, fmt.Errorf("%w: empty", ErrInvalidDimensions)
	}
	rows, cols := len(data), len(data[0])
	g := Grid{rows: rows, cols: cols, cells: make([]Cell, 0, rows*cols)}
	for i, row := range data {
		if len(row) != cols {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRagged, i, len(row), cols)
		}
		for j, v := range row {
			if v != int(Free) && v != int(Obstacle) {
				return Grid{}, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidCell, v, i, j)
			}
			g.cells = append(g.cells, Cell(v))
		}
	}
	return g, nil
}

// Empty returns an obstacle-free grid of the given size.
func Empty(rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 || cols > math.MaxInt/rows {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}, nil
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g Grid) Cols() int { return g.cols }

// IsZero reports whether g is the zero Grid.
func (g Grid) IsZero() bool { return g.rows == 0 && g.cols == 0 }

// InBounds reports whether p lies inside the grid.
func (g Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell at p. It panics if p is out of bounds.
func (g Grid) At(p Position) Cell {
	return g.cells[p.Row*g.cols+p.Col]
}

// IsFree reports whether p is in bounds and not an obstacle.
func (g Grid) IsFree(p Position) bool {
	return g.InBounds(p) && g.At(p) == Free
}

// Check returns an error if p is outside the grid.
func (g Grid) Check(p Position) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s in %dx%d grid", ErrOutOfBounds, p, g.rows, g.cols)
	}
	return nil
}

// CheckFree returns an error if p is outside the grid or sits on an obstacle.
func (g Grid) CheckFree(p Position) error {
	if err := g.Check(p); err != nil {
		return err
	}
	if g.At(p) == Obstacle {
		return fmt.Errorf("%w: %s", ErrBlocked, p)
	}
	return nil
}

// ToRows returns the grid as a freshly allocated 2D array.
func (g Grid) ToRows() [][]int {
	out := make([][]int, g.rows)
	for i := range out {
		row := make([]int, g.cols)
		for j := range row {
			row[j] = int(g.cells[i*g.cols+j])
		}
		out[i] = row
	}
	return out
}

// String returns the row-major wire form accepted by Parse.
func (g Grid) String() string {
	var b strings.Builder
	b.Grow(len(g.cells))
	for _, c := range g.cells {
		b.WriteByte('0' + byte(c))
	}
	return b.String()
}

// Equal reports whether two grids have the same shape and cells.
func (g Grid) Equal(other Grid) bool {
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
