package grid

import "errors"

// Domain errors for grid construction and validation.
var (
	// ErrInvalidDimensions is returned when rows or cols are not positive.
	ErrInvalidDimensions = errors.New("invalid grid dimensions")

	// ErrSizeMismatch is returned when the cell string length is not rows*cols.
	ErrSizeMismatch = errors.New("grid size mismatch")

	// ErrInvalidCell is returned for a cell value other than free or obstacle.
	ErrInvalidCell = errors.New("invalid grid cell")

	// ErrOutOfBounds is returned when a position lies outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrBlocked is returned when a position sits on an obstacle.
	ErrBlocked = errors.New("position is blocked")

	// ErrRagged is returned when the rows of a 2D grid differ in length.
	ErrRagged = errors.New("grid rows differ in length")
)
