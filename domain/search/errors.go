package search

import "errors"

var (
	// ErrInvalidStart is returned when the start position lies outside the grid.
	ErrInvalidStart = errors.New("invalid start position")

	// ErrUnknownAlgorithm is returned when an algorithm selector cannot be parsed.
	ErrUnknownAlgorithm = errors.New("unknown search algorithm")
)
