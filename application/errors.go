package application

import "errors"

// Application errors.
var (
	// ErrInvalidInput wraps a validation failure on request data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownPolicy is returned for a field policy other than reset or preserve.
	ErrUnknownPolicy = errors.New("unknown field policy")
)
