package store

import "errors"

// Domain errors for backend operations.
var (
	// ErrInvalidKey is returned when a key is invalid (e.g., empty).
	ErrInvalidKey = errors.New("invalid store key")

	// ErrConnectionFailed is returned when connection to the backend fails.
	ErrConnectionFailed = errors.New("store connection failed")

	// ErrOperationTimeout is returned when a backend operation times out.
	ErrOperationTimeout = errors.New("store operation timeout")

	// ErrClosed is returned when the backend has been closed.
	ErrClosed = errors.New("store closed")

	// ErrUnavailable is returned when the backend is temporarily refusing
	// calls, for example while a circuit breaker is open.
	ErrUnavailable = errors.New("store unavailable")
)
