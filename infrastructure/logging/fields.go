package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Direction adds a direction field.
func Direction(d agent.Direction) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("direction", d.String())
	}
}

// Position adds a position field under key, formatted as "(row,col)".
func Position(key string, p grid.Position) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, p.String())
	}
}

// MoveCount adds the move counter.
func MoveCount(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("move_count", n)
	}
}

// Goals adds the number of goals in a request.
func Goals(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("goals", n)
	}
}

// Expanded adds the number of nodes a search expanded.
func Expanded(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("expanded", n)
	}
}

// Identity adds the agent identity.
func Identity(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("identity", id)
	}
}

// Algorithm adds the search algorithm selector.
func Algorithm(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("algorithm", name)
	}
}

// Backend adds the storage backend name.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Method adds an RPC method field.
func Method(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("method", name)
	}
}

// Code adds an RPC status code field.
func Code(code string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("code", code)
	}
}

// RequestID adds a request correlation ID.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an integer field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
