package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// Actions receive a pointer to the machine context, so with a *Resolution
// context they get **Resolution.

func finish(ctx **Resolution, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Direction = agent.Finish
}

func step(ctx **Resolution, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	r := *ctx
	d := directionTo(r.Current, r.Path[0])
	if d == agent.Error {
		r.Reason = "unknown direction"
		logging.Warn().
			Add(logging.Component("resolver")).
			Add(logging.Position("current", r.Current)).
			Add(logging.Position("next", r.Path[0])).
			Msg("unknown direction")
	}
	r.Direction = d
}

func rejectUnreachable(ctx **Resolution, _ statekit.Event) {
	reject(ctx, "unreachable")
}

func rejectInPlace(ctx **Resolution, _ statekit.Event) {
	reject(ctx, "already in place")
}

func rejectFailed(ctx **Resolution, e statekit.Event) {
	if err, ok := e.Payload.(error); ok && ctx != nil && *ctx != nil {
		logging.Error().
			Add(logging.Component("resolver")).
			Add(logging.ErrorField(err)).
			Msg("search failed")
	}
	reject(ctx, "search failed")
}

func reject(ctx **Resolution, reason string) {
	if ctx == nil || *ctx == nil {
		return
	}
	r := *ctx
	r.Direction = agent.Error
	r.Reason = reason
	logging.Warn().
		Add(logging.Component("resolver")).
		Add(logging.Position("current", r.Current)).
		Msg(reason)
}

// directionTo compares the first path step with the current position.
func directionTo(current, next grid.Position) agent.Direction {
	switch {
	case next.Row > current.Row:
		return agent.Down
	case next.Row < current.Row:
		return agent.Up
	case next.Col > current.Col:
		return agent.Right
	case next.Col < current.Col:
		return agent.Left
	}
	return agent.Error
}
