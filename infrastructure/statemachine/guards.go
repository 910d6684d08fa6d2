package statemachine

import "github.com/felixgeelhaar/statekit"

// guardHasStep admits PATH_FOUND only when there is a first step to take.
// Guards receive the context by value; our context is *Resolution.
func guardHasStep(ctx *Resolution, _ statekit.Event) bool {
	return ctx != nil && len(ctx.Path) > 0
}
