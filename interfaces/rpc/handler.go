package rpc

import (
	"context"

	"github.com/felixgeelhaar/pathfinder/application"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Handler serves the PathFinder service from a Navigator.
type Handler struct {
	nav *application.Navigator
}

// NewHandler creates a handler for nav.
func NewHandler(nav *application.Navigator) *Handler {
	return &Handler{nav: nav}
}

var _ PathFinderServer = (*Handler)(nil)

// SetField stores a new field for the agent.
func (h *Handler) SetField(ctx context.Context, in *Field) (*Empty, error) {
	_, err := h.nav.SetField(ctx, application.FieldRequest{
		Rows:   in.N,
		Cols:   in.M,
		Cells:  in.Grid,
		Source: in.Source.Position(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// Moving returns the next direction toward the nearest target.
func (h *Handler) Moving(ctx context.Context, in *MoveRequest) (*MoveResponse, error) {
	targets := make([]grid.Position, 0, len(in.Targets))
	for _, c := range in.Targets {
		targets = append(targets, c.Position())
	}

	d, err := h.nav.Move(ctx, targets)
	if err != nil {
		return nil, toStatus(err)
	}
	return &MoveResponse{Direction: d}, nil
}

// GetState returns the stored agent state.
func (h *Handler) GetState(ctx context.Context, _ *Empty) (*StateResponse, error) {
	st, err := h.nav.State(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return stateResponse(st), nil
}
