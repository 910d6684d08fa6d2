package rpc

import (
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Cell is a grid coordinate: I is the row and J the column.
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Position converts c to a grid position.
func (c Cell) Position() grid.Position {
	return grid.Pos(c.I, c.J)
}

// CellOf converts a grid position to its wire form.
func CellOf(p grid.Position) Cell {
	return Cell{I: p.Row, J: p.Col}
}

// Field sets the grid and the agent's start cell. Grid holds N*M
// characters, '0' free and '1' obstacle, in row-major order.
type Field struct {
	N      int    `json:"N"`
	M      int    `json:"M"`
	Grid   string `json:"grid"`
	Source Cell   `json:"source"`
}

// MoveRequest asks for the next step toward the nearest target.
type MoveRequest struct {
	Targets []Cell `json:"targets"`
}

// MoveResponse carries the direction as its wire value.
type MoveResponse struct {
	Direction agent.Direction `json:"direction"`
}

// Empty is the empty message.
type Empty struct{}

// MoveEvent is an arrival record.
type MoveEvent struct {
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// StateResponse is a snapshot of the stored agent state.
type StateResponse struct {
	N         int         `json:"N"`
	M         int         `json:"M"`
	Grid      string      `json:"grid"`
	Current   Cell        `json:"current"`
	MoveCount int         `json:"move_count"`
	MoveLog   []MoveEvent `json:"move_log"`
}

func stateResponse(st *agent.State) *StateResponse {
	resp := &StateResponse{
		N:         st.Grid.Rows(),
		M:         st.Grid.Cols(),
		Grid:      st.Grid.String(),
		Current:   CellOf(st.Current),
		MoveCount: st.MoveCount,
		MoveLog:   make([]MoveEvent, 0, len(st.MoveLog)),
	}
	for _, e := range st.MoveLog {
		resp.MoveLog = append(resp.MoveLog, MoveEvent{
			Count:     e.Count,
			Timestamp: e.When.UTC().Format(time.RFC3339Nano),
		})
	}
	return resp
}
