package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// stateRecord is the stored form of State.
type stateRecord struct {
	Grid      [][]int       `json:"grid"`
	Current   [2]int        `json:"current"`
	MoveCount int           `json:"move_count"`
	MoveLog   []eventRecord `json:"move_log"`
}

type eventRecord struct {
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// Marshal encodes s for storage.
func Marshal(s *State) ([]byte, error) {
	rec := stateRecord{
		Grid:      s.Grid.ToRows(),
		Current:   [2]int{s.Current.Row, s.Current.Col},
		MoveCount: s.MoveCount,
		MoveLog:   make([]eventRecord, 0, len(s.MoveLog)),
	}
	for _, e := range s.MoveLog {
		rec.MoveLog = append(rec.MoveLog, eventRecord{
			Count:     e.Count,
			Timestamp: e.When.UTC().Format(time.RFC3339Nano),
		})
	}
	return json.Marshal(rec)
}

// Unmarshal decodes a stored state and checks its invariants.
func Unmarshal(data []byte) (*State, error) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	g, err := grid.FromRows(rec.Grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	s := &State{
		Grid:      g,
		Current:   grid.Pos(rec.Current[0], rec.Current[1]),
		MoveCount: rec.MoveCount,
	}
	if len(rec.MoveLog) > 0 {
		s.MoveLog = make([]MoveEvent, 0, len(rec.MoveLog))
	}
	for _, e := range rec.MoveLog {
		when, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: move_log timestamp: %w", ErrCorruptState, err)
		}
		s.MoveLog = append(s.MoveLog, MoveEvent{Count: e.Count, When: when})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
