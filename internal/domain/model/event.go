// Package model contains the ranklist document and the values passed between
// the regeneration stages.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/okian/ranklist/pkg/duration"
)

// Event is one submission fact addressed to a scoreboard cell. It is the unit the
// scoring reducer consumes. On the wire it is the tetrad
// [userId, problemIndex, result, [value, unit]].
type Event struct {
	UserID       string
	ProblemIndex int
	Result       Result
	Time         duration.TimeDuration
}

// MarshalJSON writes the tetrad form.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{e.UserID, e.ProblemIndex, e.Result, e.Time})
}

// UnmarshalJSON reads the tetrad form.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("solution tetrad: want 4 elements, got %d", len(raw))
	}
	var out Event
	if err := json.Unmarshal(raw[0], &out.UserID); err != nil {
		return fmt.Errorf("solution tetrad user id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.ProblemIndex); err != nil {
		return fmt.Errorf("solution tetrad problem index: %w", err)
	}
	if err := json.Unmarshal(raw[2], &out.Result); err != nil {
		return fmt.Errorf("solution tetrad result: %w", err)
	}
	if err := json.Unmarshal(raw[3], &out.Time); err != nil {
		return fmt.Errorf("solution tetrad time: %w", err)
	}
	*e = out
	return nil
}
