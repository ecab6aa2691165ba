package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	EntityIncome  = "income"
	EntityExpense = "expense"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent announces a committed change to a bookkeeping row. Snapshot holds
// the row as it was after the change, or before it for deletions.
type RecordEvent struct {
	Entity    string          `json:"entity"`
	Action    string          `json:"action"`
	ID        int64           `json:"id"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordEvent builds an event, marshaling row as its snapshot.
func NewRecordEvent(entity, action string, id int64, row any) (*RecordEvent, error) {
	ev := &RecordEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
	if row != nil {
		snap, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		ev.Snapshot = snap
	}
	return ev, nil
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and checks a message body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (e *RecordEvent) validate() error {
	switch e.Entity {
	case EntityIncome, EntityExpense:
	default:
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated:
	case ActionDeleted:
		if len(e.Snapshot) == 0 {
			return errors.New("deleted event without snapshot")
		}
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID <= 0 {
		return fmt.Errorf("invalid id %d", e.ID)
	}
	return nil
}
