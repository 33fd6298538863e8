package tracking

import "time"

// EventKind names a store mutation.
type EventKind string

const (
	EventPositionUpdated         EventKind = "position_updated"
	EventInterpretationStarted   EventKind = "interpretation_started"
	EventInterpretationCompleted EventKind = "interpretation_completed"
	EventInterpretationFailed    EventKind = "interpretation_failed"
)

// Event is emitted once per applied store mutation. Entity is a snapshot taken
// right after the write.
type Event struct {
	Kind      EventKind `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Entity    Entity    `json:"entity"`
	Timestamp time.Time `json:"ts"`
}
