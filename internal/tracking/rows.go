// Export rows written by the recorder
package tracking

import (
	"os"
	"time"
)

// PositionRow is one recorded position update.
type PositionRow struct {
	EntityID   string     `json:"entity_id"`   // TAG
	EntityType EntityType `json:"entity_type"` // TAG
	Name       string     `json:"name"`        // FIELD
	Lat        float64    `json:"lat"`         // FIELD
	Lng        float64    `json:"lng"`         // FIELD
	Timestamp  time.Time  `json:"ts"`          // TIME INDEX
}

// Interpretation outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// InterpretationRow records a settled interpretation request.
type InterpretationRow struct {
	EntityID       string    `json:"entity_id"`
	Outcome        string    `json:"outcome"`
	Interpretation string    `json:"interpretation,omitempty"`
	Confidence     float64   `json:"confidence"`
	Alert          bool      `json:"alert"`
	Timestamp      time.Time `json:"ts"`
}

// PositionTableName is the GreptimeDB table for position rows. It can be
// overridden via the GREPTIMEDB_POSITION_TABLE environment variable.
var PositionTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_POSITION_TABLE"); env != "" {
		return env
	}
	return "entity_positions"
}()

// InterpretationTableName is the GreptimeDB table for interpretation rows.
var InterpretationTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_INTERPRETATION_TABLE"); env != "" {
		return env
	}
	return "anomaly_interpretations"
}()

func (PositionRow) TableName() string { return PositionTableName }

func (InterpretationRow) TableName() string { return InterpretationTableName }

// PositionRowFromEntity builds a row from the entity's current position.
func PositionRowFromEntity(e Entity) PositionRow {
	return PositionRow{
		EntityID:   e.ID,
		EntityType: e.Metadata.Type,
		Name:       e.Metadata.Name,
		Lat:        e.CurrentPosition.Lat,
		Lng:        e.CurrentPosition.Lng,
		Timestamp:  e.CurrentPosition.Time(),
	}
}

// InterpretationRowFromEvent converts a settled interpretation event into a row.
// ok is false for events that do not settle a request.
func InterpretationRowFromEvent(ev Event) (InterpretationRow, bool) {
	row := InterpretationRow{EntityID: ev.EntityID, Timestamp: ev.Timestamp.UTC()}
	switch ev.Kind {
	case EventInterpretationCompleted:
		row.Outcome = OutcomeCompleted
		if a := ev.Entity.Anomaly; a != nil {
			row.Interpretation = a.Interpretation
			row.Confidence = a.Confidence
		}
		row.Alert = ev.Entity.Alert
	case EventInterpretationFailed:
		row.Outcome = OutcomeFailed
	default:
		return InterpretationRow{}, false
	}
	return row, true
}
