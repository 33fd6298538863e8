// Tracked entity model shared by the store, simulator and presentation layers
package tracking

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// AlertThreshold is the confidence above which an interpretation raises an alert.
const AlertThreshold = 0.8

// AllTags is the tag vocabulary offered as filter toggles.
var AllTags = []string{"critical", "asset", "high-velocity", "restricted-zone"}

// EntityType classifies a tracked entity.
type EntityType string

const (
	TypeDrone   EntityType = "drone"
	TypeVehicle EntityType = "vehicle"
	TypePerson  EntityType = "person"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case TypeDrone, TypeVehicle, TypePerson:
		return true
	}
	return false
}

// MovementPoint is one recorded position. Timestamp is in Unix milliseconds.
type MovementPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// NewMovementPoint builds a point stamped with t.
func NewMovementPoint(lat, lng float64, t time.Time) MovementPoint {
	return MovementPoint{Lat: lat, Lng: lng, Timestamp: t.UnixMilli()}
}

// Time returns the point timestamp as a time.Time in UTC.
func (p MovementPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// Metadata describes an entity. It is not mutated at runtime.
type Metadata struct {
	Name string     `json:"name"`
	Type EntityType `json:"type"`
	Tags []string   `json:"tags"`
}

// HasTags reports whether every tag in want is present.
func (m Metadata) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range m.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AnomalyInterpretation is the verdict returned by the interpretation service.
type AnomalyInterpretation struct {
	Interpretation string  `json:"interpretation"`
	Confidence     float64 `json:"confidence"`
}

// Validate checks that the interpretation text is not blank and confidence
// lies in [0,1]. NaN is rejected.
func (a AnomalyInterpretation) Validate() error {
	if strings.TrimSpace(a.Interpretation) == "" {
		return fmt.Errorf("interpretation must not be empty")
	}
	if math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", a.Confidence)
	}
	return nil
}

// Alerting reports whether the interpretation crosses AlertThreshold.
func (a AnomalyInterpretation) Alerting() bool {
	return a.Confidence > AlertThreshold
}

// Entity is a tracked numerical ID.
type Entity struct {
	ID                  string                 `json:"id"`
	Metadata            Metadata               `json:"metadata"`
	MovementHistory     []MovementPoint        `json:"movementHistory"`
	CurrentPosition     MovementPoint          `json:"currentPosition"`
	Anomaly             *AnomalyInterpretation `json:"anomaly,omitempty"`
	Alert               bool                   `json:"alert"`
	IsProcessingAnomaly bool                   `json:"isProcessingAnomaly"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (e Entity) Clone() Entity {
	c := e
	c.MovementHistory = append([]MovementPoint(nil), e.MovementHistory...)
	c.Metadata.Tags = append([]string(nil), e.Metadata.Tags...)
	if e.Anomaly != nil {
		a := *e.Anomaly
		c.Anomaly = &a
	}
	return c
}

// validate checks a seed entity before it enters the store.
func (e Entity) validate() error {
	if e.ID == "" {
		return fmt.Errorf("entity id must not be empty")
	}
	if len(e.MovementHistory) == 0 {
		return fmt.Errorf("entity %s: movement history must not be empty", e.ID)
	}
	if !e.Metadata.Type.Valid() {
		return fmt.Errorf("entity %s: unknown type %q", e.ID, e.Metadata.Type)
	}
	if e.Anomaly != nil {
		if err := e.Anomaly.Validate(); err != nil {
			return fmt.Errorf("entity %s: %w", e.ID, err)
		}
	}
	return nil
}

// dedupTags removes repeated tags while keeping first-seen order.
func dedupTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
