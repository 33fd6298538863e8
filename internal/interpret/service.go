// Package interpret runs anomaly interpretation requests against an external
// service and settles the outcome on the entity store.
package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"regard/internal/tracking"
)

var (
	// ErrUnknownEntity is returned when the requested id is not tracked.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrAlreadyProcessing is returned while an interpretation for the entity is in flight.
	ErrAlreadyProcessing = errors.New("interpretation already in progress")
	// ErrInvalidResponse wraps responses that are not valid interpretation JSON.
	ErrInvalidResponse = errors.New("invalid interpretation response")
	// ErrServiceUnavailable is returned when no interpretation backend is configured.
	ErrServiceUnavailable = errors.New("interpretation service unavailable")
)

// Request is the payload sent to an interpretation service. MovementData and
// Metadata carry JSON documents encoded as strings.
type Request struct {
	ID           string `json:"id"`
	MovementData string `json:"movementData"`
	Metadata     string `json:"metadata,omitempty"`
}

// Service produces an interpretation for a request.
type Service interface {
	Interpret(ctx context.Context, req Request) (tracking.AnomalyInterpretation, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (tracking.AnomalyInterpretation, error)

// Interpret calls f.
func (f ServiceFunc) Interpret(ctx context.Context, req Request) (tracking.AnomalyInterpretation, error) {
	return f(ctx, req)
}

// BuildRequest serialises an entity snapshot. When maxPoints > 0 only the
// most recent maxPoints history entries are included.
func BuildRequest(e tracking.Entity, maxPoints int) (Request, error) {
	history := e.MovementHistory
	if maxPoints > 0 && len(history) > maxPoints {
		history = history[len(history)-maxPoints:]
	}
	movement, err := json.Marshal(history)
	if err != nil {
		return Request{}, fmt.Errorf("encode movement history: %w", err)
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return Request{}, fmt.Errorf("encode metadata: %w", err)
	}
	return Request{ID: e.ID, MovementData: string(movement), Metadata: string(meta)}, nil
}

// UnavailableService fails every request. It stands in when no provider or
// credential is configured.
type UnavailableService struct {
	Reason string
}

// Interpret always returns ErrServiceUnavailable.
func (s UnavailableService) Interpret(context.Context, Request) (tracking.AnomalyInterpretation, error) {
	if s.Reason == "" {
		return tracking.AnomalyInterpretation{}, ErrServiceUnavailable
	}
	return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: %s", ErrServiceUnavailable, s.Reason)
}
