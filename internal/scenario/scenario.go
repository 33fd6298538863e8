package scenario

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"regard/internal/tracking"
)

// pointSpacing is the gap between generated history points.
const pointSpacing = time.Minute

// Scenario defines the entities a store starts with.
type Scenario struct {
	Name        string       `yaml:"name,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Entities    []EntitySeed `yaml:"entities"`
}

// EntitySeed describes one entity and how to generate its history.
type EntitySeed struct {
	ID            string                          `yaml:"id"`
	Name          string                          `yaml:"name"`
	Type          tracking.EntityType             `yaml:"type"`
	Tags          []string                        `yaml:"tags,omitempty"`
	Origin        Coordinate                      `yaml:"origin"`
	HistoryPoints int                             `yaml:"history_points"`
	Drift         float64                         `yaml:"drift"`
	Jump          *Jump                           `yaml:"jump,omitempty"`
	Anomaly       *tracking.AnomalyInterpretation `yaml:"anomaly,omitempty"`
}

// Coordinate is a lat/lng pair.
type Coordinate struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Jump appends a second path segment starting at a distant origin.
type Jump struct {
	To     Coordinate `yaml:"to"`
	Points int        `yaml:"points"`
	Drift  float64    `yaml:"drift"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Entities) == 0 {
		return nil, fmt.Errorf("scenario %q defines no entities", s.Name)
	}
	for _, seed := range s.Entities {
		if seed.Anomaly == nil {
			continue
		}
		if err := seed.Anomaly.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q entity %s: %w", s.Name, seed.ID, err)
		}
	}
	return &s, nil
}

// Build generates entities with random-walk histories ending before now.
func (s *Scenario) Build(now time.Time, rng *rand.Rand) []tracking.Entity {
	out := make([]tracking.Entity, 0, len(s.Entities))
	for _, seed := range s.Entities {
		out = append(out, seed.build(now, rng))
	}
	return out
}

func (seed EntitySeed) build(now time.Time, rng *rand.Rand) tracking.Entity {
	n := seed.HistoryPoints
	if n < 1 {
		n = 1
	}
	total := n
	if seed.Jump != nil && seed.Jump.Points > 0 {
		total += seed.Jump.Points
	}
	start := now.Add(-time.Duration(total) * pointSpacing)
	history := generatePath(seed.Origin, n, seed.Drift, start, rng)
	if seed.Jump != nil && seed.Jump.Points > 0 {
		jumpStart := start.Add(time.Duration(n) * pointSpacing)
		history = append(history, generatePath(seed.Jump.To, seed.Jump.Points, seed.Jump.Drift, jumpStart, rng)...)
	}
	e := tracking.Entity{
		ID: seed.ID,
		Metadata: tracking.Metadata{
			Name: seed.Name,
			Type: seed.Type,
			Tags: append([]string{}, seed.Tags...),
		},
		MovementHistory: history,
		CurrentPosition: history[len(history)-1],
	}
	if seed.Anomaly != nil {
		a := *seed.Anomaly
		e.Anomaly = &a
		e.Alert = a.Alerting()
	}
	return e
}

// generatePath random-walks n points from origin, one pointSpacing apart.
func generatePath(origin Coordinate, n int, drift float64, start time.Time, rng *rand.Rand) []tracking.MovementPoint {
	path := make([]tracking.MovementPoint, 0, n)
	lat, lng := origin.Lat, origin.Lng
	for i := 0; i < n; i++ {
		lat += (rng.Float64() - 0.5) * drift
		lng += (rng.Float64() - 0.5) * drift
		path = append(path, tracking.NewMovementPoint(lat, lng, start.Add(time.Duration(i)*pointSpacing)))
	}
	return path
}
