// Simulator drifting tracked entity positions
package sim

import (
	"math/rand"
	"sync"
	"time"

	"regard/internal/tracking"
)

const (
	// DefaultTickInterval is the time between two position updates.
	DefaultTickInterval = 5 * time.Second
	// DefaultDriftStep is the full width, in degrees, of the uniform jitter
	// applied to latitude and longitude on every update.
	DefaultDriftStep = 0.001
)

// Options tunes a Simulator. Zero values select the defaults; Rand and Now
// are injectable for deterministic tests.
type Options struct {
	TickInterval time.Duration
	DriftStep    float64
	Rand         *rand.Rand
	Now          func() time.Time
}

// Simulator moves one randomly chosen entity per tick.
type Simulator struct {
	store        *tracking.Store
	tickInterval time.Duration
	driftStep    float64
	rand         *rand.Rand
	now          func() time.Time
	mu           sync.Mutex
}

// NewSimulator creates a simulator mutating store.
func NewSimulator(store *tracking.Store, opts Options) *Simulator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.DriftStep <= 0 {
		opts.DriftStep = DefaultDriftStep
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Simulator{
		store:        store,
		tickInterval: opts.TickInterval,
		driftStep:    opts.DriftStep,
		rand:         opts.Rand,
		now:          opts.Now,
	}
}

// TickInterval returns the configured interval.
func (s *Simulator) TickInterval() time.Duration { return s.tickInterval }

// Step applies a single drift update and returns the id of the moved entity.
// ok is false when the store is empty.
func (s *Simulator) Step() (id string, ok bool) {
	ids := s.store.IDs()
	if len(ids) == 0 {
		return "", false
	}

	s.mu.Lock()
	id = ids[s.rand.Intn(len(ids))]
	dLat := (s.rand.Float64() - 0.5) * s.driftStep
	dLng := (s.rand.Float64() - 0.5) * s.driftStep
	now := s.now()
	s.mu.Unlock()

	e, found := s.store.Get(id)
	if !found {
		return "", false
	}
	p := tracking.NewMovementPoint(e.CurrentPosition.Lat+dLat, e.CurrentPosition.Lng+dLng, now)
	return id, s.store.ApplyPositionUpdate(id, p)
}
