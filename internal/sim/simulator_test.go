package sim

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"regard/internal/tracking"
)

func seedEntity(id string, lat, lng float64) tracking.Entity {
	return tracking.Entity{
		ID:              id,
		Metadata:        tracking.Metadata{Name: id, Type: tracking.TypeDrone},
		MovementHistory: []tracking.MovementPoint{{Lat: lat, Lng: lng, Timestamp: 1000}},
	}
}

func newSeededStore(t *testing.T, seeds ...tracking.Entity) *tracking.Store {
	t.Helper()
	s, err := tracking.NewStore(seeds)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSimulator_StepDriftsOneEntity(t *testing.T) {
	store := newSeededStore(t, seedEntity("a", 48.85, 2.35), seedEntity("b", 40.71, -74.0))
	now := time.Unix(1_700_000_000, 0)
	sim := NewSimulator(store, Options{Rand: rand.New(rand.NewSource(1)), Now: func() time.Time { return now }})

	id, ok := sim.Step()
	if !ok {
		t.Fatal("expected a step on a non-empty store")
	}
	e, _ := store.Get(id)
	if len(e.MovementHistory) != 2 {
		t.Fatalf("history len = %d, want 2", len(e.MovementHistory))
	}
	prev, cur := e.MovementHistory[0], e.CurrentPosition
	if cur != e.MovementHistory[1] {
		t.Errorf("current position is not the history tail")
	}
	if cur.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", cur.Timestamp, now.UnixMilli())
	}
	if d := math.Abs(cur.Lat - prev.Lat); d > DefaultDriftStep/2 {
		t.Errorf("lat drift %v exceeds half step", d)
	}
	if d := math.Abs(cur.Lng - prev.Lng); d > DefaultDriftStep/2 {
		t.Errorf("lng drift %v exceeds half step", d)
	}

	total := 0
	for _, other := range store.Snapshot() {
		total += len(other.MovementHistory)
	}
	if total != 3 {
		t.Errorf("expected exactly one entity to move, total points = %d", total)
	}
}

func TestSimulator_EmptyStore(t *testing.T) {
	store := newSeededStore(t)
	sim := NewSimulator(store, Options{})
	if _, ok := sim.Step(); ok {
		t.Fatal("step on empty store should be a no-op")
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	store := newSeededStore(t, seedEntity("a", 0, 0))
	var updates atomic.Int32
	store.Subscribe(func(ev tracking.Event) {
		if ev.Kind == tracking.EventPositionUpdated {
			updates.Add(1)
		}
	})
	sim := NewSimulator(store, Options{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for updates.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("simulator produced no updates")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
