package tracking

import (
	"fmt"
	"sync"
	"time"
)

// Store is the single owner of the entity collection. All writes go through
// its operation set; readers receive deep copies.
//
// Mutations are serialized by emitMu so subscribers observe events in commit
// order. Subscribers may read the store but must not mutate it.
type Store struct {
	emitMu   sync.Mutex
	mu       sync.Mutex
	entities []*Entity
	index    map[string]*Entity
	subs     []subscriber
	nextSub  int
	now      func() time.Time
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewStore builds a store from seed entities. Seeds must carry unique ids and
// a non-empty history; current position is forced to the history tail and the
// alert flag is derived from any seeded anomaly.
func NewStore(seed []Entity) (*Store, error) {
	s := &Store{index: make(map[string]*Entity, len(seed)), now: time.Now}
	for _, e := range seed {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[e.ID]; dup {
			return nil, fmt.Errorf("duplicate entity id %s", e.ID)
		}
		c := e.Clone()
		c.Metadata.Tags = dedupTags(c.Metadata.Tags)
		c.CurrentPosition = c.MovementHistory[len(c.MovementHistory)-1]
		c.Alert = c.Anomaly != nil && c.Anomaly.Alerting()
		c.IsProcessingAnomaly = false
		s.entities = append(s.entities, &c)
		s.index[c.ID] = &c
	}
	return s, nil
}

// Subscribe registers fn for every applied mutation. Callbacks run after the
// store lock is released, in registration order, one event at a time. The returned func removes
// the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// ApplyPositionUpdate appends p to the entity's history and makes it the
// current position. Unknown ids are ignored and reported as false.
func (s *Store) ApplyPositionUpdate(id string, p MovementPoint) bool {
	return s.mutate(id, EventPositionUpdated, func(e *Entity) bool {
		e.MovementHistory = append(e.MovementHistory, p)
		e.CurrentPosition = p
		return true
	})
}

// BeginInterpretation opens the processing gate for id. It returns false,
// without changing anything, when the entity is unknown or already processing.
func (s *Store) BeginInterpretation(id string) bool {
	return s.mutate(id, EventInterpretationStarted, func(e *Entity) bool {
		if e.IsProcessingAnomaly {
			return false
		}
		e.IsProcessingAnomaly = true
		return true
	})
}

// CompleteInterpretation stores result, recomputes the alert flag from it and
// closes the processing gate.
func (s *Store) CompleteInterpretation(id string, result AnomalyInterpretation) {
	s.mutate(id, EventInterpretationCompleted, func(e *Entity) bool {
		r := result
		e.Anomaly = &r
		e.Alert = r.Alerting()
		e.IsProcessingAnomaly = false
		return true
	})
}

// FailInterpretation closes the processing gate and keeps any previous result.
func (s *Store) FailInterpretation(id string) {
	s.mutate(id, EventInterpretationFailed, func(e *Entity) bool {
		e.IsProcessingAnomaly = false
		return true
	})
}

// mutate applies fn under the lock and notifies subscribers when fn reports a
// change. emitMu is held until delivery finishes.
func (s *Store) mutate(id string, kind EventKind, fn func(*Entity) bool) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok || !fn(e) {
		s.mu.Unlock()
		return false
	}
	ev := Event{Kind: kind, EntityID: id, Entity: e.Clone(), Timestamp: s.now().UTC()}
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
	return true
}

// Snapshot returns deep copies of all entities in seed order.
func (s *Store) Snapshot() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = e.Clone()
	}
	return out
}

// Get returns a copy of the entity with the given id.
func (s *Store) Get(id string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[id]
	if !ok {
		return Entity{}, false
	}
	return e.Clone(), true
}

// IDs returns entity ids in seed order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.entities))
	for i, e := range s.entities {
		ids[i] = e.ID
	}
	return ids
}

// Len returns the number of tracked entities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}
