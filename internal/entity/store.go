package entity

import (
	"sync"
	"time"

	"github.com/Dicklesworthstone/homedeck/internal/state"
)

// FlushInterval is the coalescing window for buffered updates. All events
// arriving within one window collapse into a single published snapshot.
const FlushInterval = 16 * time.Millisecond

// Snapshot is the immutable published view of the store. A new Snapshot is
// built on every flush; holders of an old one never observe later changes.
type Snapshot struct {
	Entities  map[string]Entity
	Problems  map[string]struct{}
	Connected bool
}

// Get looks up an entity by id in the snapshot.
func (s Snapshot) Get(id string) (Entity, bool) {
	e, ok := s.Entities[id]
	return e, ok
}

// HasProblem reports whether the entity is in the problem index.
func (s Snapshot) HasProblem(id string) bool {
	_, ok := s.Problems[id]
	return ok
}

// Store buffers incoming state changes and publishes coalesced snapshots.
// Reads always reflect the last flushed snapshot, never buffered updates.
type Store struct {
	container *state.Container[Snapshot]

	mu       sync.Mutex
	pending  map[string]Entity
	timer    *time.Timer
	interval time.Duration
}

// NewStore creates an empty, disconnected store.
func NewStore() *Store {
	return &Store{
		container: state.New(Snapshot{
			Entities: map[string]Entity{},
			Problems: map[string]struct{}{},
		}),
		pending:  map[string]Entity{},
		interval: FlushInterval,
	}
}

// Snapshot returns the last published snapshot.
func (s *Store) Snapshot() Snapshot {
	return s.container.Get()
}

// Get returns the flushed state of one entity.
func (s *Store) Get(id string) (Entity, bool) {
	return s.container.Get().Get(id)
}

// Subscribe registers a listener notified on every published snapshot.
func (s *Store) Subscribe(fn func(Snapshot)) state.UnsubscribeFunc {
	return s.container.Subscribe(fn)
}

// BulkLoad replaces the entire entity map from a full state fetch and
// recomputes the problem index from scratch. Marks the store connected.
func (s *Store) BulkLoad(entities []Entity) {
	s.mu.Lock()
	s.pending = map[string]Entity{}
	s.stopTimerLocked()
	s.mu.Unlock()

	m := make(map[string]Entity, len(entities))
	problems := make(map[string]struct{})
	for _, e := range entities {
		m[e.ID] = e
		if e.Unavailable() {
			problems[e.ID] = struct{}{}
		}
	}
	s.container.Set(Snapshot{Entities: m, Problems: problems, Connected: true})
}

// ApplyEvent buffers one state change. The write is not visible until the
// next flush; all events within one window collapse, last write per id wins.
func (s *Store) ApplyEvent(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[e.ID] = e
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.flushTimer)
	}
}

func (s *Store) flushTimer() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()
	s.Flush()
}

// Flush applies all buffered updates to a fresh snapshot and publishes it.
// Copy-on-write: the previous snapshot's maps are never touched.
func (s *Store) Flush() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.stopTimerLocked()
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = map[string]Entity{}
	s.stopTimerLocked()
	s.mu.Unlock()

	s.container.Update(func(cur Snapshot) Snapshot {
		next := Snapshot{
			Entities:  make(map[string]Entity, len(cur.Entities)+len(batch)),
			Problems:  make(map[string]struct{}, len(cur.Problems)),
			Connected: cur.Connected,
		}
		for id, e := range cur.Entities {
			next.Entities[id] = e
		}
		for id := range cur.Problems {
			next.Problems[id] = struct{}{}
		}
		for id, e := range batch {
			next.Entities[id] = e
			if e.Unavailable() {
				next.Problems[id] = struct{}{}
			} else {
				delete(next.Problems, id)
			}
		}
		return next
	})
}

// Teardown clears all state and cancels any scheduled flush. Called on
// disconnect; the published snapshot becomes empty and disconnected.
func (s *Store) Teardown() {
	s.mu.Lock()
	s.pending = map[string]Entity{}
	s.stopTimerLocked()
	s.mu.Unlock()

	s.container.Set(Snapshot{
		Entities: map[string]Entity{},
		Problems: map[string]struct{}{},
	})
}

// stopTimerLocked cancels the pending flush timer. Caller holds s.mu.
func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// setIntervalForTest shortens the coalescing window in tests.
func (s *Store) setIntervalForTest(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}
