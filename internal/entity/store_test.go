package entity

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDomainOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		id   string
		want string
	}{
		{"light.kitchen", "light"},
		{"sensor.outdoor_temp", "sensor"},
		{"climate.living_room.zone", "climate"},
		{"nodot", "nodot"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DomainOf(tc.id); got != tc.want {
			t.Errorf("DomainOf(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestEntity_FriendlyName(t *testing.T) {
	t.Parallel()

	e := Entity{ID: "light.kitchen", Attributes: map[string]any{"friendly_name": "Kitchen Light"}}
	if got := e.FriendlyName(); got != "Kitchen Light" {
		t.Errorf("FriendlyName() = %q, want %q", got, "Kitchen Light")
	}

	e = Entity{ID: "light.kitchen"}
	if got := e.FriendlyName(); got != "light.kitchen" {
		t.Errorf("FriendlyName() fallback = %q, want id", got)
	}
}

func TestStore_BulkLoadProblemIndex(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.BulkLoad([]Entity{
		{ID: "light.a", State: "on"},
		{ID: "light.b", State: StateUnavailable},
		{ID: "sensor.c", State: StateUnknown},
	})

	snap := s.Snapshot()
	if !snap.Connected {
		t.Error("Connected = false after BulkLoad")
	}
	if len(snap.Entities) != 3 {
		t.Fatalf("got %d entities, want 3", len(snap.Entities))
	}
	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"light.a", false},
		{"light.b", true},
		{"sensor.c", true},
	} {
		if got := snap.HasProblem(tc.id); got != tc.want {
			t.Errorf("HasProblem(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestStore_ApplyEventNotVisibleUntilFlush(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(time.Hour) // never fires on its own
	s.BulkLoad([]Entity{{ID: "light.a", State: "off"}})

	s.ApplyEvent(Entity{ID: "light.a", State: "on"})

	if e, _ := s.Get("light.a"); e.State != "off" {
		t.Errorf("buffered update visible before flush: state = %q", e.State)
	}

	s.Flush()
	if e, _ := s.Get("light.a"); e.State != "on" {
		t.Errorf("state after flush = %q, want on", e.State)
	}
}

func TestStore_LastWriteWinsWithinWindow(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(time.Hour)
	s.BulkLoad(nil)

	var notifies atomic.Int32
	s.Subscribe(func(Snapshot) { notifies.Add(1) })

	s.ApplyEvent(Entity{ID: "light.a", State: "on"})
	s.ApplyEvent(Entity{ID: "light.a", State: "off"})
	s.ApplyEvent(Entity{ID: "light.a", State: StateUnavailable})
	s.Flush()

	e, ok := s.Get("light.a")
	if !ok || e.State != StateUnavailable {
		t.Errorf("state = %q, want unavailable", e.State)
	}
	if !s.Snapshot().HasProblem("light.a") {
		t.Error("problem index missing entity that flushed unavailable")
	}
	if got := notifies.Load(); got != 1 {
		t.Errorf("store published %d times for one window, want 1", got)
	}
}

func TestStore_ProblemClearedOnRecovery(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(time.Hour)
	s.BulkLoad([]Entity{{ID: "light.a", State: StateUnavailable}})

	s.ApplyEvent(Entity{ID: "light.a", State: "on"})
	s.Flush()

	if s.Snapshot().HasProblem("light.a") {
		t.Error("problem index stale after entity recovered")
	}
}

func TestStore_CopyOnWrite(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(time.Hour)
	s.BulkLoad([]Entity{{ID: "light.a", State: "on"}})

	before := s.Snapshot()
	s.ApplyEvent(Entity{ID: "light.b", State: StateUnknown})
	s.Flush()

	if _, ok := before.Entities["light.b"]; ok {
		t.Error("old snapshot mutated by flush")
	}
	if before.HasProblem("light.b") {
		t.Error("old problem set mutated by flush")
	}
}

func TestStore_TimerCoalesces(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(20 * time.Millisecond)
	s.BulkLoad(nil)

	done := make(chan struct{})
	var notifies atomic.Int32
	s.Subscribe(func(snap Snapshot) {
		if notifies.Add(1) == 1 {
			close(done)
		}
	})

	for i := 0; i < 10; i++ {
		s.ApplyEvent(Entity{ID: "sensor.x", State: "42"})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled flush never fired")
	}
	if e, _ := s.Get("sensor.x"); e.State != "42" {
		t.Errorf("state = %q, want 42", e.State)
	}
}

func TestStore_Teardown(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.setIntervalForTest(time.Hour)
	s.BulkLoad([]Entity{{ID: "light.a", State: StateUnavailable}})
	s.ApplyEvent(Entity{ID: "light.b", State: "on"})

	s.Teardown()

	snap := s.Snapshot()
	if snap.Connected {
		t.Error("Connected = true after Teardown")
	}
	if len(snap.Entities) != 0 || len(snap.Problems) != 0 {
		t.Errorf("state not cleared: %d entities, %d problems", len(snap.Entities), len(snap.Problems))
	}

	// A flush after teardown must not resurrect buffered updates.
	s.Flush()
	if len(s.Snapshot().Entities) != 0 {
		t.Error("buffered update survived Teardown")
	}
}
