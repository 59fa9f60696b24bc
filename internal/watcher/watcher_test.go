package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDebouncer(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDebouncer(50 * time.Millisecond)
	d.Trigger(func() { calls.Add(1) })
	d.Cancel()

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("cancelled callback ran %d times", got)
	}
}

func TestWatcher_DeliversDebouncedBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan []Event, 4)
	w, err := New(func(events []Event) { got <- events }, WithDebounceDuration(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case events := <-got:
		if len(events) == 0 {
			t.Error("empty event batch delivered")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no events delivered")
	}
}

func TestWatcher_AddAfterClose(t *testing.T) {
	t.Parallel()

	w, err := New(func([]Event) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Close()

	if err := w.Add(t.TempDir()); err != ErrClosed {
		t.Errorf("Add after Close = %v, want ErrClosed", err)
	}
}
