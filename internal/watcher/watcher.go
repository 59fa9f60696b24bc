package watcher

import (
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when operations run on a closed Watcher.
var ErrClosed = errors.New("watcher: watcher is closed")

// Event is one file system change.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Handler receives debounced batches of events. Rapid bursts (an editor
// writing a temp file then renaming, say) collapse into one call.
type Handler func(events []Event)

// Watcher watches files for changes and delivers debounced batches.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	handler   Handler

	mu      sync.Mutex
	pending []Event
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration overrides the debounce window.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debouncer = NewDebouncer(d)
	}
}

// New creates a Watcher delivering events to handler.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:        fs,
		debouncer: NewDebouncer(DefaultDebounceDuration),
		handler:   handler,
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Add starts watching a file or directory.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return w.fs.Add(path)
}

// Close stops watching and cancels pending deliveries.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.debouncer.Cancel()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			w.pending = append(w.pending, Event{Path: ev.Name, Op: ev.Op})
			w.mu.Unlock()
			w.debouncer.Trigger(w.flush)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watch errors are transient; keep the loop alive.
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = nil
	closed := w.closed
	w.mu.Unlock()

	if closed || len(events) == 0 {
		return
	}
	w.handler(events)
}
