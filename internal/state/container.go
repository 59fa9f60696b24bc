// Package state provides a small observable snapshot container.
//
// A Container holds one immutable snapshot of type T. Writers replace the
// snapshot wholesale (copy-on-write); readers always see a complete,
// consistent value. Listeners are notified synchronously after every
// replacement. Consumers must never mutate a snapshot they read — derive a
// new value and Set it instead.
package state

import "sync"

// Listener is invoked with the new snapshot after every update.
type Listener[T any] func(T)

// UnsubscribeFunc removes a previously registered listener.
type UnsubscribeFunc func()

// listenerEntry pairs a listener with a unique id for safe removal.
type listenerEntry[T any] struct {
	id uint64
	fn Listener[T]
}

// Container is a thread-safe observable holder of an immutable snapshot.
type Container[T any] struct {
	mu        sync.RWMutex
	snapshot  T
	listeners []listenerEntry[T]
	nextID    uint64
}

// New creates a Container seeded with the given initial snapshot.
func New[T any](initial T) *Container[T] {
	return &Container[T]{snapshot: initial}
}

// Get returns the current snapshot.
func (c *Container[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Set replaces the snapshot and notifies all listeners synchronously.
func (c *Container[T]) Set(next T) {
	c.mu.Lock()
	c.snapshot = next
	// Copy the listener slice so notification runs without the lock held.
	entries := make([]listenerEntry[T], len(c.listeners))
	copy(entries, c.listeners)
	c.mu.Unlock()

	for _, e := range entries {
		e.fn(next)
	}
}

// Update applies fn to the current snapshot and stores its result.
// fn must not mutate its argument; it returns a fresh value.
func (c *Container[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	next := fn(c.snapshot)
	c.snapshot = next
	entries := make([]listenerEntry[T], len(c.listeners))
	copy(entries, c.listeners)
	c.mu.Unlock()

	for _, e := range entries {
		e.fn(next)
	}
	return next
}

// Subscribe registers a listener and returns an unsubscribe function.
func (c *Container[T]) Subscribe(fn Listener[T]) UnsubscribeFunc {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry[T]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.listeners {
			if e.id == id {
				c.listeners[i] = c.listeners[len(c.listeners)-1]
				c.listeners = c.listeners[:len(c.listeners)-1]
				return
			}
		}
	}
}

// ListenerCount reports the number of registered listeners.
func (c *Container[T]) ListenerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners)
}
