package autosave

import (
	"context"
	"sync"
)

// LoadFunc produces the initial state from persistent storage.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// SaveFunc persists one state snapshot. The snapshot is a deep copy owned
// by the callee; in-memory mutation after the flush started can never show
// through it.
type SaveFunc[T any] func(ctx context.Context, snapshot T) error

// Container holds the authoritative in-memory value.
//
// All access goes through the container so that every logical mutation
// produces exactly one signal to the attached synchronizer. The live value
// is reachable only inside Update, which keeps reads and writes serialized.
type Container[T any] struct {
	mu     sync.RWMutex
	value  T
	loaded bool
	notify func()
}

// NewContainer creates an empty container. The value is the zero value of T
// until Load or Update runs.
func NewContainer[T any]() *Container[T] {
	return &Container[T]{}
}

// Load runs fn and replaces the value wholesale with its result.
//
// Load bypasses the debounce machinery entirely: no mutation signal is
// emitted and no save is triggered. On failure it returns a *LoadError and
// the container keeps its prior value.
func (c *Container[T]) Load(ctx context.Context, fn LoadFunc[T]) (T, error) {
	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, &LoadError{Err: err}
	}
	c.mu.Lock()
	c.value = value
	c.loaded = true
	c.mu.Unlock()
	return value, nil
}

// Update applies fn to the live value and signals exactly one mutation to
// the attached synchronizer. This is the primary write path; batch related
// field changes into one Update when they form one logical mutation.
func (c *Container[T]) Update(fn func(*T)) {
	c.mu.Lock()
	fn(&c.value)
	notify := c.notify
	c.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Snapshot returns a deep, independent copy of the current value. No future
// mutation of the live value is observable through it.
func (c *Container[T]) Snapshot() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneValue(c.value)
}

// Loaded reports whether Load has completed at least once.
func (c *Container[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// attach wires the mutation signal. Called once by the synchronizer.
func (c *Container[T]) attach(notify func()) {
	c.mu.Lock()
	c.notify = notify
	c.mu.Unlock()
}
