package timer

import "sync"

// Cell holds a value shared between the tick and the main loop.
// Get, Set and Update hold the lock only for the copy, never across I/O.
type Cell[T any] struct {
	mu sync.Mutex
	v  T
}

// Get returns a copy of the value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	v := c.v
	c.mu.Unlock()
	return v
}

// Set replaces the value.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Update applies fn to the value under the lock.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	fn(&c.v)
	c.mu.Unlock()
}
