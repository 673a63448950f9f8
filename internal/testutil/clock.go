package testutil

import (
	"sync"
	"time"
)

// FrozenClock is a thread-safe wall clock pinned to a fixed instant.
//
// Unlike store.SystemClock, FrozenClock only moves when told to, so
// records written through it are byte-identical across test runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FrozenClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFrozenClock creates a clock pinned to the given instant.
func NewFrozenClock(now time.Time) *FrozenClock {
	return &FrozenClock{now: now}
}

// Now returns the pinned instant.
//
// Implements the store.Clock interface.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
//
// Tests use it to order records that sort on their timestamp.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
