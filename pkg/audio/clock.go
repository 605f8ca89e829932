package audio

import (
	"sync"
	"time"
)

// Clock reports the current position of an output clock. The playback
// scheduler never schedules a chunk before Clock.Now().
type Clock interface {
	Now() time.Duration
}

// systemClock measures elapsed time since creation.
type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock backed by the monotonic wall clock,
// starting at zero.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock is a Clock advanced explicitly by tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManualClock returns a ManualClock positioned at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now returns the current clock position.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Set positions the clock at d.
func (c *ManualClock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = d
}
