// Package schedule provides the two timing primitives used to commit user
// input: a debounced task where the last arm wins, and a coalescer that
// collapses repeated toggles from the same source.
package schedule

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Task runs at most one pending function. Arming again supersedes the
// pending function and restarts the delay.
type Task struct {
	clock clock.Clock

	mu    sync.Mutex
	timer *clock.Timer
	fn    func()
	gen   uint64
}

// NewTask returns a task driven by c. A nil clock uses wall time.
func NewTask(c clock.Clock) *Task {
	if c == nil {
		c = clock.New()
	}
	return &Task{clock: c}
}

// Arm schedules fn to run after d.
func (t *Task) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.fn = fn
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.fn == nil {
		t.mu.Unlock()
		return
	}
	fn := t.fn
	t.fn = nil
	t.timer = nil
	t.mu.Unlock()
	fn()
}

// Cancel drops the pending function. It reports whether one was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.fn != nil
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.fn = nil
	t.timer = nil
	return pending
}

// Flush runs the pending function now, if any.
func (t *Task) Flush() bool {
	t.mu.Lock()
	fn := t.fn
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.fn = nil
	t.timer = nil
	t.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a function is waiting to run.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn != nil
}

// Coalescer suppresses a toggle when the same source toggled within the
// window. Toggles without a source are never suppressed.
type Coalescer struct {
	clock  clock.Clock
	window time.Duration

	mu         sync.Mutex
	lastSource string
	lastAt     time.Time
}

func NewCoalescer(c clock.Clock, window time.Duration) *Coalescer {
	if c == nil {
		c = clock.New()
	}
	return &Coalescer{clock: c, window: window}
}

// Allow reports whether a toggle from source should be applied.
func (c *Coalescer) Allow(source string) bool {
	if source == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if source == c.lastSource && now.Sub(c.lastAt) < c.window {
		return false
	}
	c.lastSource = source
	c.lastAt = now
	return true
}
