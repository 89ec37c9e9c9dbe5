package model

import "sync/atomic"

// Clock stamps snapshot transitions with strictly increasing sequence numbers.
// Implemented by *LogicalClock and testutil.DeterministicClock.
type Clock interface {
	Next() int64
	Current() int64
}

// LogicalClock is a monotonic logical clock.
//
// Thread-safety: safe for concurrent use (atomic operations).
type LogicalClock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *LogicalClock {
	return &LogicalClock{}
}

// NewClockAt creates a clock positioned at start.
// Used by Restore to resume numbering after the last stored snapshot.
func NewClockAt(start int64) *LogicalClock {
	c := &LogicalClock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without incrementing.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
