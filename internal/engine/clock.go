package engine

import "sync/atomic"

// Clock is the logical clock that stamps trace records.
//
// Every applied step takes the next seq, starting at 1. Wall-clock time is
// never used for ordering, so replaying a definition yields identical seqs.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset moves the clock back to 0.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
