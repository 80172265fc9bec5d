// Package clock stamps appended records with strictly increasing creation
// times.
package clock

import (
	"sync/atomic"
	"time"
)

// Source returns the current wall time.
type Source func() time.Time

// Clock issues strictly increasing UTC timestamps.
//
// When the source stalls or steps backwards, Next returns the previous
// timestamp plus one nanosecond, so created_at stays monotonic across
// appends from one process.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	source Source
	last   atomic.Int64
}

// New creates a clock backed by time.Now.
func New() *Clock {
	return NewWithSource(time.Now)
}

// NewWithSource creates a clock backed by source.
func NewWithSource(source Source) *Clock {
	return &Clock{source: source}
}

// NewAt creates a clock that never issues a timestamp at or before start.
// Used when reopening a store to resume after its newest record.
func NewAt(source Source, start time.Time) *Clock {
	c := NewWithSource(source)
	c.last.Store(start.UnixNano())
	return c
}

// Next returns the next timestamp. Calls are linearizable: each returns a
// unique value greater than every earlier one.
func (c *Clock) Next() time.Time {
	for {
		prev := c.last.Load()
		n := c.source().UnixNano()
		if n <= prev {
			n = prev + 1
		}
		if c.last.CompareAndSwap(prev, n) {
			return time.Unix(0, n).UTC()
		}
	}
}

// Current returns the last issued timestamp, or the zero time if none.
func (c *Clock) Current() time.Time {
	n := c.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
