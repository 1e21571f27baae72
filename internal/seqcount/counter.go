// Package seqcount provides the shared monotonic counters used anywhere a
// wire format needs a process-wide sequence number: CCSDS sequence counts,
// PUS message counts, verification request bookkeeping. Injecting one of
// these rather than letting each producer keep its own counter is what lets
// independently-running goroutines agree on a single increasing sequence.
package seqcount

import "sync/atomic"

// Counter is a concurrency-safe 32-bit wrapping counter.
type Counter struct {
	v atomic.Uint32
}

// New returns a counter starting at zero.
func New() *Counter {
	return &Counter{}
}

// FetchThenIncrement returns the current value and advances the counter.
// Wraps at 2^32 like any fixed-width telemetry sequence field.
func (c *Counter) FetchThenIncrement() uint32 {
	return c.v.Add(1) - 1
}

// Load returns the current value without advancing it.
func (c *Counter) Load() uint32 {
	return c.v.Load()
}
