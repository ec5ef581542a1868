// Package coalesce decouples "bytes arrived" from "bytes rendered": bursts
// of inbound messages are merged into one display write per render tick,
// bounding how often the display engine is called under heavy output.
package coalesce

import "sync"

// Scheduler requests that a callback run at the next render tick. The
// production implementation is a paint-interval timer; tests drive ticks
// explicitly through a ManualScheduler.
type Scheduler interface {
	Schedule(fn func())
}

// Coalescer buffers inbound payloads and flushes them as a single
// contiguous write. Payloads pushed before a tick are rendered together,
// in arrival order, before anything pushed after that tick.
//
// Pushed slices are owned by the coalescer from the call onward.
type Coalescer struct {
	mu        sync.Mutex
	sched     Scheduler
	sink      func([]byte)
	queue     [][]byte
	scheduled bool
	closed    bool
}

// New returns a coalescer that flushes on ticks from sched. The render
// sink may be attached later with Bind; pushes before that are buffered,
// not dropped, covering the race between socket-open and display-ready.
func New(sched Scheduler) *Coalescer {
	return &Coalescer{sched: sched}
}

// Bind attaches the display engine's write function. If data was buffered
// while unbound, a flush is scheduled so nothing is lost.
func (c *Coalescer) Bind(sink func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.sink = sink
	if len(c.queue) > 0 && !c.scheduled {
		c.scheduled = true
		c.sched.Schedule(c.flush)
	}
}

// Push appends a payload to the pending queue and schedules a flush if
// none is pending. Scheduling is idempotent: any number of pushes before
// the next tick produce exactly one flush.
func (c *Coalescer) Push(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.queue = append(c.queue, p)
	if !c.scheduled {
		c.scheduled = true
		c.sched.Schedule(c.flush)
	}
}

// flush drains the queue atomically, concatenates the chunks in FIFO
// order and hands the merged buffer to the sink. Empty queue is a no-op.
// With no sink bound yet the queue is left intact for a later flush.
func (c *Coalescer) flush() {
	c.mu.Lock()
	c.scheduled = false
	if c.closed || c.sink == nil || len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	var total int
	for _, p := range c.queue {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range c.queue {
		buf = append(buf, p...)
	}
	c.queue = nil
	sink := c.sink
	c.mu.Unlock()
	if len(buf) > 0 {
		sink(buf)
	}
}

// Pending reports the number of queued, not-yet-rendered payloads.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close discards anything still queued and rejects further pushes. A tick
// that fires after Close renders nothing.
func (c *Coalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.queue = nil
	c.sink = nil
}
