package coalesce

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	writes [][]byte
}

func (c *captureSink) write(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, p)
}

func (c *captureSink) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

func TestCoalescingPreservesOrderAndContent(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	splits := [][]int{
		{len(payload)},
		{1, len(payload) - 1},
		{10, 10, 10, len(payload) - 30},
		{5, 0, 15, 0, len(payload) - 20}, // zero-length chunks coalesce to nothing
	}
	for _, split := range splits {
		sched := &ManualScheduler{}
		sink := &captureSink{}
		c := New(sched)
		c.Bind(sink.write)

		off := 0
		for _, n := range split {
			c.Push(payload[off : off+n])
			off += n
		}
		sched.Tick()

		writes := sink.snapshot()
		if len(writes) != 1 {
			t.Fatalf("split %v: got %d writes, want 1", split, len(writes))
		}
		if !bytes.Equal(writes[0], payload) {
			t.Fatalf("split %v: merged %q, want %q", split, writes[0], payload)
		}
	}
}

func TestAtMostOneFlushPerTick(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &captureSink{}
	c := New(sched)
	c.Bind(sink.write)

	for i := 0; i < 50; i++ {
		c.Push([]byte{byte(i)})
	}
	if n := sched.Tick(); n != 1 {
		t.Fatalf("50 pushes scheduled %d flushes, want 1", n)
	}
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("got %d display writes, want 1", got)
	}
	// A tick with nothing queued must not touch the display.
	sched.Tick()
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("empty tick wrote to display (%d writes)", got)
	}
}

func TestPushAcrossTicksKeepsSequence(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &captureSink{}
	c := New(sched)
	c.Bind(sink.write)

	c.Push([]byte("ab"))
	c.Push([]byte("cd"))
	sched.Tick()
	c.Push([]byte("ef"))
	sched.Tick()

	writes := sink.snapshot()
	if len(writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(writes))
	}
	if string(writes[0]) != "abcd" || string(writes[1]) != "ef" {
		t.Fatalf("writes %q, want [abcd ef]", writes)
	}
}

func TestBufferedBeforeBind(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &captureSink{}
	c := New(sched)

	c.Push([]byte("early "))
	c.Push([]byte("bytes"))
	sched.Tick() // no sink yet; queue must survive
	if c.Pending() != 2 {
		t.Fatalf("pending = %d before bind, want 2", c.Pending())
	}

	c.Bind(sink.write)
	sched.Tick()
	writes := sink.snapshot()
	if len(writes) != 1 || string(writes[0]) != "early bytes" {
		t.Fatalf("writes after bind: %q", writes)
	}
}

func TestCloseDiscardsQueue(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &captureSink{}
	c := New(sched)
	c.Bind(sink.write)

	c.Push([]byte("doomed"))
	c.Close()
	sched.Tick()
	if got := len(sink.snapshot()); got != 0 {
		t.Fatalf("flush after close wrote %d times", got)
	}
	c.Push([]byte("late"))
	sched.Tick()
	if got := len(sink.snapshot()); got != 0 {
		t.Fatalf("push after close wrote %d times", got)
	}
}

func TestIntervalSchedulerTicks(t *testing.T) {
	s := NewIntervalScheduler(time.Millisecond)
	defer s.Close()

	done := make(chan struct{})
	s.Schedule(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled callback never ran")
	}
}

func TestIntervalSchedulerWithCoalescer(t *testing.T) {
	s := NewIntervalScheduler(time.Millisecond)
	defer s.Close()
	sink := &captureSink{}
	c := New(s)
	c.Bind(sink.write)

	c.Push([]byte("a"))
	c.Push([]byte("b"))
	deadline := time.After(time.Second)
	for {
		if w := sink.snapshot(); len(w) > 0 {
			if string(w[0]) != "ab" {
				t.Fatalf("first write %q, want ab", w[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("coalescer never flushed")
		case <-time.After(time.Millisecond):
		}
	}
}
