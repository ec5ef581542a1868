package coalesce

import (
	"sync"
	"time"
)

// IntervalScheduler runs scheduled callbacks on a fixed paint interval,
// the closest server-side analogue of an animation-frame callback: a
// callback scheduled mid-interval runs at the next tick, never sooner.
type IntervalScheduler struct {
	mu      sync.Mutex
	pending []func()
	stop    chan struct{}
	once    sync.Once
}

// NewIntervalScheduler starts the tick loop. A non-positive interval
// falls back to 16ms (roughly one frame at 60Hz).
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	s := &IntervalScheduler{stop: make(chan struct{})}
	go s.loop(interval)
	return s
}

func (s *IntervalScheduler) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			fns := s.pending
			s.pending = nil
			s.mu.Unlock()
			for _, fn := range fns {
				fn()
			}
		case <-s.stop:
			return
		}
	}
}

// Schedule queues fn for the next tick.
func (s *IntervalScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stop:
		return
	default:
	}
	s.pending = append(s.pending, fn)
}

// Close stops the tick loop. Pending callbacks are discarded.
func (s *IntervalScheduler) Close() {
	s.once.Do(func() { close(s.stop) })
}

// ManualScheduler is a Scheduler whose ticks are driven explicitly by the
// caller, for embedders that control their own paint cadence and for
// deterministic tests.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule queues fn for the next Tick.
func (s *ManualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
}

// Tick runs everything scheduled since the previous Tick and reports how
// many callbacks ran.
func (s *ManualScheduler) Tick() int {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
