package bridge

import (
	"sync"

	"github.com/agentuity/termbridge/internal/display"
)

// sizeCoordinator turns raw layout samples into refit and initial-connect
// decisions. It suppresses samples whose delta from the last applied one
// is below the threshold in both dimensions, and arms the initial connect
// at most once per bridge instance.
type sizeCoordinator struct {
	mu        sync.Mutex
	threshold int
	last      *display.Size
	initiated bool
}

func newSizeCoordinator(threshold int) *sizeCoordinator {
	if threshold < 1 {
		threshold = 1
	}
	return &sizeCoordinator{threshold: threshold}
}

// observe is the pure transition for one sample: whether to refit the
// display, and whether this sample triggers the one initial connect.
func (c *sizeCoordinator) observe(s display.Size) (fit, connect bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil &&
		abs(s.Width-c.last.Width) < c.threshold &&
		abs(s.Height-c.last.Height) < c.threshold {
		return false, false
	}
	applied := s
	c.last = &applied
	fit = true
	if !c.initiated && !s.Degenerate() {
		c.initiated = true
		connect = true
	}
	return fit, connect
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
