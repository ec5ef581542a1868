package display

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/agentuity/termbridge/internal/logx"
)

// TTY renders to a local terminal: raw-mode stdin becomes the input
// stream, stdout the render target, and window-change notifications the
// layout observations.
type TTY struct {
	in  *os.File
	out *os.File

	mu       sync.Mutex
	cols     uint16
	rows     uint16
	onData   func([]byte)
	onResize func(uint16, uint16)
	observer func(Size)
	restore  func()
	stop     chan struct{}
	disposed bool
}

// NewTTY wraps the given terminal files, typically os.Stdin and os.Stdout.
func NewTTY(in, out *os.File) *TTY {
	return &TTY{in: in, out: out, stop: make(chan struct{})}
}

// Open switches the input terminal to raw mode and starts forwarding
// keystrokes to the OnData handler.
func (t *TTY) Open(ctx context.Context) error {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("display: input is not a terminal")
	}
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("display: enter raw mode: %w", err)
	}
	t.mu.Lock()
	t.restore = func() { _ = term.Restore(fd, prev) }
	t.mu.Unlock()
	t.Fit()

	go t.readInput(ctx)
	return nil
}

func (t *TTY) readInput(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			p := make([]byte, n)
			copy(p, buf[:n])
			t.mu.Lock()
			fn := t.onData
			t.mu.Unlock()
			if fn != nil {
				fn(p)
			}
		}
		if err != nil || ctx.Err() != nil {
			return
		}
		select {
		case <-t.stop:
			return
		default:
		}
	}
}

// Write renders bytes to the output terminal. Render errors are logged,
// not propagated; the display contract is non-throwing.
func (t *TTY) Write(p []byte) {
	if _, err := t.out.Write(p); err != nil {
		logx.Log.Error().Err(err).Msg("terminal write failed")
	}
}

// OnData registers the keystroke handler.
func (t *TTY) OnData(fn func([]byte)) {
	t.mu.Lock()
	t.onData = fn
	t.mu.Unlock()
}

// OnResize registers the grid-change handler.
func (t *TTY) OnResize(fn func(uint16, uint16)) {
	t.mu.Lock()
	t.onResize = fn
	t.mu.Unlock()
}

// Observe starts window-change observation. One initial sample is emitted
// immediately so the bridge can connect once real dimensions exist.
func (t *TTY) Observe(fn func(Size)) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
	t.emitSample()
	go t.watchResize()
}

func (t *TTY) emitSample() {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		return
	}
	t.mu.Lock()
	fn := t.observer
	t.mu.Unlock()
	if fn != nil {
		fn(Size{Width: w, Height: h})
	}
}

// Fit re-reads the terminal size and fires OnResize when the grid changed.
func (t *TTY) Fit() {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return
	}
	t.mu.Lock()
	changed := t.cols != uint16(w) || t.rows != uint16(h)
	t.cols, t.rows = uint16(w), uint16(h)
	fn := t.onResize
	t.mu.Unlock()
	if changed && fn != nil {
		fn(uint16(w), uint16(h))
	}
}

// Size returns the current grid dimensions.
func (t *TTY) Size() (uint16, uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// Dispose leaves raw mode and stops observation. The blocked stdin read
// ends when the process does; Dispose only guarantees terminal state is
// restored.
func (t *TTY) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	restore := t.restore
	t.mu.Unlock()
	close(t.stop)
	if restore != nil {
		restore()
	}
}
