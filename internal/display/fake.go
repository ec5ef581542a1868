package display

import (
	"context"
	"sync"
)

// Fake is an in-memory Capability for tests and headless embedders: the
// caller scripts layout samples and keystrokes and inspects rendered
// bytes.
type Fake struct {
	mu       sync.Mutex
	cols     uint16
	rows     uint16
	fitCols  uint16
	fitRows  uint16
	fitCount int
	onData   func([]byte)
	onResize func(uint16, uint16)
	observer func(Size)
	writes   [][]byte
	disposed bool

	// OpenErr, when set, makes Open fail (display-init failure path).
	OpenErr error
}

// NewFake returns a fake whose next Fit resolves to the given grid.
func NewFake(cols, rows uint16) *Fake {
	return &Fake{fitCols: cols, fitRows: rows}
}

func (f *Fake) Open(ctx context.Context) error { return f.OpenErr }

func (f *Fake) Write(p []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
}

func (f *Fake) OnData(fn func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onData = fn
}

func (f *Fake) OnResize(fn func(uint16, uint16)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onResize = fn
}

func (f *Fake) Observe(fn func(Size)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = fn
}

func (f *Fake) Fit() {
	f.mu.Lock()
	f.fitCount++
	changed := f.cols != f.fitCols || f.rows != f.fitRows
	f.cols, f.rows = f.fitCols, f.fitRows
	fn := f.onResize
	cols, rows := f.cols, f.rows
	f.mu.Unlock()
	if changed && fn != nil {
		fn(cols, rows)
	}
}

func (f *Fake) Size() (uint16, uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cols, f.rows
}

func (f *Fake) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

// SetFitResult scripts the grid the next Fit resolves to.
func (f *Fake) SetFitResult(cols, rows uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fitCols, f.fitRows = cols, rows
}

// EmitSample delivers a layout observation to the bridge.
func (f *Fake) EmitSample(s Size) {
	f.mu.Lock()
	fn := f.observer
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// EmitData delivers user input to the bridge.
func (f *Fake) EmitData(p []byte) {
	f.mu.Lock()
	fn := f.onData
	f.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// Writes returns a copy of everything rendered so far.
func (f *Fake) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

// FitCount reports how many times Fit ran.
func (f *Fake) FitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fitCount
}

// Disposed reports whether Dispose was called.
func (f *Fake) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed
}
