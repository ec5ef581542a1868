// Package display abstracts the terminal rendering engine the bridge
// writes to. The bridge depends only on the Capability interface; the
// concrete engine is injected at the composition root. The package ships
// a local-TTY implementation and an in-memory fake for tests.
package display

import "context"

// Size is a raw layout sample of the surface hosting the terminal,
// measured in cells for a TTY. Samples feed the bridge's resize
// coordinator, which suppresses sub-threshold noise before refitting.
type Size struct {
	Width  int
	Height int
}

// Degenerate reports whether the sample cannot host a terminal grid.
func (s Size) Degenerate() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Capability is the display engine contract. Implementations are owned by
// exactly one bridge instance and are not safe for cross-bridge sharing.
type Capability interface {
	// Open initializes the engine. An error here is fatal to the bridge
	// instance: no connection is attempted.
	Open(ctx context.Context) error

	// Write renders raw terminal bytes. It must accept arbitrary binary
	// and never fail for well-formed buffers.
	Write(p []byte)

	// OnData registers the handler for user keystrokes and pastes.
	OnData(fn func(p []byte))

	// OnResize registers the handler fired when Fit changes the grid.
	OnResize(fn func(cols, rows uint16))

	// Observe starts layout observation and registers the sample handler.
	// Implementations emit one initial sample so a bridge can connect as
	// soon as real dimensions are known.
	Observe(fn func(s Size))

	// Fit recomputes the grid from the current layout size.
	Fit()

	// Size returns the current grid dimensions.
	Size() (cols, rows uint16)

	// Dispose stops observation and releases the engine.
	Dispose()
}
