// Package bridge wires a display engine to a remote shell session over a
// WebSocket: it owns the connection lifecycle, forwards keystrokes and
// resize events out, and coalesces bursty inbound output into per-tick
// display writes.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/agentuity/termbridge/internal/coalesce"
	"github.com/agentuity/termbridge/internal/display"
	"github.com/agentuity/termbridge/internal/endpoint"
	"github.com/agentuity/termbridge/internal/frame"
	"github.com/agentuity/termbridge/internal/logx"
)

// ErrNotReconnectable is returned when Reconnect is called while the
// bridge is connecting or already connected.
var ErrNotReconnectable = errors.New("bridge: reconnect only valid when disconnected or errored")

// ErrClosed is returned for operations on a closed bridge.
var ErrClosed = errors.New("bridge: closed")

const inboundReadLimit = 1 << 20

// Resolver produces one connection target per connect attempt.
// *endpoint.Resolver is the production implementation.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string, cols, rows uint16) endpoint.Target
}

// Config carries the per-instance settings of a bridge.
type Config struct {
	SessionID       string
	BaseURL         string
	InstanceName    string
	PaintInterval   time.Duration
	ResizeThreshold int
}

// Bridge is the composition root for one attached terminal. Each bridge
// exclusively owns its socket, display capability and write queue.
type Bridge struct {
	cfg      Config
	resolver Resolver
	disp     display.Capability
	coal     *coalesce.Coalescer
	coord    *sizeCoordinator
	state    *tracker
	ownSched *coalesce.IntervalScheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	conn       *websocket.Conn
	connCancel context.CancelFunc
	sendCh     chan []byte
	connected  bool
	closed     bool
	started    bool
}

// New builds a bridge around the injected display capability. A nil
// scheduler means the bridge runs its own paint-interval scheduler and
// closes it on Close; tests inject a manual one.
func New(cfg Config, disp display.Capability, sched coalesce.Scheduler) *Bridge {
	b := &Bridge{
		cfg:      cfg,
		resolver: endpoint.New(cfg.BaseURL),
		disp:     disp,
		coord:    newSizeCoordinator(cfg.ResizeThreshold),
		state:    newTracker(cfg.SessionID, uuid.NewString(), cfg.InstanceName),
	}
	if sched == nil {
		b.ownSched = coalesce.NewIntervalScheduler(cfg.PaintInterval)
		sched = b.ownSched
	}
	b.coal = coalesce.New(sched)
	return b
}

// Start opens the display and begins observing its layout. The first
// non-degenerate size triggers the initial connection; until then the
// bridge stays disconnected because the remote PTY needs real dimensions
// before it can produce correctly sized output.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.started {
		b.mu.Unlock()
		return errors.New("bridge: already started")
	}
	b.started = true
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	if err := b.disp.Open(b.ctx); err != nil {
		b.state.setStatus(StatusError, "Failed to initialize terminal")
		return fmt.Errorf("open display: %w", err)
	}
	b.coal.Bind(func(p []byte) {
		b.disp.Write(p)
		renderFlushCounter.Inc()
	})
	b.disp.OnData(b.handleInput)
	b.disp.OnResize(b.handleGridResize)
	b.disp.Observe(b.handleSample)
	return nil
}

// handleSample processes one layout observation from the display.
func (b *Bridge) handleSample(s display.Size) {
	fit, connect := b.coord.observe(s)
	if !fit {
		return
	}
	b.disp.Fit()
	if connect {
		go b.connect(b.ctx)
	}
}

// connect resolves an endpoint and runs one connection to completion.
// It is the only writer of the socket field.
func (b *Bridge) connect(ctx context.Context) {
	if ctx == nil || ctx.Err() != nil {
		return
	}
	connectAttemptsCounter.Inc()
	b.state.setStatus(StatusConnecting, "Connecting to terminal")

	cols, rows := b.disp.Size()
	b.state.setGrid(cols, rows)
	target := b.resolver.Resolve(ctx, b.cfg.SessionID, cols, rows)
	b.state.setTransport(string(target.Transport))
	logx.Log.Info().
		Str("session_id", b.cfg.SessionID).
		Str("transport", string(target.Transport)).
		Uint16("cols", cols).Uint16("rows", rows).
		Msg("connecting")

	connCtx, cancel := context.WithCancel(ctx)
	conn, _, err := websocket.Dial(connCtx, target.URL, nil)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return
		}
		b.state.setStatus(StatusError, "Unable to connect to terminal")
		logx.Log.Error().Err(err).Str("transport", string(target.Transport)).Msg("dial failed")
		return
	}
	conn.SetReadLimit(inboundReadLimit)

	sendCh := make(chan []byte, 64)
	go writeLoop(connCtx, cancel, conn, sendCh)

	// The remote PTY must learn its size before producing output sized
	// for it: on the direct transport the resize frame is the first
	// outbound message, queued before any input handler can observe the
	// connected flag.
	if target.Transport == endpoint.TransportDirect {
		sendCh <- frame.EncodeResize(cols, rows)
		resizeFrameCounter.Inc()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	b.conn = conn
	b.connCancel = cancel
	b.sendCh = sendCh
	b.connected = true
	b.mu.Unlock()

	b.state.setStatus(StatusConnected, "Connected")
	logx.Log.Info().Str("session_id", b.cfg.SessionID).Msg("connected")

	b.readLoop(connCtx, conn)
}

// writeLoop is the sole socket writer; outbound frames keep the order in
// which their UI events fired.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sendCh <-chan []byte) {
	for {
		select {
		case msg := <-sendCh:
			if err := conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readLoop renders inbound traffic until the connection ends, then maps
// the failure onto the terminal status taxonomy.
func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			b.finishConnection(err)
			return
		}
		// Binary mode is mandatory; anything else is ignored.
		if typ != websocket.MessageBinary {
			continue
		}
		b.state.addBytesIn(len(data))
		b.coal.Push(frame.DecodeInbound(data))
	}
}

// finishConnection tears down the current socket state and surfaces the
// outcome. It never reconnects on its own.
func (b *Bridge) finishConnection(readErr error) {
	b.mu.Lock()
	b.connected = false
	b.conn = nil
	b.sendCh = nil
	cancel := b.connCancel
	b.connCancel = nil
	closed := b.closed
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if closed || (b.ctx != nil && b.ctx.Err() != nil) {
		// Torn down by Close; nothing to surface.
		b.state.setStatus(StatusDisconnected, "Disconnected")
		return
	}

	code := websocket.CloseStatus(readErr)
	switch {
	case code == websocket.StatusNormalClosure:
		b.state.setStatus(StatusDisconnected, "Disconnected")
		logx.Log.Info().Str("session_id", b.cfg.SessionID).Msg("connection closed")
	case code != -1:
		// Unclean close: surface the close code in the terminal itself so
		// the user sees why output stopped.
		notice := fmt.Sprintf("\r\n\x1b[31m[terminal disconnected: close code %d]\x1b[0m\r\n", code)
		b.coal.Push([]byte(notice))
		b.state.setStatus(StatusDisconnected, fmt.Sprintf("Connection closed unexpectedly (code %d)", code))
		logx.Log.Warn().Int("close_code", int(code)).Str("session_id", b.cfg.SessionID).Msg("unclean close")
	default:
		b.state.setStatus(StatusError, "Terminal connection error")
		logx.Log.Error().Err(readErr).Str("session_id", b.cfg.SessionID).Msg("connection error")
	}
}

// handleInput forwards one keystroke or paste event. Input is sent
// immediately, never batched; typing while disconnected is dropped.
func (b *Bridge) handleInput(p []byte) {
	b.mu.Lock()
	ch := b.sendCh
	ok := b.connected
	b.mu.Unlock()
	if !ok || ch == nil {
		return
	}
	msg := frame.EncodeInput(string(p))
	select {
	case ch <- msg:
		b.state.addBytesOut(len(msg))
	case <-b.ctx.Done():
	}
}

// handleGridResize forwards a grid change to the remote PTY.
func (b *Bridge) handleGridResize(cols, rows uint16) {
	b.state.setGrid(cols, rows)
	b.mu.Lock()
	ch := b.sendCh
	ok := b.connected
	b.mu.Unlock()
	if !ok || ch == nil {
		return
	}
	msg := frame.EncodeResize(cols, rows)
	select {
	case ch <- msg:
		b.state.addBytesOut(len(msg))
		resizeFrameCounter.Inc()
	case <-b.ctx.Done():
	}
}

// Reconnect tears down any remaining socket state and dials again using
// the display's last-known dimensions. It is only legal from the
// disconnected and error statuses; the bridge never reconnects
// implicitly.
func (b *Bridge) Reconnect() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if !b.started {
		b.mu.Unlock()
		return errors.New("bridge: not started")
	}
	if !b.state.status().Reconnectable() {
		b.mu.Unlock()
		return ErrNotReconnectable
	}
	if cancel := b.connCancel; cancel != nil {
		b.connCancel = nil
		cancel()
	}
	b.conn = nil
	b.sendCh = nil
	b.connected = false
	ctx := b.ctx
	b.mu.Unlock()

	go b.connect(ctx)
	return nil
}

// Status returns the current connection status.
func (b *Bridge) Status() Status {
	return b.state.status()
}

// StatusMessage returns the human-readable status or error string.
func (b *Bridge) StatusMessage() string {
	return b.state.snapshot().Message
}

// State returns a full snapshot for the status endpoint.
func (b *Bridge) State() State {
	return b.state.snapshot()
}

// Done reports bridge teardown; it is closed by Close.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Done()
}

// Close cancels all pending work: it closes the socket, stops layout
// observation, discards anything still queued for rendering and releases
// the display. Idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	conn := b.conn
	b.conn = nil
	b.sendCh = nil
	b.connected = false
	cancel := b.cancel
	connCancel := b.connCancel
	b.connCancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if connCancel != nil {
		connCancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
	b.coal.Close()
	if b.ownSched != nil {
		b.ownSched.Close()
	}
	b.disp.Dispose()
	logx.Log.Debug().Str("session_id", b.cfg.SessionID).Msg("bridge closed")
}
