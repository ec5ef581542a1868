package bridge

import (
	"sync"
	"time"
)

// Status is the connection status of a bridge instance. Exactly one value
// is active at a time; transitions drive the UI affordances (reconnect is
// only offered from disconnected or error).
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Reconnectable reports whether an explicit reconnect is a legal
// transition from this status.
func (s Status) Reconnectable() bool {
	return s == StatusDisconnected || s == StatusError
}

// State is a point-in-time snapshot of a bridge, served by the status
// endpoint and read by the surrounding UI.
type State struct {
	Status       Status    `json:"status"`
	Message      string    `json:"message"`
	Transport    string    `json:"transport,omitempty"`
	SessionID    string    `json:"session_id"`
	InstanceID   string    `json:"instance_id"`
	InstanceName string    `json:"instance_name"`
	Cols         uint16    `json:"cols"`
	Rows         uint16    `json:"rows"`
	BytesIn      uint64    `json:"bytes_in"`
	BytesOut     uint64    `json:"bytes_out"`
	LastError    string    `json:"last_error,omitempty"`
	ConnectedAt  time.Time `json:"connected_at,omitempty"`
}

// VersionInfo identifies the build, set once from main.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildSHA  string `json:"build_sha"`
	BuildDate string `json:"build_date"`
}

var buildInfo = VersionInfo{Version: "dev", BuildSHA: "unknown", BuildDate: "unknown"}

// SetBuildInfo records build metadata for the /version endpoint.
func SetBuildInfo(v, sha, date string) {
	buildInfo = VersionInfo{Version: v, BuildSHA: sha, BuildDate: date}
}

// GetVersionInfo returns the build metadata.
func GetVersionInfo() VersionInfo {
	return buildInfo
}

// tracker guards the mutable state of one bridge instance. One tracker
// per bridge; nothing is shared across instances.
type tracker struct {
	mu sync.RWMutex
	s  State
}

func newTracker(sessionID, instanceID, instanceName string) *tracker {
	return &tracker{s: State{
		Status:       StatusDisconnected,
		Message:      "Not connected",
		SessionID:    sessionID,
		InstanceID:   instanceID,
		InstanceName: instanceName,
	}}
}

func (t *tracker) setStatus(s Status, msg string) {
	t.mu.Lock()
	t.s.Status = s
	t.s.Message = msg
	switch s {
	case StatusConnected:
		t.s.ConnectedAt = time.Now()
		t.s.LastError = ""
	case StatusError:
		t.s.LastError = msg
	}
	t.mu.Unlock()
	setConnectedMetric(s == StatusConnected)
}

func (t *tracker) setTransport(transport string) {
	t.mu.Lock()
	t.s.Transport = transport
	t.mu.Unlock()
}

func (t *tracker) setGrid(cols, rows uint16) {
	t.mu.Lock()
	t.s.Cols = cols
	t.s.Rows = rows
	t.mu.Unlock()
}

func (t *tracker) addBytesIn(n int) {
	t.mu.Lock()
	t.s.BytesIn += uint64(n)
	t.mu.Unlock()
	bytesInboundCounter.Add(float64(n))
}

func (t *tracker) addBytesOut(n int) {
	t.mu.Lock()
	t.s.BytesOut += uint64(n)
	t.mu.Unlock()
	bytesOutboundCounter.Add(float64(n))
}

func (t *tracker) status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.s.Status
}

func (t *tracker) snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.s
}
