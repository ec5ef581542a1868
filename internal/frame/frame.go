// Package frame implements the wire framing shared with the remote shell
// host: a single WebSocket carries both raw terminal bytes and out-of-band
// control messages, distinguished by the first byte of each message.
package frame

import (
	"encoding/json"
	"fmt"
)

// ControlMarker tags a message as a control frame. Everything else on the
// wire is raw terminal data. The resize encoder is the only client code
// path that emits it.
const ControlMarker byte = 0x01

// ResizeFrame tells the remote PTY its new grid size.
type ResizeFrame struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

// EncodeResize builds a control frame: the marker byte followed by the
// UTF-8 JSON encoding of the dimensions.
func EncodeResize(cols, rows uint16) []byte {
	payload, _ := json.Marshal(ResizeFrame{Cols: cols, Rows: rows})
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, ControlMarker)
	return append(buf, payload...)
}

// EncodeInput encodes typed or pasted text as a data frame. Input is sent
// verbatim with no marker; the remote side only treats marker-prefixed
// JSON as control, so terminal control characters pass through untouched.
func EncodeInput(text string) []byte {
	return []byte(text)
}

// DecodeInbound interprets a server-to-client message. The server never
// sends control frames in this protocol, so every inbound payload is raw
// terminal output passed through unmodified. Zero-length payloads are
// valid no-op frames.
func DecodeInbound(msg []byte) []byte {
	return msg
}

// DecodeResize parses a control frame produced by EncodeResize. It is used
// by host-side harnesses and round-trip tests.
func DecodeResize(msg []byte) (ResizeFrame, error) {
	var rf ResizeFrame
	if len(msg) == 0 || msg[0] != ControlMarker {
		return rf, fmt.Errorf("frame: not a control frame")
	}
	if err := json.Unmarshal(msg[1:], &rf); err != nil {
		return rf, fmt.Errorf("frame: bad control payload: %w", err)
	}
	return rf, nil
}

// IsControl reports whether a client-to-server message is a control frame.
func IsControl(msg []byte) bool {
	return len(msg) > 0 && msg[0] == ControlMarker
}
