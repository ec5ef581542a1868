package frame

import (
	"bytes"
	"testing"
)

func TestResizeRoundTrip(t *testing.T) {
	tests := []struct {
		cols, rows uint16
	}{
		{80, 24},
		{1, 1},
		{120, 40},
		{65535, 65535},
		{132, 1},
	}
	for _, tt := range tests {
		msg := EncodeResize(tt.cols, tt.rows)
		if len(msg) == 0 || msg[0] != ControlMarker {
			t.Fatalf("EncodeResize(%d,%d): first byte %#x, want marker %#x", tt.cols, tt.rows, msg[0], ControlMarker)
		}
		rf, err := DecodeResize(msg)
		if err != nil {
			t.Fatalf("DecodeResize: %v", err)
		}
		if rf.Cols != tt.cols || rf.Rows != tt.rows {
			t.Fatalf("round trip got %dx%d, want %dx%d", rf.Cols, rf.Rows, tt.cols, tt.rows)
		}
	}
}

func TestResizeWireFormat(t *testing.T) {
	msg := EncodeResize(80, 24)
	want := append([]byte{ControlMarker}, []byte(`{"cols":80,"rows":24}`)...)
	if !bytes.Equal(msg, want) {
		t.Fatalf("wire bytes %q, want %q", msg, want)
	}
}

func TestInputIsNeverControl(t *testing.T) {
	inputs := []string{
		"ls -la\r",
		"",
		"héllo wörld",
		"\x1b[A",     // arrow key escape sequence
		"\x03",       // Ctrl-C
		"大きな入力",      // multibyte
		"{\"cols\":80}", // JSON-shaped text typed by the user
	}
	for _, s := range inputs {
		msg := EncodeInput(s)
		if IsControl(msg) {
			t.Fatalf("EncodeInput(%q) produced a control frame", s)
		}
		if string(msg) != s {
			t.Fatalf("EncodeInput(%q) altered payload to %q", s, msg)
		}
	}
}

// Ctrl-A is the one terminal byte that collides with the marker. The wire
// contract is byte-exact passthrough for input, so it is sent verbatim;
// the host only applies control parsing to marker-prefixed JSON objects.
func TestInputCtrlAPassthrough(t *testing.T) {
	msg := EncodeInput("\x01")
	if !bytes.Equal(msg, []byte{0x01}) {
		t.Fatalf("Ctrl-A input altered: %q", msg)
	}
	if _, err := DecodeResize(msg); err == nil {
		t.Fatal("bare Ctrl-A must not parse as a resize frame")
	}
}

func TestDecodeInboundPassthrough(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		[]byte("plain text"),
		{0x00, 0xff, 0xfe, 0x01, 0x80}, // arbitrary binary, not valid UTF-8
		[]byte("\x1b]0;title\x07"),
	}
	for _, p := range payloads {
		got := DecodeInbound(p)
		if !bytes.Equal(got, p) {
			t.Fatalf("DecodeInbound(%q) = %q, want identity", p, got)
		}
	}
}

func TestDecodeResizeRejectsGarbage(t *testing.T) {
	tests := [][]byte{
		nil,
		{},
		[]byte("no marker"),
		{ControlMarker},                       // marker with empty payload
		append([]byte{ControlMarker}, "x"...), // marker with non-JSON payload
	}
	for _, msg := range tests {
		if _, err := DecodeResize(msg); err == nil {
			t.Fatalf("DecodeResize(%q) succeeded, want error", msg)
		}
	}
}
