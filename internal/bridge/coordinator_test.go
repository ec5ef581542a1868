package bridge

import (
	"testing"

	"github.com/agentuity/termbridge/internal/display"
)

func TestCoordinatorSingleInitialConnect(t *testing.T) {
	for _, m := range []int{1, 2, 5, 20} {
		c := newSizeCoordinator(1)
		connects := 0
		w, h := 80, 24
		for i := 0; i < m; i++ {
			_, connect := c.observe(display.Size{Width: w + i, Height: h + i})
			if connect {
				connects++
			}
		}
		if connects != 1 {
			t.Fatalf("M=%d qualifying observations produced %d connects, want 1", m, connects)
		}
	}
}

func TestCoordinatorThreshold(t *testing.T) {
	c := newSizeCoordinator(4)
	if fit, connect := c.observe(display.Size{Width: 80, Height: 24}); !fit || !connect {
		t.Fatal("first sample must fit and connect")
	}
	tests := []struct {
		s       display.Size
		wantFit bool
	}{
		{display.Size{Width: 82, Height: 25}, false}, // below threshold in both
		{display.Size{Width: 83, Height: 27}, false}, // still measured against 80x24
		{display.Size{Width: 84, Height: 24}, true},  // width delta reaches threshold
		{display.Size{Width: 85, Height: 25}, false}, // below threshold against 84x24
		{display.Size{Width: 84, Height: 30}, true},  // height alone qualifies
	}
	for i, tt := range tests {
		fit, connect := c.observe(tt.s)
		if fit != tt.wantFit {
			t.Fatalf("sample %d (%dx%d): fit = %v, want %v", i, tt.s.Width, tt.s.Height, fit, tt.wantFit)
		}
		if connect {
			t.Fatalf("sample %d triggered a second connect", i)
		}
	}
}

func TestCoordinatorDegenerateNeverConnects(t *testing.T) {
	c := newSizeCoordinator(1)
	samples := []display.Size{
		{Width: 0, Height: 0},
		{Width: 0, Height: 50},
		{Width: 100, Height: 0},
	}
	for _, s := range samples {
		if _, connect := c.observe(s); connect {
			t.Fatalf("degenerate sample %dx%d connected", s.Width, s.Height)
		}
	}
	if _, connect := c.observe(display.Size{Width: 80, Height: 24}); !connect {
		t.Fatal("first non-degenerate sample must connect")
	}
}
