//go:build windows

package display

import (
	"time"

	"golang.org/x/term"
)

// watchResize polls the console size; Windows has no SIGWINCH equivalent
// the signal package can deliver.
func (t *TTY) watchResize() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	lastW, lastH := -1, -1
	for {
		select {
		case <-ticker.C:
			w, h, err := term.GetSize(int(t.out.Fd()))
			if err != nil {
				continue
			}
			if w != lastW || h != lastH {
				lastW, lastH = w, h
				t.emitSample()
			}
		case <-t.stop:
			return
		}
	}
}
