//go:build unix

package display

import (
	"os"
	"os/signal"
	"syscall"
)

// watchResize forwards SIGWINCH into layout samples until Dispose.
func (t *TTY) watchResize() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	defer signal.Stop(ch)
	for {
		select {
		case <-ch:
			t.emitSample()
		case <-t.stop:
			return
		}
	}
}
