package bridge

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/agentuity/termbridge/internal/logx"
)

// statusPayload is the /status response: the bridge snapshot plus a few
// process stats so the UI can show resource usage next to the terminal.
type statusPayload struct {
	State
	Proc *procStats `json:"proc,omitempty"`
}

type procStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

func collectProcStats() *procStats {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	st := &procStats{}
	if mi, err := p.MemoryInfo(); err == nil && mi != nil {
		st.RSSBytes = mi.RSS
	}
	if pct, err := p.CPUPercent(); err == nil {
		st.CPUPercent = pct
	}
	return st
}

// StartStatusServer exposes /status, /version and /healthz for the bridge.
// The status endpoint is polled cross-origin by the session UI, so the
// router carries permissive CORS for GET. It returns the address it is
// listening on.
func StartStatusServer(ctx context.Context, addr string, b *Bridge) (string, error) {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusPayload{State: b.State(), Proc: collectProcStats()})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetVersionInfo())
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Handler: r}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	actual := ln.Addr().String()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logx.Log.Error().Err(err).Str("addr", actual).Msg("status server error")
		}
	}()
	return actual, nil
}
