package bridge

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentuity/termbridge/internal/logx"
)

var (
	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "termbridge_connected",
		Help: "Whether the bridge is connected to the remote shell (1 or 0)",
	})
	connectAttemptsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termbridge_connect_attempts_total",
		Help: "Total number of connection attempts",
	})
	bytesInboundCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termbridge_bytes_inbound_total",
		Help: "Total terminal output bytes received from the remote shell",
	})
	bytesOutboundCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termbridge_bytes_outbound_total",
		Help: "Total input and control bytes sent to the remote shell",
	})
	renderFlushCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termbridge_render_flushes_total",
		Help: "Total coalesced writes handed to the display engine",
	})
	resizeFrameCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termbridge_resize_frames_total",
		Help: "Total resize control frames sent",
	})
)

func setConnectedMetric(v bool) {
	if v {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
}

// StartMetricsServer starts an HTTP server exposing Prometheus metrics on
// /metrics. It returns the address it is listening on.
func StartMetricsServer(ctx context.Context, addr string) (string, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		connectedGauge,
		connectAttemptsCounter,
		bytesInboundCounter,
		bytesOutboundCounter,
		renderFlushCounter,
		resizeFrameCounter,
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: mux}
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
			logx.Log.Error().Err(err).Str("addr", actual).Msg("metrics server error")
		}
	}()
	return actual, nil
}
