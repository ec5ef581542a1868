package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentuity/termbridge/internal/bridge"
	"github.com/agentuity/termbridge/internal/config"
	"github.com/agentuity/termbridge/internal/display"
	"github.com/agentuity/termbridge/internal/logx"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.BridgeConfig
	cfg.BindFlags()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "termbridge version=%s sha=%s date=%s\n\nusage: termbridge [flags] [session-id]\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("termbridge version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)
	bridge.SetBuildInfo(version, buildSHA, buildDate)

	if cfg.SessionID == "" {
		cfg.SessionID = flag.Arg(0)
	}
	if cfg.SessionID == "" {
		logx.Log.Fatal().Msg("no session id; pass --session or a positional session-id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logx.Log.Info().
		Str("session_id", cfg.SessionID).
		Str("instance_name", cfg.InstanceName).
		Str("base_url", cfg.BaseURL).
		Msg("bridge starting")

	tty := display.NewTTY(os.Stdin, os.Stdout)
	b := bridge.New(bridge.Config{
		SessionID:       cfg.SessionID,
		BaseURL:         cfg.BaseURL,
		InstanceName:    cfg.InstanceName,
		PaintInterval:   cfg.PaintInterval,
		ResizeThreshold: cfg.ResizeThreshold,
	}, tty, nil)

	if err := b.Start(ctx); err != nil {
		logx.Log.Fatal().Err(err).Msg("bridge start")
	}
	defer b.Close()

	if cfg.StatusAddr != "" {
		addr, err := bridge.StartStatusServer(ctx, cfg.StatusAddr, b)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.StatusAddr).Msg("status server")
		}
		logx.Log.Info().Str("addr", addr).Msg("status server listening")
	}
	if cfg.MetricsAddr != "" {
		addr, err := bridge.StartMetricsServer(ctx, cfg.MetricsAddr)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server")
		}
		logx.Log.Info().Str("addr", addr).Msg("metrics server listening")
	}

	if err := run(ctx, b, cfg.Reconnect); err != nil {
		logx.Log.Error().Err(err).Msg("bridge exited")
		os.Exit(1)
	}
}

// run supervises the bridge until the session ends or the user interrupts.
// Reconnection is explicit: the bridge never redials by itself, so the
// opt-in loop here drives its Reconnect transition with backoff.
func run(ctx context.Context, b *bridge.Bridge, reconnect bool) error {
	const pollInterval = 250 * time.Millisecond
	attempt := 0
	wasConnected := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}

		st := b.Status()
		switch st {
		case bridge.StatusConnected:
			attempt = 0
			wasConnected = true
		case bridge.StatusDisconnected, bridge.StatusError:
			if !wasConnected && st == bridge.StatusDisconnected {
				// Still waiting for the first size-triggered connect.
				continue
			}
			if !reconnect {
				if st == bridge.StatusError {
					return errors.New(b.StatusMessage())
				}
				return nil
			}
			delay := bridge.ReconnectDelay(attempt)
			attempt++
			logx.Log.Warn().Dur("backoff", delay).Str("status", string(st)).Msg("connection lost; retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			if err := b.Reconnect(); err != nil && !errors.Is(err, bridge.ErrNotReconnectable) {
				return err
			}
		}
	}
}
