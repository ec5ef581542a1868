// Package config carries runtime configuration for the terminal bridge.
// Defaults come from environment variables, may be overridden by an
// optional YAML file, and finally by command line flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// BridgeConfig holds configuration for one bridge process.
type BridgeConfig struct {
	BaseURL         string        `yaml:"base_url"`
	SessionID       string        `yaml:"session_id"`
	InstanceName    string        `yaml:"instance_name"`
	StatusAddr      string        `yaml:"status_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	PaintInterval   time.Duration `yaml:"paint_interval"`
	ResizeThreshold int           `yaml:"resize_threshold"`
	Reconnect       bool          `yaml:"reconnect"`
	LogLevel        string        `yaml:"log_level"`
	ConfigFile      string        `yaml:"-"`
}

// BindFlags populates the struct with defaults from environment variables
// and binds command line flags so main can call flag.Parse().
func (c *BridgeConfig) BindFlags() {
	c.ConfigFile = getEnv("CONFIG_FILE", DefaultConfigPath("bridge.yaml"))
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.BaseURL = getEnv("BASE_URL", "http://localhost:3000")
	c.SessionID = getEnv("SESSION_ID", "")
	c.StatusAddr = getEnv("STATUS_ADDR", "")
	c.MetricsAddr = getEnv("METRICS_ADDR", "")
	if d, err := time.ParseDuration(getEnv("PAINT_INTERVAL", "16ms")); err == nil {
		c.PaintInterval = d
	} else {
		c.PaintInterval = 16 * time.Millisecond
	}
	if v, err := strconv.Atoi(getEnv("RESIZE_THRESHOLD", "1")); err == nil {
		c.ResizeThreshold = v
	} else {
		c.ResizeThreshold = 1
	}
	if b, err := strconv.ParseBool(getEnv("RECONNECT", "false")); err == nil {
		c.Reconnect = b
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "bridge-" + uuid.NewString()[:8]
	}
	c.InstanceName = getEnv("INSTANCE_NAME", host)

	flag.StringVar(&c.BaseURL, "base-url", c.BaseURL, "session API origin (e.g. https://app.agentuity.com)")
	flag.StringVar(&c.SessionID, "session", c.SessionID, "session id to attach the terminal to")
	flag.StringVar(&c.InstanceName, "instance-name", c.InstanceName, "bridge display name shown in logs and status")
	flag.StringVar(&c.StatusAddr, "status-addr", c.StatusAddr, "local status HTTP listen address (enables /status; e.g. 127.0.0.1:4555)")
	flag.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Prometheus metrics listen address (disabled when empty)")
	flag.DurationVar(&c.PaintInterval, "paint-interval", c.PaintInterval, "render tick interval for coalesced output")
	flag.IntVar(&c.ResizeThreshold, "resize-threshold", c.ResizeThreshold, "minimum size delta (cells) for a resize to take effect")
	flag.BoolVar(&c.Reconnect, "reconnect", c.Reconnect, "reconnect with backoff after a lost connection")
	flag.BoolVar(&c.Reconnect, "r", c.Reconnect, "short for --reconnect")
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "bridge config file path")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
}

// LoadFile populates the config from a YAML file. Fields already set
// remain unless overwritten by corresponding entries in the file.
func (c *BridgeConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
