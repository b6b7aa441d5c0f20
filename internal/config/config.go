// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and BANDBOARD_* environment variables over the defaults.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration shared by the server and bandctl.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// DataDir holds the four watched JSON sources.
	DataDir string `koanf:"data_dir"`

	// WebappDir is served as static content at "/".
	WebappDir string `koanf:"webapp_dir"`

	// OutboxSize bounds the per-session outbound payload queue.
	OutboxSize int `koanf:"outbox_size"`

	// ExportFile is the default destination of bandctl consolidate.
	ExportFile string `koanf:"export_file"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsInterval is how often system gauges are sampled, e.g. "10s".
	MetricsInterval time.Duration `koanf:"metrics_interval"`

	// BandNames lists the school names the trend aggregation follows.
	BandNames []string `koanf:"band_names"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Addr:       ":3000",
		DataDir:    "JSON Files",
		WebappDir:  "webapp",
		OutboxSize: 64,
		ExportFile: "consolidated_scores.json",

		MetricsEnabled:  true,
		MetricsInterval: 10 * time.Second,

		BandNames: []string{"Orem City", "Orem High", "Orem High School", "Orem"},
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.OutboxSize <= 0:
		return fmt.Errorf("%w: outbox_size must be positive, got %d", ErrInvalidConfig, c.OutboxSize)
	case c.MetricsInterval <= 0:
		return fmt.Errorf("%w: metrics_interval must be positive, got %s", ErrInvalidConfig, c.MetricsInterval)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
