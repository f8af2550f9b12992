// Package config handles configuration loading and validation for socd.
//
// Configuration is optional. Without a file every value has a default that
// reproduces the plain last-input-wins cleaner on an interactively chosen
// keyboard. Files may be TOML, YAML or JSON and are checked against an
// embedded JSON schema before they are decoded.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"socd/internal/logging"
	"socd/internal/socd"
)

// Input modes.
const (
	ModePoll     = "poll"
	ModeNotify   = "notify"
	ModeThreaded = "threaded"
)

// Config is the complete socd configuration.
type Config struct {
	Input    InputConfig    `toml:"input" json:"input" yaml:"input"`
	Output   OutputConfig   `toml:"output" json:"output" yaml:"output"`
	Resolver ResolverConfig `toml:"resolver" json:"resolver" yaml:"resolver"`
	Logging  LoggingConfig  `toml:"logging" json:"logging" yaml:"logging"`
	Debug    DebugConfig    `toml:"debug" json:"debug" yaml:"debug"`
}

// InputConfig selects the keyboard and how it is read.
type InputConfig struct {
	// Mode is one of poll, notify or threaded.
	Mode string `toml:"mode" json:"mode" yaml:"mode"`

	// Device is an event device path. Empty means discover and prompt.
	Device string `toml:"device" json:"device" yaml:"device"`

	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"`
	ReadTimeoutMs  int `toml:"read_timeout_ms" json:"read_timeout_ms" yaml:"read_timeout_ms"`

	// QueueSize bounds the batches buffered between reader and emitter in
	// threaded mode.
	QueueSize int `toml:"queue_size" json:"queue_size" yaml:"queue_size"`
}

// OutputConfig identifies the virtual keyboard.
type OutputConfig struct {
	Name    string `toml:"name" json:"name" yaml:"name"`
	Vendor  uint16 `toml:"vendor" json:"vendor" yaml:"vendor"`
	Product uint16 `toml:"product" json:"product" yaml:"product"`
}

// ResolverConfig controls conflict resolution. It is the only section
// applied on hot reload besides the log level.
type ResolverConfig struct {
	Policy    string          `toml:"policy" json:"policy" yaml:"policy"`
	Smoothing SmoothingConfig `toml:"smoothing" json:"smoothing" yaml:"smoothing"`
}

// SmoothingConfig mirrors socd.SmoothingConfig in file units.
type SmoothingConfig struct {
	Enabled                bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	FrameUs                int  `toml:"frame_us" json:"frame_us" yaml:"frame_us"`
	SkipWhenOrthogonalHeld bool `toml:"skip_when_orthogonal_held" json:"skip_when_orthogonal_held" yaml:"skip_when_orthogonal_held"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// DebugConfig enables diagnostics.
type DebugConfig struct {
	// StatusIntervalSec logs real and virtual key states periodically when
	// positive.
	StatusIntervalSec int  `toml:"status_interval_sec" json:"status_interval_sec" yaml:"status_interval_sec"`
	MetricsOnExit     bool `toml:"metrics_on_exit" json:"metrics_on_exit" yaml:"metrics_on_exit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Mode:           ModeNotify,
			PollIntervalMs: 1,
			ReadTimeoutMs:  100,
			QueueSize:      64,
		},
		Output: OutputConfig{
			Name:    "socd_cleaner",
			Vendor:  0x1234,
			Product: 0x5678,
		},
		Resolver: ResolverConfig{
			Policy: socd.PolicyLast.String(),
			Smoothing: SmoothingConfig{
				Enabled:                false,
				FrameUs:                int(socd.DefaultFrame / time.Microsecond),
				SkipWhenOrthogonalHeld: true,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ConfigPath returns $SOCD_CONFIG, or config.toml under the socd config
// directory.
func ConfigPath() string {
	if p := os.Getenv("SOCD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// ConfigDir returns $XDG_CONFIG_HOME/socd, falling back to ~/.config/socd.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "socd")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "socd")
}

// ApplyEnvOverrides applies SOCD_* environment variables on top of the
// loaded values.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("SOCD_INPUT_MODE"); v != "" {
		c.Input.Mode = v
	}
	if v := os.Getenv("SOCD_DEVICE"); v != "" {
		c.Input.Device = v
	}
	if v := os.Getenv("SOCD_POLICY"); v != "" {
		c.Resolver.Policy = v
	}
	if v := os.Getenv("SOCD_SMOOTHING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SOCD_SMOOTHING: %w", err)
		}
		c.Resolver.Smoothing.Enabled = b
	}
	if v := os.Getenv("SOCD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SOCD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SOCD_STATUS_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOCD_STATUS_INTERVAL: %w", err)
		}
		c.Debug.StatusIntervalSec = n
	}
	return nil
}

// Policy returns the configured conflict policy.
func (c *Config) Policy() (socd.Policy, error) {
	return socd.ParsePolicy(c.Resolver.Policy)
}

// Smoothing returns the smoothing settings in engine units.
func (c *Config) Smoothing() socd.SmoothingConfig {
	s := c.Resolver.Smoothing
	return socd.SmoothingConfig{
		Enabled:                s.Enabled,
		Frame:                  time.Duration(s.FrameUs) * time.Microsecond,
		SkipWhenOrthogonalHeld: s.SkipWhenOrthogonalHeld,
	}
}

// PollInterval returns the sleep between reads in poll mode.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Input.PollIntervalMs) * time.Millisecond
}

// ReadTimeout returns the bound on one readiness wait in notify mode.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Input.ReadTimeoutMs) * time.Millisecond
}

// StatusInterval returns the debug status period, zero when disabled.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Debug.StatusIntervalSec) * time.Second
}

// LogConfig converts the logging section for logging.New.
func (c *Config) LogConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	lc.Output = c.Logging.Output
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	lc.MaxSizeMB = c.Logging.MaxSizeMB
	lc.MaxBackups = c.Logging.MaxBackups
	return lc, nil
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}
