package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socd/internal/logging"
	"socd/internal/socd"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeNotify, cfg.Input.Mode)
	assert.Equal(t, "socd_cleaner", cfg.Output.Name)
	assert.Equal(t, uint16(0x1234), cfg.Output.Vendor)
	assert.Equal(t, uint16(0x5678), cfg.Output.Product)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, socd.PolicyLast, policy)

	sm := cfg.Smoothing()
	assert.False(t, sm.Enabled)
	assert.True(t, sm.SkipWhenOrthogonalHeld)
	assert.Equal(t, socd.DefaultFrame, sm.Frame)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("SOCD_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg-test")
	assert.Equal(t, "/etc/xdg-test/socd/config.toml", ConfigPath())

	t.Setenv("SOCD_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", ConfigPath())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[input]
mode = "threaded"
device = "/dev/input/by-id/usb-Board-event-kbd"
queue_size = 16

[output]
vendor = 0x1111

[resolver]
policy = "neutral"

[resolver.smoothing]
enabled = true
frame_us = 8000
skip_when_orthogonal_held = false

[debug]
status_interval_sec = 2
metrics_on_exit = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeThreaded, cfg.Input.Mode)
	assert.Equal(t, "/dev/input/by-id/usb-Board-event-kbd", cfg.Input.Device)
	assert.Equal(t, 16, cfg.Input.QueueSize)
	assert.Equal(t, uint16(0x1111), cfg.Output.Vendor)
	assert.Equal(t, uint16(0x5678), cfg.Output.Product, "unset keys keep defaults")

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, socd.PolicyNeutral, policy)
	assert.Equal(t, socd.SmoothingConfig{
		Enabled:                true,
		Frame:                  8 * time.Millisecond,
		SkipWhenOrthogonalHeld: false,
	}, cfg.Smoothing())
	assert.Equal(t, 2*time.Second, cfg.StatusInterval())
	assert.True(t, cfg.Debug.MetricsOnExit)
}

func TestLoadYAMLAndJSON(t *testing.T) {
	yamlPath := writeFile(t, "config.yaml", `
input:
  mode: poll
  poll_interval_ms: 2
resolver:
  policy: first
`)
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, ModePoll, cfg.Input.Mode)
	assert.Equal(t, 2*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "first", cfg.Resolver.Policy)

	jsonPath := writeFile(t, "config.json", `{"input": {"read_timeout_ms": 250}, "logging": {"format": "json"}}`)
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadTimeout())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "config.toml", `
[resolver]
policy = "last"
keybinds = ["q", "e"]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestSchemaRejectsWrongTypes(t *testing.T) {
	tests := map[string]string{
		"string for integer": `{"input": {"queue_size": "many"}}`,
		"unknown mode":       `{"input": {"mode": "interrupt"}}`,
		"vendor too large":   `{"output": {"vendor": 70000}}`,
		"bool as string":     `{"resolver": {"smoothing": {"enabled": "yes"}}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", doc))
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", "[input\nmode = poll"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchema)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOCD_INPUT_MODE", "poll")
	t.Setenv("SOCD_DEVICE", "/dev/input/event3")
	t.Setenv("SOCD_POLICY", "first")
	t.Setenv("SOCD_SMOOTHING", "true")
	t.Setenv("SOCD_LOG_LEVEL", "debug")
	t.Setenv("SOCD_STATUS_INTERVAL", "5")

	cfg, err := Load(writeFile(t, "config.toml", "[input]\nmode = \"threaded\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ModePoll, cfg.Input.Mode, "environment wins over file")
	assert.Equal(t, "/dev/input/event3", cfg.Input.Device)
	assert.Equal(t, "first", cfg.Resolver.Policy)
	assert.True(t, cfg.Resolver.Smoothing.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Debug.StatusIntervalSec)
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("SOCD_SMOOTHING", "sometimes")
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorContains(t, err, "SOCD_SMOOTHING")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Mode = "busy"
	cfg.Input.Device = "relative/event0"
	cfg.Output.Name = ""
	cfg.Resolver.Policy = "random"
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""

	err := cfg.Validate()
	require.Error(t, err)

	fields := map[string]bool{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		require.True(t, errors.As(e, &ve), "unexpected error type %T", e)
		fields[ve.Field] = true
	}
	for _, f := range []string{"input.mode", "input.device", "output.name", "resolver.policy", "logging.file_path"} {
		assert.True(t, fields[f], "missing error for %s", f)
	}
}

func TestValidateSmoothingFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolver.Smoothing.FrameUs = 0
	assert.NoError(t, cfg.Validate(), "frame is irrelevant while disabled")

	cfg.Resolver.Smoothing.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestLogConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"

	lc, err := cfg.LogConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.Equal(t, "socd", lc.Component)
}

func TestTOMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolver.Policy = "neutral"
	cfg.Input.Device = "/dev/input/event7"

	data, err := cfg.TOML()
	require.NoError(t, err)

	got := DefaultConfig()
	require.NoError(t, Decode(data, FormatTOML, got), "encoded config must satisfy the schema")
	assert.Equal(t, cfg, got)
}
