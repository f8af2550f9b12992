package config

import (
	"errors"
	"fmt"
	"strings"

	"socd/internal/logging"
	"socd/internal/socd"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration and returns every problem found,
// joined with errors.Join. Each joined error is a *ValidationError.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.validateInput()...)
	errs = append(errs, c.validateOutput()...)
	errs = append(errs, c.validateResolver()...)
	errs = append(errs, c.validateLogging()...)

	if c.Debug.StatusIntervalSec < 0 {
		errs = append(errs, invalid("debug.status_interval_sec", "must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateInput() []error {
	var errs []error
	switch c.Input.Mode {
	case ModePoll, ModeNotify, ModeThreaded:
	default:
		errs = append(errs, invalid("input.mode", "unknown mode %q (want poll, notify or threaded)", c.Input.Mode))
	}
	if c.Input.Mode == ModePoll && c.Input.PollIntervalMs < 0 {
		errs = append(errs, invalid("input.poll_interval_ms", "must not be negative"))
	}
	if c.Input.Mode == ModeNotify && c.Input.ReadTimeoutMs < 0 {
		errs = append(errs, invalid("input.read_timeout_ms", "must not be negative"))
	}
	if c.Input.Mode == ModeThreaded && c.Input.QueueSize < 1 {
		errs = append(errs, invalid("input.queue_size", "must be at least 1"))
	}
	if c.Input.Device != "" && !strings.HasPrefix(c.Input.Device, "/") {
		errs = append(errs, invalid("input.device", "must be an absolute path"))
	}
	return errs
}

func (c *Config) validateOutput() []error {
	var errs []error
	name := c.Output.Name
	if name == "" {
		errs = append(errs, invalid("output.name", "is required"))
	}
	// uinput device names are limited to UINPUT_MAX_NAME_SIZE including NUL.
	if len(name) >= 80 {
		errs = append(errs, invalid("output.name", "longer than 79 bytes"))
	}
	return errs
}

func (c *Config) validateResolver() []error {
	var errs []error
	if _, err := socd.ParsePolicy(c.Resolver.Policy); err != nil {
		errs = append(errs, invalid("resolver.policy", "%v", err))
	}
	if s := c.Resolver.Smoothing; s.Enabled && s.FrameUs <= 0 {
		errs = append(errs, invalid("resolver.smoothing.frame_us", "must be positive when smoothing is enabled"))
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, invalid("logging.level", "%v", err))
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errs = append(errs, invalid("logging.format", "%v", err))
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stderr", "stdout":
	case "file", "both":
		if c.Logging.FilePath == "" {
			errs = append(errs, invalid("logging.file_path", "required when output is %s", c.Logging.Output))
		}
	default:
		errs = append(errs, invalid("logging.output", "unknown output %q", c.Logging.Output))
	}
	return errs
}
