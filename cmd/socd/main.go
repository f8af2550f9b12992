// socd - SOCD cleaner for WASD movement keys
//
// socd reads a physical keyboard, resolves simultaneous opposing cardinal
// directions (A+D, W+S) so that the most recent press wins, and replays the
// resolved state of the four keys through a virtual uinput keyboard. Other
// keys are left alone on the physical device.
//
// It takes no arguments. Settings are read from $SOCD_CONFIG or
// $XDG_CONFIG_HOME/socd/config.toml when present and can be overridden with
// SOCD_* environment variables. Must run as root.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"socd/internal/config"
	"socd/internal/emitter"
	"socd/internal/logging"
	"socd/internal/metrics"
	"socd/internal/socd"
)

func main() {
	os.Exit(run())
}

func run() int {
	loader := config.NewLoader("")
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "socd: %v\n", err)
		return 1
	}

	lc, err := cfg.LogConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "socd: %v\n", err)
		return 1
	}
	logger, err := logging.New(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "socd: %v\n", err)
		return 1
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, _ := cfg.Policy()
	engine := socd.NewEngine(socd.DefaultBinding,
		socd.WithPolicy(policy),
		socd.WithSmoothing(cfg.Smoothing()),
	)

	watchConfig(ctx, loader, engine, logger)
	defer loader.Close()

	reg := metrics.NewRegistry("socd", "")
	m := emitter.NewMetrics(reg)

	logger.Info("starting",
		"config", loader.Path(),
		"mode", cfg.Input.Mode,
		"policy", policy.String(),
		"smoothing", cfg.Resolver.Smoothing.Enabled,
	)
	if logger.Level() <= logging.LevelDebug {
		if doc, err := cfg.TOML(); err == nil {
			logger.Debug("effective config", "toml", string(doc))
		}
	}

	err = serve(ctx, cfg, engine, m, logger)

	// metrics_on_exit may have been toggled by a reload
	if loader.Config().Debug.MetricsOnExit {
		var buf bytes.Buffer
		if werr := reg.WritePrometheus(&buf); werr == nil {
			logger.Info("metrics", "exposition", buf.String())
		}
	}

	if err != nil {
		logger.Error("fatal", "error", err)
		return 1
	}
	logger.Info("stopped", "metrics", reg.Snapshot())
	return 0
}

// watchConfig enables hot reload of the resolver section and the log level.
// Other sections need a restart. A missing config directory only disables
// reloading.
func watchConfig(ctx context.Context, loader *config.Loader, engine *socd.Engine, logger *logging.Logger) {
	loader.OnChange(func(old, cfg *config.Config) {
		if policy, err := cfg.Policy(); err == nil {
			engine.SetPolicy(policy)
		}
		engine.SetSmoothing(cfg.Smoothing())
		if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
		if old != nil && (old.Input != cfg.Input || old.Output != cfg.Output) {
			logger.Warn("input and output changes take effect after restart")
		}
		logger.Info("config reloaded",
			"policy", cfg.Resolver.Policy,
			"smoothing", cfg.Resolver.Smoothing.Enabled,
			"level", logging.LevelString(logger.Level()),
		)
	})

	if err := loader.Watch(); err != nil {
		logger.Debug("config hot reload disabled", "error", err)
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-loader.Errors():
				logger.Warn("config reload rejected", "error", err)
			}
		}
	}()
}
