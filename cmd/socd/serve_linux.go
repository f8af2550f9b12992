//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"socd/internal/config"
	"socd/internal/device"
	"socd/internal/emitter"
	"socd/internal/logging"
	"socd/internal/socd"
)

// serve runs the cleaner until ctx is cancelled or a fatal error occurs.
// Teardown of the source, the virtual device and the terminal happens
// before it returns.
func serve(ctx context.Context, cfg *config.Config, engine *socd.Engine, m *emitter.Metrics, logger *logging.Logger) error {
	log := logger.Logger
	if err := device.CheckPrivilege(); err != nil {
		return err
	}

	path, err := chooseDevice(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			// interrupted at the prompt
			return nil
		}
		return err
	}
	log.Info("reading inputs", "device", path, "name", device.DescribeDevice(path))

	sink, err := device.CreateSink(device.SinkConfig{
		Name:    cfg.Output.Name,
		Vendor:  cfg.Output.Vendor,
		Product: cfg.Output.Product,
	}, engine.Binding().Codes())
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("destroy virtual device", "error", err)
		}
	}()

	src, err := openSource(ctx, cfg, path, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil && !errors.Is(err, emitter.ErrSourceClosed) {
			log.Warn("close input", "error", err)
		}
	}()

	restore, err := device.DisableEcho(int(os.Stdin.Fd()))
	if err != nil {
		log.Warn("terminal echo left on", "error", err)
	} else {
		defer restore()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if interval := cfg.StatusInterval(); interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emitter.ReportStatus(ctx, engine, interval, logger.WithComponent("status"))
		}()
	}

	loop := emitter.NewLoop(engine, src, sink, logger.WithComponent("emitter"), m)
	log.Info("running", "mode", cfg.Input.Mode, "virtual_device", cfg.Output.Name)
	err = loop.Run(ctx)

	cancel()
	wg.Wait()
	return err
}

// chooseDevice returns the configured device, or discovers keyboards and
// asks on stdin when there is more than one. Cancelling ctx abandons the
// prompt.
func chooseDevice(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Input.Device != "" {
		return cfg.Input.Device, nil
	}

	cands, err := device.Discover()
	if err != nil {
		return "", err
	}
	c, err := device.Select(ctx, cands, os.Stdin, os.Stdout, device.DescribeDevice)
	if err != nil {
		return "", err
	}
	return c.Path, nil
}

func openSource(ctx context.Context, cfg *config.Config, path string, m *emitter.Metrics) (emitter.Source, error) {
	switch cfg.Input.Mode {
	case config.ModePoll:
		return device.OpenPoll(path, cfg.PollInterval())
	case config.ModeNotify:
		return device.OpenNotify(path, cfg.ReadTimeout())
	case config.ModeThreaded:
		r, err := device.OpenReader(path)
		if err != nil {
			return nil, err
		}
		q := emitter.NewQueuedSource(r, cfg.Input.QueueSize, m)
		q.Start(ctx)
		return q, nil
	default:
		return nil, fmt.Errorf("unknown input mode %q", cfg.Input.Mode)
	}
}
