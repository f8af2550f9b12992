//go:build !linux

package main

import (
	"context"
	"errors"

	"socd/internal/config"
	"socd/internal/emitter"
	"socd/internal/logging"
	"socd/internal/socd"
)

func serve(ctx context.Context, cfg *config.Config, engine *socd.Engine, m *emitter.Metrics, logger *logging.Logger) error {
	return errors.New("socd needs Linux evdev and uinput")
}
