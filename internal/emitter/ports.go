// Package emitter runs the read-resolve-emit loop between an input device
// and a virtual output device.
//
// The loop only depends on the Source and Sink ports below; the device
// package provides evdev and uinput implementations and tests use fakes.
package emitter

import (
	"context"
	"errors"

	"socd/internal/socd"
)

// Source yields batches of raw key transitions.
type Source interface {
	// NextBatch waits for zero or more transitions. It must return when ctx
	// is done or its deadline passes. Errors wrapping ErrTransient are
	// retried by the loop; any other error stops it.
	NextBatch(ctx context.Context) (socd.Batch, error)

	// Close releases the device.
	Close() error
}

// Sink receives key state reports.
type Sink interface {
	// Report writes the state of one key.
	Report(code uint16, pressed bool) error

	// Sync terminates a group of reports.
	Sync() error

	// Close unregisters the device.
	Close() error
}

var (
	// ErrTransient marks a read failure that is safe to retry.
	ErrTransient = errors.New("transient input error")

	// ErrSourceClosed is returned when the input device went away.
	ErrSourceClosed = errors.New("input source closed")

	// ErrSink wraps every failure to write to the output device.
	ErrSink = errors.New("output sink failed")
)
