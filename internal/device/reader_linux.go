//go:build linux

package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	evdev "github.com/holoplot/go-evdev"

	"socd/internal/emitter"
	"socd/internal/socd"
)

// ReaderSource does blocking reads through go-evdev and returns one batch
// per SYN_REPORT frame. It ignores ctx while blocked; run it behind an
// emitter.QueuedSource, whose Close unblocks the read.
type ReaderSource struct {
	dev       *evdev.InputDevice
	closeOnce sync.Once
	closeErr  error
}

// OpenReader opens path for blocking reads.
func OpenReader(path string) (*ReaderSource, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", ErrPermission, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &ReaderSource{dev: dev}, nil
}

// NextBatch reads events until the end of the current frame.
func (r *ReaderSource) NextBatch(ctx context.Context) (socd.Batch, error) {
	var batch socd.Batch
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev, err := r.dev.ReadOne()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil, emitter.ErrSourceClosed
			}
			return nil, fmt.Errorf("%w: %v", emitter.ErrSourceClosed, err)
		}

		raw := RawEvent{Type: uint16(ev.Type), Code: uint16(ev.Code), Value: ev.Value}
		if raw.Type == evSyn && raw.Code == synReport {
			return batch, nil
		}
		if tr, ok := raw.Transition(); ok {
			batch = append(batch, tr)
		}
	}
}

// Close closes the device.
func (r *ReaderSource) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.dev.Close()
	})
	return r.closeErr
}
