//go:build linux

package device

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"socd/internal/emitter"
	"socd/internal/socd"
)

// readBatch performs one read on fd and decodes it. Nothing pending is an
// empty batch, not an error. Interrupted and short reads are transient; a
// vanished device or EOF closes the source.
func readBatch(fd int, buf []byte) (socd.Batch, error) {
	n, err := unix.Read(fd, buf)
	switch {
	case err == nil:
	case errors.Is(err, unix.EAGAIN):
		return nil, nil
	case errors.Is(err, unix.EINTR):
		return nil, fmt.Errorf("%w: %v", emitter.ErrTransient, err)
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.EBADF), errors.Is(err, unix.EIO):
		return nil, fmt.Errorf("%w: %v", emitter.ErrSourceClosed, err)
	default:
		return nil, fmt.Errorf("read input: %w", err)
	}

	if n == 0 {
		return nil, emitter.ErrSourceClosed
	}
	if n < EventSize {
		return nil, fmt.Errorf("%w: short read of %d bytes", emitter.ErrTransient, n)
	}

	batch, _ := Decode(buf[:n])
	return batch, nil
}

func closeFD(fd *int) error {
	if *fd < 0 {
		return nil
	}
	err := unix.Close(*fd)
	*fd = -1
	return err
}
