//go:build linux

package device

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckPrivilege fails unless the process runs as root.
func CheckPrivilege() error {
	if unix.Geteuid() != 0 {
		return fmt.Errorf("%w: run as root", ErrPermission)
	}
	return nil
}

// openInput opens an event device for reading, optionally non-blocking.
func openInput(path string, nonblock bool) (int, error) {
	flags := unix.O_RDONLY | unix.O_CLOEXEC
	if nonblock {
		flags |= unix.O_NONBLOCK
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return -1, fmt.Errorf("%w: open %s: %v", ErrPermission, path, err)
		}
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	return fd, nil
}
