//go:build linux

package device

import (
	"fmt"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// DisableEcho turns off terminal echo on fd so held keys do not print into
// the shell. Signals keep working, unlike raw mode. The returned function
// restores the previous mode. It is a no-op when fd is not a terminal.
func DisableEcho(fd int) (restore func() error, err error) {
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}

	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("get terminal mode: %w", err)
	}

	t := *old
	t.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &t); err != nil {
		return nil, fmt.Errorf("disable echo: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, old)
	}, nil
}
