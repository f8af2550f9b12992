// Package device finds the keyboard to read from and provides the evdev
// input sources and the uinput output sink used by the emitter loop.
//
// Discovery and event decoding are portable and covered by tests; the
// device I/O lives in the _linux.go files.
package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrNoDevices is returned when no keyboard candidate was found.
	ErrNoDevices = errors.New("no keyboard devices found")

	// ErrPermission is returned when the process may not open input
	// devices.
	ErrPermission = errors.New("insufficient privileges to read input devices")

	// ErrBadSelection is returned when the interactive choice could not be
	// read.
	ErrBadSelection = errors.New("no keyboard selected")
)

// DefaultSearchDirs are the udev symlink directories, in preference order.
var DefaultSearchDirs = []string{
	"/dev/input/by-id",
	"/dev/input/by-path",
}

const keyboardSuffix = "-event-kbd"

// Secondary interfaces of composite devices (media keys, macro pads) are
// exposed as "-ifNN-event-kbd"; the main keyboard never is.
var secondaryInterface = regexp.MustCompile(`-if[0-9]+-event-kbd$`)

// Candidate is a keyboard event device.
type Candidate struct {
	// Name is the symlink name, e.g. usb-Vendor_Keyboard-event-kbd.
	Name string
	// Path is the absolute symlink path.
	Path string
}

func (c Candidate) String() string {
	return c.Name
}

// IsKeyboardEntry reports whether a udev symlink name is a primary keyboard
// event device.
func IsKeyboardEntry(name string) bool {
	if len(name) <= len(keyboardSuffix) {
		return false
	}
	return strings.HasSuffix(name, keyboardSuffix) && !secondaryInterface.MatchString(name)
}

// Discover lists keyboard candidates from the first readable directory in
// dirs. Candidates are sorted by name so indexes are stable across runs.
func Discover(dirs ...string) ([]Candidate, error) {
	if len(dirs) == 0 {
		dirs = DefaultSearchDirs
	}

	var lastErr error
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			lastErr = err
			continue
		}

		var out []Candidate
		for _, e := range entries {
			if e.IsDir() || !IsKeyboardEntry(e.Name()) {
				continue
			}
			out = append(out, Candidate{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w in %s", ErrNoDevices, dir)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevices, lastErr)
	}
	return nil, ErrNoDevices
}
