//go:build linux

package device

import (
	"fmt"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// SinkConfig identifies the virtual device.
type SinkConfig struct {
	Name    string
	Vendor  uint16
	Product uint16
}

const busUSB = 0x03

// UinputSink is a uinput virtual keyboard that can only report the bound
// keys.
type UinputSink struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

// CreateSink registers a virtual device declaring codes as its only keys.
func CreateSink(cfg SinkConfig, codes []uint16) (*UinputSink, error) {
	keys := make([]evdev.EvCode, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, evdev.EvCode(c))
	}

	dev, err := evdev.CreateDevice(cfg.Name, evdev.InputID{
		BusType: busUSB,
		Vendor:  cfg.Vendor,
		Product: cfg.Product,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
	})
	if err != nil {
		return nil, fmt.Errorf("create uinput device %q: %w", cfg.Name, err)
	}
	return &UinputSink{dev: dev}, nil
}

func (s *UinputSink) write(t evdev.EvType, code evdev.EvCode, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("uinput device closed")
	}
	return s.dev.WriteOne(&evdev.InputEvent{Type: t, Code: code, Value: value})
}

// Report writes one key state.
func (s *UinputSink) Report(code uint16, pressed bool) error {
	var v int32
	if pressed {
		v = keyDown
	}
	return s.write(evdev.EV_KEY, evdev.EvCode(code), v)
}

// Sync writes SYN_REPORT.
func (s *UinputSink) Sync() error {
	return s.write(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Close destroys the virtual device.
func (s *UinputSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}

// DescribeDevice returns the kernel name of the device at path, or "" if
// it cannot be opened.
func DescribeDevice(path string) string {
	dev, err := evdev.Open(path)
	if err != nil {
		return ""
	}
	defer dev.Close()

	name, err := dev.Name()
	if err != nil {
		return ""
	}
	return name
}
