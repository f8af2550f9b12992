package device

import (
	"encoding/binary"

	"socd/internal/socd"
)

// Linux input_event layout on 64-bit targets.
const (
	EventSize = 24

	offType  = 16
	offCode  = 18
	offValue = 20

	evSyn = 0x00
	evKey = 0x01

	synReport  = 0
	synDropped = 3

	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// ReadBufferEvents is how many events one read may return.
const ReadBufferEvents = 64

// RawEvent is a decoded input_event without its timestamp.
type RawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// DecodeRaw parses every whole event in buf.
func DecodeRaw(buf []byte) []RawEvent {
	out := make([]RawEvent, 0, len(buf)/EventSize)
	for off := 0; off+EventSize <= len(buf); off += EventSize {
		ev := buf[off : off+EventSize]
		out = append(out, RawEvent{
			Type:  binary.LittleEndian.Uint16(ev[offType:]),
			Code:  binary.LittleEndian.Uint16(ev[offCode:]),
			Value: int32(binary.LittleEndian.Uint32(ev[offValue:])),
		})
	}
	return out
}

// Transition converts a key press or release into a transition. Repeats
// and non-key events are rejected.
func (e RawEvent) Transition() (socd.Transition, bool) {
	if e.Type != evKey {
		return socd.Transition{}, false
	}
	switch e.Value {
	case keyDown:
		return socd.Transition{Code: e.Code, Down: true}, true
	case keyUp:
		return socd.Transition{Code: e.Code, Down: false}, true
	default:
		return socd.Transition{}, false
	}
}

// Dropped reports whether the kernel signalled lost events.
func (e RawEvent) Dropped() bool {
	return e.Type == evSyn && e.Code == synDropped
}

// Decode returns the key transitions in buf in order, and whether the
// kernel reported an overflow.
func Decode(buf []byte) (batch socd.Batch, dropped bool) {
	for _, ev := range DecodeRaw(buf) {
		if ev.Dropped() {
			dropped = true
			continue
		}
		if tr, ok := ev.Transition(); ok {
			batch = append(batch, tr)
		}
	}
	return batch, dropped
}

// Encode writes ev as a 24-byte input_event with a zero timestamp. It is the
// inverse of DecodeRaw and is used by tests and fakes.
func Encode(ev RawEvent) []byte {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint16(buf[offType:], ev.Type)
	binary.LittleEndian.PutUint16(buf[offCode:], ev.Code)
	binary.LittleEndian.PutUint32(buf[offValue:], uint32(ev.Value))
	return buf
}
