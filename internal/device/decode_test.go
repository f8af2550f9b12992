package device

import (
	"bytes"
	"testing"

	"socd/internal/socd"
)

func frame(events ...RawEvent) []byte {
	var buf bytes.Buffer
	for _, ev := range events {
		buf.Write(Encode(ev))
	}
	return buf.Bytes()
}

func TestDecodeKeepsOrderAndDropsNoise(t *testing.T) {
	buf := frame(
		RawEvent{Type: 0x04, Code: 0x04, Value: 0x1a}, // EV_MSC scan code
		RawEvent{Type: evKey, Code: socd.CodeW, Value: keyDown},
		RawEvent{Type: evKey, Code: socd.CodeW, Value: keyRepeat},
		RawEvent{Type: evKey, Code: socd.CodeS, Value: keyDown},
		RawEvent{Type: evKey, Code: socd.CodeW, Value: keyUp},
		RawEvent{Type: evSyn, Code: synReport},
	)

	batch, dropped := Decode(buf)
	if dropped {
		t.Error("unexpected overflow")
	}
	want := socd.Batch{
		{Code: socd.CodeW, Down: true},
		{Code: socd.CodeS, Down: true},
		{Code: socd.CodeW, Down: false},
	}
	if len(batch) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %+v", len(want), len(batch), batch)
	}
	for i := range want {
		if batch[i] != want[i] {
			t.Errorf("transition %d: expected %+v, got %+v", i, want[i], batch[i])
		}
	}
}

func TestDecodeReportsOverflow(t *testing.T) {
	_, dropped := Decode(frame(RawEvent{Type: evSyn, Code: synDropped}))
	if !dropped {
		t.Error("expected SYN_DROPPED to be reported")
	}
}

func TestDecodeIgnoresTrailingPartialEvent(t *testing.T) {
	buf := frame(RawEvent{Type: evKey, Code: socd.CodeA, Value: keyDown})
	buf = append(buf, make([]byte, EventSize-1)...)

	raw := DecodeRaw(buf)
	if len(raw) != 1 {
		t.Fatalf("expected 1 event, got %d", len(raw))
	}
	if raw[0].Code != socd.CodeA || raw[0].Value != keyDown {
		t.Errorf("unexpected event %+v", raw[0])
	}
}

func TestDecodeNegativeValue(t *testing.T) {
	raw := DecodeRaw(Encode(RawEvent{Type: 0x02, Code: 0x00, Value: -5}))
	if raw[0].Value != -5 {
		t.Errorf("expected -5, got %d", raw[0].Value)
	}
	if _, ok := raw[0].Transition(); ok {
		t.Error("relative motion is not a key transition")
	}
}
