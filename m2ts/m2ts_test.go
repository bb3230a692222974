package m2ts

import (
	"testing"
)

func TestBufferReordersWithinWindow(t *testing.T) {
	ts := []uint32{100, 120, 110, 130, 115}
	b := NewBuffer(2)

	var out []uint32
	for _, t := range ts {
		b.Push(mkEntry(t))
		for b.Ready() {
			e, _ := b.Pop()
			out = append(out, e.Timestamp)
		}
	}
	for _, e := range b.Flush() {
		out = append(out, e.Timestamp)
	}

	want := []uint32{100, 110, 115, 120, 130}
	if len(out) != len(want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d (out=%v)", i, out[i], want[i], out)
		}
	}
}

func mkEntry(ts uint32) Entry {
	var e Entry
	e.Timestamp = ts
	return e
}

func TestParseEntry(t *testing.T) {
	buf := make([]byte, EntryLen)
	buf[0], buf[1], buf[2], buf[3] = 0x00, 0x00, 0x01, 0x2c // timestamp = 300
	buf[TimestampLen] = 0x47                                // TS sync byte.

	e, err := ParseEntry(buf)
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	if e.Timestamp != 300 {
		t.Errorf("Timestamp = %d, want 300", e.Timestamp)
	}
	if e.Packet[0] != 0x47 {
		t.Errorf("Packet[0] = %#x, want 0x47", e.Packet[0])
	}
}

func TestParseEntryTooShort(t *testing.T) {
	_, err := ParseEntry(make([]byte, EntryLen-1))
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
