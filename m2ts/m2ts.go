/*
NAME
  m2ts.go

DESCRIPTION
  m2ts.go implements the M2TS/BDAV reorder buffer (spec §4.J): each
  192-byte M2TS entry is a 4-byte big-endian timestamp followed by one
  188-byte transport-stream packet; entries may arrive slightly
  out-of-order on disk and must be re-sorted by timestamp within a
  bounded sliding window before being handed on as a plain TS stream.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package m2ts provides a timestamp reorder buffer for M2TS (BDAV)
// streams, the transport-stream peer of package mts shaped on
// container/mts's small single-purpose state machines (e.g.
// discontinuity.go).
package m2ts

import (
	"container/list"

	"github.com/ausocean/tscore/errs"
)

const (
	// TimestampLen is the size in bytes of an M2TS entry's leading
	// timestamp field.
	TimestampLen = 4
	// PacketLen is the size of the transport-stream packet that follows
	// the timestamp in every M2TS entry.
	PacketLen = 188
	// EntryLen is TimestampLen + PacketLen.
	EntryLen = TimestampLen + PacketLen

	// DefaultWindow is the default reorder window size, in entries.
	DefaultWindow = 4
)

// Entry is one parsed M2TS record.
type Entry struct {
	Timestamp uint32 // 32-bit, unit defined by the recording device; wraps at 2^32.
	Packet    [PacketLen]byte
}

// ParseEntry parses a single 192-byte M2TS record from buf.
func ParseEntry(buf []byte) (Entry, error) {
	if len(buf) < EntryLen {
		return Entry{}, errs.UnexpectedEof
	}
	var e Entry
	e.Timestamp = uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	copy(e.Packet[:], buf[TimestampLen:EntryLen])
	return e, nil
}

// Buffer re-orders M2TS entries into ascending timestamp order within a
// bounded window. It does not detect or correct 32-bit timestamp
// wraparound (spec §4.J, §9): callers recording more than roughly 13
// hours at a 90kHz clock (or the equivalent for the device's own
// timestamp unit) must split the recording themselves.
type Buffer struct {
	window int
	items  *list.List // ascending by Timestamp.
}

// NewBuffer returns a Buffer with reorder window size window. A window of
// 0 or less is treated as DefaultWindow.
func NewBuffer(window int) *Buffer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Buffer{window: window, items: list.New()}
}

// Push inserts e into the buffer, splicing it into ascending-timestamp
// order by scanning backward from the tail (entries normally arrive
// nearly in order, so this is usually O(1)).
func (b *Buffer) Push(e Entry) {
	for el := b.items.Back(); el != nil; el = el.Prev() {
		if el.Value.(Entry).Timestamp <= e.Timestamp {
			b.items.InsertAfter(e, el)
			return
		}
	}
	b.items.PushFront(e)
}

// Ready reports whether the buffer holds enough entries to safely pop
// its earliest one without risking a later Push reordering it in ahead.
func (b *Buffer) Ready() bool {
	return b.items.Len() > b.window
}

// Pop removes and returns the earliest buffered entry. It's the caller's
// responsibility to check Ready first, except during a final Flush.
func (b *Buffer) Pop() (Entry, bool) {
	front := b.items.Front()
	if front == nil {
		return Entry{}, false
	}
	b.items.Remove(front)
	return front.Value.(Entry), true
}

// Len returns the number of entries currently buffered.
func (b *Buffer) Len() int {
	return b.items.Len()
}

// Flush drains every remaining buffered entry in ascending timestamp
// order, for use once the input stream is exhausted.
func (b *Buffer) Flush() []Entry {
	out := make([]Entry, 0, b.items.Len())
	for {
		e, ok := b.Pop()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}
