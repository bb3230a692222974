/*
NAME
  reverse.go

DESCRIPTION
  reverse.go implements the reverse-playback indexer (spec §4.H): while
  scanning forward through an elementary stream, it records the file
  offset of every kept picture (H.264 IDR or all-I-slice access units;
  H.262/AVS I-pictures), then on request re-emits those pictures in
  reverse file order, optionally decimated, re-seeking into the original
  byte source to replay each one.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package reverse implements a reverse-playback picture index (spec
// §4.H), grounded on container/mts/payload.go's Clip/Frame parallel-slice
// design, repurposed here from in-memory PTS-range lookup to
// seek-and-replay against a ByteSource.
package reverse

import (
	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// entry records where one kept picture (or, for H.262, a sequence
// header) starts in the original stream.
type entry struct {
	index     uint32 // picture ordinal at which this entry was recorded (spec §3).
	start     iobyte.FileOffset
	length    int64 // -1 if unknown (extends to the next entry's start).
	seqHeader bool  // true if this entry is a sequence header's bytes, not a picture (H.262 only).
}

// Index accumulates kept-picture offsets during a forward scan and
// replays them in reverse on request.
type Index struct {
	entries []entry

	lastPosnAdded   int64 // Infile offset of the most recently added entry, or -1.
	paramsEmitted   bool  // whether ParamOffsets have already been prepended.
	firstWritten    uint32
	hasFirstWritten bool
	picturesKept    uint32
	picturesWritten uint32

	// ParamOffsets, for H.264 streams, are the offset and length of the
	// SPS/PPS NAL units to prepend before the first emitted frame, set by
	// the caller once known (spec §4.G/§4.H interaction).
	ParamOffsets []ParamRef
}

// ParamRef identifies a parameter-set NAL unit's bytes in the original
// stream, by file offset and length, as returned by nal.Dictionary's
// SPSOffset/PPSOffset.
type ParamRef struct {
	Start  iobyte.FileOffset
	Length int64
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{lastPosnAdded: -1}
}

// Remember records a kept picture at ordinal index, starting at posn. It
// is an error (but otherwise a no-op) if posn does not advance beyond
// the previously remembered position: pictures must be offered in
// increasing file order.
func (idx *Index) Remember(index uint32, posn iobyte.FileOffset) error {
	if err := idx.add(entry{index: index, start: posn, length: -1}); err != nil {
		return err
	}
	idx.picturesKept++
	return nil
}

// RememberSeqHeader records a H.262 sequence header's bytes at ordinal
// index, starting at posn (spec §4.H: "for H.262 also append an entry
// for every encountered sequence header, marked by seq_offset"). Unlike
// Remember, it does not count toward PicturesKept/PicturesWritten: a
// sequence header is not itself a picture.
func (idx *Index) RememberSeqHeader(index uint32, posn iobyte.FileOffset) error {
	return idx.add(entry{index: index, start: posn, length: -1, seqHeader: true})
}

func (idx *Index) add(e entry) error {
	if e.start.Infile <= idx.lastPosnAdded {
		return errs.BrokenUnit
	}
	if n := len(idx.entries); n > 0 {
		idx.entries[n-1].length = e.start.Infile - idx.entries[n-1].start.Infile
	}
	idx.entries = append(idx.entries, e)
	idx.lastPosnAdded = e.start.Infile
	return nil
}

// Close finalizes the last entry's length given the overall stream
// length in bytes (only known once the forward scan reaches EOF).
func (idx *Index) Close(streamLen int64) {
	if n := len(idx.entries); n > 0 && idx.entries[n-1].length < 0 {
		idx.entries[n-1].length = streamLen - idx.entries[n-1].start.Infile
	}
}

// Rewind resets the index to empty, as if no pictures had been recorded,
// while keeping previously configured ParamOffsets. Used when a new
// recording segment starts in the same process.
func (idx *Index) Rewind() {
	idx.entries = nil
	idx.lastPosnAdded = -1
	idx.paramsEmitted = false
	idx.hasFirstWritten = false
	idx.firstWritten = 0
	idx.picturesKept = 0
	idx.picturesWritten = 0
}

// Len returns the number of entries (pictures and sequence headers)
// currently recorded.
func (idx *Index) Len() int { return len(idx.entries) }

// PicturesKept returns the total number of pictures Remember has
// accepted since the last Rewind.
func (idx *Index) PicturesKept() uint32 { return idx.picturesKept }

// PicturesWritten returns the number of pictures Emit has produced since
// the last Rewind.
func (idx *Index) PicturesWritten() uint32 { return idx.picturesWritten }

// FirstWritten returns the original picture ordinal of the first picture
// Emit wrote (the highest original index emitted, used to report
// reversal percentages per spec §3/§4.H), and whether Emit has written
// any picture yet.
func (idx *Index) FirstWritten() (uint32, bool) { return idx.firstWritten, idx.hasFirstWritten }

// Reader seeks into and reads bytes from the original stream.
type Reader interface {
	Seek(iobyte.FileOffset) error
	Read(p []byte) (int, error)
}

// Emit replays recorded pictures in reverse file order, keeping every
// f'th one (f=1 keeps all), reading each picture's bytes back from src.
// Before the first emitted picture, it prepends the raw bytes at each of
// ParamOffsets in order (e.g. the most recent SPS and PPS), so a decoder
// fed only the reversed stream still has the parameter sets it needs.
func (idx *Index) Emit(src Reader, f uint32, emit func([]byte) error) error {
	if f == 0 {
		f = 1
	}
	if !idx.paramsEmitted {
		for _, ref := range idx.ParamOffsets {
			buf, err := readAt(src, entry{start: ref.Start, length: ref.Length})
			if err != nil {
				return err
			}
			if err := emit(buf); err != nil {
				return err
			}
		}
	}
	for i := len(idx.entries) - 1; i >= 0; i -= int(f) {
		e := idx.entries[i]
		buf, err := readAt(src, e)
		if err != nil {
			return err
		}
		idx.paramsEmitted = true
		if err := emit(buf); err != nil {
			return err
		}
		if !e.seqHeader {
			if !idx.hasFirstWritten {
				idx.firstWritten = e.index
				idx.hasFirstWritten = true
			}
			idx.picturesWritten++
		}
	}
	return nil
}

// readAt seeks src to e's start and reads exactly e.length bytes.
func readAt(src Reader, e entry) ([]byte, error) {
	if e.length < 0 {
		return nil, errs.BrokenUnit
	}
	if err := src.Seek(e.start); err != nil {
		return nil, errs.IoError
	}
	buf := make([]byte, e.length)
	n := 0
	for n < len(buf) {
		m, err := src.Read(buf[n:])
		n += m
		if err != nil {
			if n == len(buf) {
				break
			}
			return nil, errs.UnexpectedEof
		}
	}
	return buf, nil
}
