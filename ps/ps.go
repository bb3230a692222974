/*
NAME
  ps.go

DESCRIPTION
  ps.go reads MPEG program-stream (ISO/IEC 11172-1 / 13818-1 Annex D)
  pack headers, system headers, the program stream map, the program
  stream directory, and PES packets, including DVD-style private_stream_1
  substream classification (spec §4.K).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ps reads MPEG program streams: pack headers, system headers,
// the stream map and directory, and PES packets carrying video, audio or
// DVD-style private substreams (spec §4.K). It is grounded on the
// container/mts package's PSI/PES machinery, generalized from transport
// packets to program-stream packs.
package ps

import (
	"io"

	"github.com/ausocean/tscore/container/mts/pes"
	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// Start codes (ISO/IEC 13818-1 Table 2-18).
const (
	PackStartCode       = 0xba
	SystemHeaderCode    = 0xbb
	ProgramStreamMap    = 0xbc
	ProgramEndCode      = 0xb9
	PrivateStream1      = 0xbd
	PrivateStream2      = 0xbf
	ProgramStreamDirCode = 0xff

	VideoStreamFirst = 0xe0
	VideoStreamLast  = 0xef
	AudioStreamFirst = 0xc0
	AudioStreamLast  = 0xdf
)

// ItemKind classifies a parsed program-stream item.
type ItemKind int

const (
	KindPack ItemKind = iota
	KindSystemHeader
	KindStreamMap
	KindDirectory
	KindPESPacket
)

// PackHeader holds the pack_header fields spec §4.K retains.
type PackHeader struct {
	SCR            uint64 // 33-bit system clock reference, base only.
	ProgramMuxRate uint32 // 22-bit, units of 50 bytes/second.
}

// Item is one parsed program-stream unit.
type Item struct {
	StartPosn iobyte.FileOffset
	Kind      ItemKind
	Pack      *PackHeader
	StreamID  byte
	PES       *pes.Packet
	Sub       *Substream
}

// Reader reads successive program-stream Items from a ByteSource.
type Reader struct {
	src iobyte.ByteSource

	numStreamMaps  uint32
	numDirectories uint32

	// dvdMode governs private_stream_1 classification (spec §6): when
	// true, private_stream_1 payloads are run through classifySubstream
	// to recover DVD-style AC3/DTS/LPCM/subpicture substreams; when
	// false, private_stream_1 is left unclassified, matching
	// non-DVD program streams that use private_stream_1 for other
	// purposes (e.g. Blu-ray, or application-private data).
	dvdMode bool
}

// NewReader returns a Reader over src. By default dvd_mode is enabled,
// matching the DVD-style streams this package was written against; pass
// DVDMode(false) to disable private_stream_1 substream classification.
func NewReader(src iobyte.ByteSource, options ...func(*Reader)) *Reader {
	r := &Reader{src: src, dvdMode: true}
	for _, option := range options {
		option(r)
	}
	return r
}

// DVDMode is an option for NewReader that sets the dvd_mode knob (spec
// §6): when enabled, private_stream_1 PES payloads are classified as
// DVD-style AC3/DTS/LPCM/subpicture substreams.
func DVDMode(enabled bool) func(*Reader) {
	return func(r *Reader) { r.dvdMode = enabled }
}

// NumStreamMaps returns the number of program_stream_map items seen so
// far. Kept distinct from NumDirectories per spec §9's resolved open
// question: the two counters must never be folded into one "extra
// headers" count.
func (r *Reader) NumStreamMaps() uint32 { return r.numStreamMaps }

// NumDirectories returns the number of program_stream_directory items
// seen so far.
func (r *Reader) NumDirectories() uint32 { return r.numDirectories }

func readFull(src iobyte.ByteSource, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := src.Read(buf[n:])
		n += m
		if err != nil {
			if err == io.EOF {
				if n == 0 {
					return io.EOF
				}
				return errs.UnexpectedEof
			}
			return errs.IoError
		}
	}
	return nil
}

// Next reads and classifies the next program-stream item.
func (r *Reader) Next() (*Item, error) {
	posn, _ := r.src.Tell()

	var prefix [4]byte
	if err := readFull(r.src, prefix[:]); err != nil {
		return nil, err
	}
	if prefix[0] != 0 || prefix[1] != 0 || prefix[2] != 1 {
		return nil, errs.LostSync
	}
	code := prefix[3]

	switch {
	case code == PackStartCode:
		return r.readPack(posn)
	case code == SystemHeaderCode:
		return r.readSystemHeader(posn)
	case code == ProgramStreamMap:
		r.numStreamMaps++
		return r.readOpaqueSection(posn, KindStreamMap, code)
	case code == ProgramStreamDirCode:
		r.numDirectories++
		return r.readOpaqueSection(posn, KindDirectory, code)
	case code == ProgramEndCode:
		return &Item{StartPosn: posn, Kind: KindPESPacket, StreamID: code}, nil
	case code >= VideoStreamFirst && code <= VideoStreamLast,
		code >= AudioStreamFirst && code <= AudioStreamLast,
		code == PrivateStream1, code == PrivateStream2:
		return r.readPESPacket(posn, code)
	default:
		return nil, errs.BadStreamId
	}
}

// readPack parses a pack_header (ISO/IEC 13818-1 2.5.3.4).
func (r *Reader) readPack(posn iobyte.FileOffset) (*Item, error) {
	var buf [10]byte // pack_header fixed portion after the start code.
	if err := readFull(r.src, buf[:]); err != nil {
		return nil, err
	}
	h := &PackHeader{}
	// SCR is split base(33)/ext(9) across 6 bytes with marker bits
	// interleaved; only the base (90kHz) component is retained.
	h.SCR = uint64(buf[0]&0x38) << 27
	h.SCR |= uint64(buf[0]&0x03) << 28
	h.SCR |= uint64(buf[1]) << 20
	h.SCR |= uint64(buf[2]&0xf8) << 12
	h.SCR |= uint64(buf[2]&0x03) << 13
	h.SCR |= uint64(buf[3]) << 5
	h.SCR |= uint64(buf[4]&0xf8) >> 3

	h.ProgramMuxRate = uint32(buf[5])<<14 | uint32(buf[6])<<6 | uint32(buf[7]&0xfc)>>2

	stuffLen := buf[9] & 0x07
	if stuffLen > 0 {
		if _, err := readDiscard(r.src, int(stuffLen)); err != nil {
			return nil, err
		}
	}
	return &Item{StartPosn: posn, Kind: KindPack, Pack: h}, nil
}

// readSystemHeader parses and discards a system_header's payload,
// retaining only its presence (spec §4.K: system headers are recognised
// but carry nothing the reverse indexer or reporting path needs).
func (r *Reader) readSystemHeader(posn iobyte.FileOffset) (*Item, error) {
	return r.readOpaqueSection(posn, KindSystemHeader, SystemHeaderCode)
}

// readOpaqueSection reads a 2-byte big-endian length field followed by
// that many bytes, discarding the payload, for sections whose content
// this reader doesn't need to retain.
func (r *Reader) readOpaqueSection(posn iobyte.FileOffset, kind ItemKind, code byte) (*Item, error) {
	var lenBuf [2]byte
	if err := readFull(r.src, lenBuf[:]); err != nil {
		return nil, err
	}
	n := int(lenBuf[0])<<8 | int(lenBuf[1])
	if _, err := readDiscard(r.src, n); err != nil {
		return nil, err
	}
	return &Item{StartPosn: posn, Kind: kind, StreamID: code}, nil
}

func readDiscard(src iobyte.ByteSource, n int) (int, error) {
	buf := make([]byte, n)
	if err := readFull(src, buf); err != nil {
		return 0, err
	}
	return n, nil
}
