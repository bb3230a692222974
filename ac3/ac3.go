/*
NAME
  ac3.go

DESCRIPTION
  ac3.go reads AC-3 (ATSC A/52) syncframes from an elementary stream:
  syncinfo validation and the fscod/frmsizecod frame-length lookup (spec
  §4.K).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ac3 reads AC-3 syncframes (spec §4.K), grounded on the
// table-driven lookup style of container/mts/psi/std.go.
package ac3

import (
	"io"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

const (
	syncWord0 = 0x0b
	syncWord1 = 0x77

	syncInfoLen = 5 // syncword(16) + crc1(16) + fscod(2) + frmsizecod(6), bits, bytes rounded up = 5.
)

// frameSizeWords[fscod][frmsizecod] gives the syncframe length in 16-bit
// words (ATSC A/52 Table 5.13), for fscod in {0,1,2} (48, 44.1, 32 kHz).
// frmsizecod values above 37 are invalid.
var frameSizeWords = [3][38]uint16{
	{ // 48 kHz
		64, 64, 80, 80, 96, 96, 112, 112, 128, 128,
		160, 160, 192, 192, 224, 224, 256, 256, 320, 320,
		384, 384, 448, 448, 512, 512, 640, 640, 768, 768,
		896, 896, 1024, 1024, 1152, 1152, 1280, 1280,
	},
	{ // 44.1 kHz — odd frmsizecod values are one word larger.
		69, 70, 87, 88, 104, 105, 121, 122, 139, 140,
		174, 175, 208, 209, 243, 244, 278, 279, 348, 349,
		417, 418, 487, 488, 557, 558, 696, 697, 835, 836,
		975, 976, 1114, 1115, 1253, 1254, 1393, 1394,
	},
	{ // 32 kHz
		96, 96, 120, 120, 144, 144, 168, 168, 192, 192,
		240, 240, 288, 288, 336, 336, 384, 384, 480, 480,
		576, 576, 672, 672, 768, 768, 960, 960, 1152, 1152,
		1344, 1344, 1536, 1536, 1728, 1728, 1920, 1920,
	},
}

// DolbyStreamType selects the PMT stream_type value used to register an
// AC-3 elementary stream (spec §6's ac3_dolby_stream_type knob). DVB
// systems carry AC-3 as stream_type DolbyDVB alongside an AC-3
// registration descriptor; ATSC systems instead use the
// reserved-for-ATSC stream_type DolbyATSC and need no descriptor.
type DolbyStreamType byte

const (
	DolbyDVB  DolbyStreamType = 0x06
	DolbyATSC DolbyStreamType = 0x81
)

// Frame is one decoded AC-3 syncframe header plus its raw bytes (the
// full frame, including the 2-byte syncword).
type Frame struct {
	StartPosn  iobyte.FileOffset
	Fscod      uint8
	Frmsizecod uint8
	Raw        []byte // full frame, length == FrameBytes(Fscod, Frmsizecod).
}

// FrameBytes returns the syncframe length in bytes for the given fscod
// and frmsizecod, or an error if either is out of range.
func FrameBytes(fscod, frmsizecod uint8) (int, error) {
	if fscod > 2 {
		return 0, errs.BadFrameSize
	}
	if frmsizecod > 37 {
		return 0, errs.BadFrameSize
	}
	return int(frameSizeWords[fscod][frmsizecod]) * 2, nil
}

// Reader reads successive AC-3 frames from a ByteSource.
type Reader struct {
	src iobyte.ByteSource
}

// NewReader returns a Reader over src.
func NewReader(src iobyte.ByteSource) *Reader {
	return &Reader{src: src}
}

// Next reads and returns the next full AC-3 frame, or io.EOF at a clean
// stream boundary (between frames).
func (r *Reader) Next() (*Frame, error) {
	posn, _ := r.src.Tell()

	hdr := make([]byte, syncInfoLen)
	if err := readFull(r.src, hdr); err != nil {
		return nil, err
	}
	if hdr[0] != syncWord0 || hdr[1] != syncWord1 {
		return nil, errs.LostSync
	}
	fscod := (hdr[4] >> 6) & 0x3
	frmsizecod := hdr[4] & 0x3f

	n, err := FrameBytes(fscod, frmsizecod)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, n)
	copy(raw, hdr)
	if err := readFull(r.src, raw[syncInfoLen:]); err != nil {
		return nil, err
	}

	return &Frame{StartPosn: posn, Fscod: fscod, Frmsizecod: frmsizecod, Raw: raw}, nil
}

// readFull fills buf completely from src, translating a clean EOF at the
// very first byte into io.EOF and any partial read into UnexpectedEof.
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
