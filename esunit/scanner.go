/*
NAME
  scanner.go

DESCRIPTION
  scanner.go implements a byte-level scanner that locates start-code
  delimited ES units (H.264 NAL units, H.262/AVS picture-layer items) in an
  arbitrary byte source, recording file offsets as it goes.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package esunit provides a start-code scanner over an arbitrary byte
// source (spec §4.B), producing Units bounded by 00 00 01 prefixes. It is
// grounded on the teacher's codecutil.ByteScanner delimiter search
// (ScanUntil) and codec/h264/lex.go's start-code state machine, but
// generalized from "split on H.264 NAL boundaries only" to "any
// start-code-prefixed ES unit with recorded file offsets".
package esunit

import (
	"bytes"
	"io"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

var prefix3 = []byte{0x00, 0x00, 0x01}

// Unit is a start-code-delimited ES unit: raw bytes including its 00 00 01
// (or 00 00 00 01) prefix, up to but not including the next start prefix
// or EOF.
type Unit struct {
	StartPosn iobyte.FileOffset
	Data      []byte
	StartCode byte
}

// Scanner locates successive Units in a ByteSource, keeping only the
// unconsumed tail of the source buffered in memory.
type Scanner struct {
	src iobyte.ByteSource

	buf      []byte // unconsumed bytes read so far.
	basePos  int64  // infile position corresponding to buf[0].
	eof      bool
	haveUnit bool // true once the first start prefix has been located.
	unitOff  int  // index in buf where the current (in-progress) unit starts.
}

// NewScanner returns a Scanner reading from src.
func NewScanner(src iobyte.ByteSource) *Scanner {
	return &Scanner{src: src}
}

const readChunk = 4096

// fill appends up to readChunk more bytes from the source to buf.
func (s *Scanner) fill() error {
	if s.eof {
		return io.EOF
	}
	tmp := make([]byte, readChunk)
	n, err := s.src.Read(tmp)
	if n > 0 {
		s.buf = append(s.buf, tmp[:n]...)
	}
	if err != nil {
		if err == io.EOF {
			s.eof = true
			if n == 0 {
				return io.EOF
			}
			return nil
		}
		return errs.IoError
	}
	return nil
}

// trim discards buf[:n] and advances basePos, preserving offsets.
func (s *Scanner) trim(n int) {
	s.buf = s.buf[n:]
	s.basePos += int64(n)
	s.unitOff -= n
	if s.unitOff < 0 {
		s.unitOff = 0
	}
}

// FindPrefix returns the index in buf of the next 00 00 01 prefix at or
// after from, along with the prefix's total length (3 or 4, for a leading
// extra zero byte), or -1 if none is present in buf. Exported for callers
// (e.g. package picture) that need to locate a start code in an already
// bounded ES unit without running the full Scanner state machine.
func FindPrefix(buf []byte, from int) (idx, plen int) {
	return findPrefix(buf, from)
}

func findPrefix(buf []byte, from int) (idx, plen int) {
	i := bytes.Index(buf[from:], prefix3)
	if i < 0 {
		return -1, 0
	}
	idx = from + i
	plen = 3
	if idx > 0 && buf[idx-1] == 0x00 {
		idx--
		plen = 4
	}
	return idx, plen
}

// Next returns the next Unit in the stream, or io.EOF when the source is
// exhausted after the last unit has been returned.
func (s *Scanner) Next() (*Unit, error) {
	if !s.haveUnit {
		// Locate the very first start prefix.
		for {
			idx, plen := findPrefix(s.buf, 0)
			if idx >= 0 && idx+plen < len(s.buf) {
				s.unitOff = idx
				s.haveUnit = true
				break
			}
			if err := s.fill(); err != nil {
				return nil, err
			}
			// Keep buffer from growing unboundedly while we search: trim
			// everything except a 3-byte tail that could be a partial
			// prefix.
			if len(s.buf) > 3 {
				s.trim(len(s.buf) - 3)
			}
		}
	}

	// s.unitOff points at this unit's start prefix. Determine its
	// prefix length and start code.
	_, plen := findPrefix(s.buf, s.unitOff)
	for s.unitOff+plen >= len(s.buf) {
		if err := s.fill(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if s.eof {
			break
		}
	}
	if s.unitOff+plen >= len(s.buf) {
		// Truncated prefix at EOF: nothing usable left.
		return nil, io.EOF
	}
	startCode := s.buf[s.unitOff+plen]
	startAbs := s.basePos + int64(s.unitOff)

	// Find where the NEXT unit begins, which bounds this unit's end.
	searchFrom := s.unitOff + plen
	for {
		nextIdx, _ := findPrefix(s.buf, searchFrom)
		if nextIdx >= 0 {
			end := nextIdx
			data := append([]byte(nil), s.buf[s.unitOff:end]...)
			unit := &Unit{
				StartPosn: iobyte.FileOffset{Infile: startAbs, Inpacket: iobyte.NoPacketOffset},
				Data:      data,
				StartCode: startCode,
			}
			s.unitOff = end
			// Trim everything before the next unit's start to bound memory.
			s.trim(s.unitOff)
			return unit, nil
		}
		if err := s.fill(); err != nil {
			if err == io.EOF {
				data := append([]byte(nil), s.buf[s.unitOff:]...)
				unit := &Unit{
					StartPosn: iobyte.FileOffset{Infile: startAbs, Inpacket: iobyte.NoPacketOffset},
					Data:      data,
					StartCode: startCode,
				}
				s.trim(len(s.buf))
				s.haveUnit = false // no further units after this one.
				return unit, nil
			}
			return nil, err
		}
		searchFrom = len(s.buf) - readChunk - 3
		if searchFrom < s.unitOff+plen {
			searchFrom = s.unitOff + plen
		}
	}
}
