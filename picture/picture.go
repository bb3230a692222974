/*
NAME
  picture.go

DESCRIPTION
  picture.go assembles H.262 (MPEG-2 video) and AVS elementary-stream
  start-code units into picture-layer units (spec §4.F), the H.262/AVS
  peer of the H.264 access-unit assembler in package au.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package picture assembles H.262 and AVS start-code units into pictures
// (spec §4.F). Unlike H.264, both standards mark a picture's start
// directly with a dedicated start code, so no first-VCL heuristic is
// needed: a picture ends when the next picture_start_code (or a sequence
// boundary) is seen.
package picture

import (
	"io"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/esunit"
	"github.com/ausocean/tscore/iobyte"
)

// Standard identifies which start-code table governs a Source.
type Standard int

const (
	H262 Standard = iota
	AVS
)

// H.262 (ISO/IEC 13818-2) start codes (Table 6-1).
const (
	h262PictureStart  = 0x00
	h262SliceFirst    = 0x01
	h262SliceLast     = 0xaf
	h262UserData      = 0xb2
	h262SeqHeader     = 0xb3
	h262SeqErr        = 0xb4
	h262ExtStart      = 0xb5
	h262SeqEnd        = 0xb7
	h262GroupStart    = 0xb8
)

// AVS (GB/T 20090.2, GY/T 257.1) start codes: numerically close to H.262
// but with I/P/B picture headers sharing 0xb3, distinguished in practice
// by the position of slice start codes and a narrower extension set.
const (
	avsSliceFirst    = 0x00
	avsSliceLast     = 0xaf
	avsUserData      = 0xb2
	avsSeqHeader     = 0xb0
	avsSeqEnd        = 0xb1
	avsExtStart      = 0xb5
	avsPictureI      = 0xb3
	avsPicturePB     = 0xb6
	avsVideoEditCode = 0xb7
)

// Unit is a start-code-delimited ES unit classified into a picture-layer
// role.
type Unit struct {
	StartPosn iobyte.FileOffset
	Data      []byte
	StartCode byte
	Kind      Kind
}

// Kind classifies a Unit's role in picture assembly.
type Kind int

const (
	KindSlice Kind = iota
	KindPictureHeader
	KindSeqHeader
	KindSeqEnd
	KindGroupStart
	KindExtension
	KindOther
)

func classify(std Standard, startCode byte) Kind {
	switch std {
	case AVS:
		switch {
		case startCode <= avsSliceLast:
			return KindSlice
		case startCode == avsPictureI, startCode == avsPicturePB:
			return KindPictureHeader
		case startCode == avsSeqHeader:
			return KindSeqHeader
		case startCode == avsSeqEnd:
			return KindSeqEnd
		case startCode == avsExtStart:
			return KindExtension
		default:
			return KindOther
		}
	default: // H262
		switch {
		case startCode == h262PictureStart:
			return KindPictureHeader
		case startCode >= h262SliceFirst && startCode <= h262SliceLast:
			return KindSlice
		case startCode == h262SeqHeader:
			return KindSeqHeader
		case startCode == h262GroupStart:
			return KindGroupStart
		case startCode == h262SeqEnd:
			return KindSeqEnd
		case startCode == h262ExtStart:
			return KindExtension
		default:
			return KindOther
		}
	}
}

// SeqHeaderCode returns the sequence_header start code for std, the
// boundary a caller (e.g. container/mts's psiMethodNAL) should trigger
// PSI re-insertion on.
func SeqHeaderCode(std Standard) byte {
	if std == AVS {
		return avsSeqHeader
	}
	return h262SeqHeader
}

// PeekStartCode returns the start code of raw (a full ES unit including
// its 00 00 01 prefix) without otherwise parsing it.
func PeekStartCode(raw []byte) (byte, error) {
	_, plen := esunit.FindPrefix(raw, 0)
	if plen == 0 || plen >= len(raw) {
		return 0, errs.BrokenUnit
	}
	return raw[plen], nil
}

// Picture is an assembled picture: its coding-type classification plus
// every start-code unit belonging to it, in file order.
type Picture struct {
	Index       uint32
	Units       []*Unit
	CodingType  CodingType
	Distance    uint32 // AVS picture_distance; unset (0) for H.262.
	HasDistance bool
}

// CodingType mirrors H.262 Table 6-12 / the AVS coding_type field.
type CodingType int

const (
	CodingUnknown CodingType = iota
	CodingI
	CodingP
	CodingB
)

// Source produces successive classified start-code units from an
// esunit.Scanner.
type Source struct {
	std     Standard
	scanner *esunit.Scanner
}

// NewSource returns a Source reading std-flavoured picture units from src.
func NewSource(std Standard, src iobyte.ByteSource) *Source {
	return &Source{std: std, scanner: esunit.NewScanner(src)}
}

// Next returns the next classified Unit, or io.EOF.
func (s *Source) Next() (*Unit, error) {
	u, err := s.scanner.Next()
	if err != nil {
		return nil, err
	}
	return &Unit{StartPosn: u.StartPosn, Data: u.Data, StartCode: u.StartCode, Kind: classify(s.std, u.StartCode)}, nil
}

// Context carries the picture assembler's one-unit lookahead across
// successive GetNextPicture calls, the direct H.262/AVS peer of
// au.Context.
type Context struct {
	pending *Unit
	index   uint32
	std     Standard
	done    bool
}

// NewContext returns a fresh picture-assembly Context for the given
// standard.
func NewContext(std Standard) *Context {
	return &Context{std: std}
}

// GetNextPicture assembles and returns the next picture from src, or
// io.EOF once the source is exhausted and nothing is buffered.
//
// A picture begins at a picture-header unit (H.262 0x00, AVS 0xb3/0xb6)
// and includes every following unit up to (but not including) the next
// picture-header, sequence-header, group-start or sequence-end unit. Leading units with no
// picture header yet seen (sequence/group headers, extensions, user
// data) are attached to the picture they precede.
func GetNextPicture(ctx *Context, src *Source) (*Picture, error) {
	if ctx.done && ctx.pending == nil {
		return nil, io.EOF
	}

	p := &Picture{Index: ctx.index}
	ctx.index++
	haveHeader := false

	if ctx.pending != nil {
		u := ctx.pending
		ctx.pending = nil
		p.Units = append(p.Units, u)
		if u.Kind == KindPictureHeader {
			haveHeader = true
			decodePictureHeader(ctx.std, p, u)
		}
	}

	for {
		u, err := src.Next()
		if err == io.EOF {
			if len(p.Units) == 0 {
				return nil, io.EOF
			}
			ctx.done = true
			return p, nil
		}
		if err != nil {
			return nil, err
		}

		switch u.Kind {
		case KindPictureHeader:
			if haveHeader {
				ctx.pending = u
				return p, nil
			}
			haveHeader = true
			p.Units = append(p.Units, u)
			decodePictureHeader(ctx.std, p, u)
		case KindGroupStart, KindSeqEnd, KindSeqHeader:
			if haveHeader {
				ctx.pending = u
				return p, nil
			}
			p.Units = append(p.Units, u)
			if u.Kind == KindSeqEnd {
				ctx.done = true
				return p, nil
			}
		default:
			p.Units = append(p.Units, u)
		}
	}
}
