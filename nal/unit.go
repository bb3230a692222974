/*
NAME
  unit.go

DESCRIPTION
  unit.go provides the NAL unit type, emulation-prevention removal, and
  the decode dispatch by nal_unit_type (spec §4.D).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package nal provides H.264 NAL unit decoding: emulation-prevention byte
// removal, and syntactic parsing of slice headers, SPS, PPS and SEI
// recovery-point messages (spec §4.D), plus the parameter dictionary that
// slice header parsing depends on (spec §4.G).
package nal

import (
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscore/bits"
	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// NAL unit types of interest (H.264 Table 7-1). Anything else is
// recognised for access-unit framing but never decoded.
const (
	TypeNonIDRSlice  = 1
	TypeIDRSlice     = 5
	TypeSEI          = 6
	TypeSPS          = 7
	TypePPS          = 8
	TypeAUD          = 9
	TypeEndOfSeq     = 10
	TypeEndOfStream  = 11
	TypeFillerData   = 12
	TypeSPSExtFirst  = 13 // start of the 13..18 "precedes primary" range.
	TypeSPSExtLast   = 18
	SEIPayloadRecovery = 6
)

// SliceType values (H.264 Table 7-6), modulo 5.
const (
	SliceTypeP  = 0
	SliceTypeB  = 1
	SliceTypeI  = 2
	SliceTypeSP = 3
	SliceTypeSI = 4
)

// Unit is a decoded (or partially decoded) H.264 NAL unit.
type Unit struct {
	StartPosn  iobyte.FileOffset
	Raw        []byte // raw bytes including the start-code prefix.
	NalRefIdc  uint8
	NalType    uint8
	Decoded    bool
	StartReason string // static description of why this NAL starts a picture, if it does.

	// Warning holds a Recoverable error raised while decoding this unit
	// (spec §7: e.g. ProfileUnsupported), if any. Decode still returns the
	// unit with Decoded == true in this case; Warning is how a caller
	// observes that the warn-and-continue policy fired rather than the
	// unit decoding cleanly.
	Warning error

	Slice *SliceHeader
	SPS   *SPS
	PPS   *PPS
	SEI   *SEIRecovery
}

// IsVCL reports whether u is a video-coding-layer NAL (a slice).
func (u *Unit) IsVCL() bool {
	return u.NalType == TypeNonIDRSlice || u.NalType == TypeIDRSlice
}

// rbspPrefixLen returns the length of this unit's start-code prefix (3 or
// 4 bytes) so payload parsing can skip it and the 1-byte NAL header.
func rbspPrefixLen(raw []byte) int {
	if len(raw) >= 4 && raw[0] == 0 && raw[1] == 0 && raw[2] == 0 && raw[3] == 1 {
		return 4
	}
	return 3
}

// RBSP strips emulation-prevention 0x03 bytes from the NAL payload
// (everything after the start-code prefix and the 1-byte NAL header).
// Per spec §4.D: strip every 0x03 that appears immediately after two 0x00
// bytes. The result is never longer than the input.
func RBSP(nalPayload []byte) []byte {
	out := make([]byte, 0, len(nalPayload))
	zeros := 0
	for i := 0; i < len(nalPayload); i++ {
		b := nalPayload[i]
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// InsertEmulationPrevention is the inverse of RBSP: it inserts a 0x03 byte
// after every "00 00" run immediately preceding a byte < 0x04, so the
// result is safe to scan for start codes.
func InsertEmulationPrevention(rbsp []byte) []byte {
	out := make([]byte, 0, len(rbsp)+len(rbsp)/3+1)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// PeekType returns raw's nal_unit_type without decoding its payload, for
// callers that only need to branch on NAL type (e.g. an encoder deciding
// when to insert PSI before an SPS).
func PeekType(raw []byte) (uint8, error) {
	plen := rbspPrefixLen(raw)
	if plen >= len(raw) {
		return 0, errs.BrokenUnit
	}
	return raw[plen] & 0x1f, nil
}

// PeekHeaderByte returns raw's unmasked NAL header byte (forbidden_zero_bit,
// nal_ref_idc and nal_unit_type packed together), for callers that need to
// validate the header itself rather than just nal_unit_type — e.g.
// distinguishing an H.264 NAL header from an H.262/AVS start code that
// happens to mask to a value in the H.264 type range.
func PeekHeaderByte(raw []byte) (byte, error) {
	plen := rbspPrefixLen(raw)
	if plen >= len(raw) {
		return 0, errs.BrokenUnit
	}
	return raw[plen], nil
}

// LooksLikeHeader reports whether b is a syntactically valid H.264 NAL
// header byte: forbidden_zero_bit unset and nal_unit_type in its defined
// range (H.264 Table 7-1, 1-23; 0 and 24-31 are reserved/unused here).
func LooksLikeHeader(b byte) bool {
	if b&0x80 != 0 {
		return false
	}
	t := b & 0x1f
	return t >= 1 && t <= 23
}

// Decode parses raw (a full ES unit including its start-code prefix) into
// a Unit, dispatching on nal_unit_type. dict may be nil, in which case
// slice headers stop early (after pic_parameter_set_id) leaving
// Decoded == false, per spec §4.D. log may be nil, in which case a
// Recoverable decode error (spec §7) is still recorded on Unit.Warning
// but not logged.
func Decode(posn iobyte.FileOffset, raw []byte, dict *Dictionary, log logging.Logger) (*Unit, error) {
	plen := rbspPrefixLen(raw)
	if plen >= len(raw) {
		return nil, errs.BrokenUnit
	}
	header := raw[plen]
	if header&0x80 != 0 {
		return nil, errors.Wrap(errs.ForbiddenBitSet, "forbidden_zero_bit set")
	}

	u := &Unit{
		StartPosn: posn,
		Raw:       raw,
		NalRefIdc: (header >> 5) & 0x3,
		NalType:   header & 0x1f,
	}

	if plen+1 > len(raw) {
		return u, nil
	}
	rbsp := RBSP(raw[plen+1:])
	br := bits.NewReader(rbsp)

	var err error
	switch u.NalType {
	case TypeNonIDRSlice, TypeIDRSlice:
		err = u.decodeSlice(br, dict)
	case TypeSPS:
		err = u.decodeSPS(br, dict)
	case TypePPS:
		err = u.decodePPS(br, dict)
	case TypeSEI:
		err = u.decodeSEI(br)
	default:
		// Not decoded, but still recognised for access-unit framing.
	}
	if err != nil {
		if errs.Recoverable(err) {
			u.Warning = err
			if log != nil {
				log.Warning("nal unit decoded with warning", "nal type", u.NalType, "error", err.Error())
			}
			return u, nil
		}
		return nil, err
	}
	return u, nil
}
