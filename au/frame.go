/*
NAME
  frame.go

DESCRIPTION
  frame.go pairs complementary field-coded access units into displayed
  frames (spec §4.E): a frame-coded access unit is already a frame; two
  field-coded access units with the same frame_num and opposite
  bottom_field_flag form a complementary pair.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package au

import (
	"io"

	"github.com/ausocean/tscore/errs"
)

// Frame is one displayed picture: either a single frame-coded access
// unit, or a complementary top/bottom field pair.
type Frame struct {
	AccessUnits []*AccessUnit
	FrameNum    uint32
}

// complementary reports whether b is a's complementary field: same
// frame_num, both field pictures, opposite parity.
func complementary(a, b *AccessUnit) bool {
	return a.FieldPicFlag && b.FieldPicFlag &&
		a.FrameNum == b.FrameNum &&
		a.BottomFieldFlag != b.BottomFieldFlag
}

// mergeFields merges second's NAL units onto first, in place, and
// returns first (spec §4.E): the merged access unit's NAL order is the
// concatenation of the first field's units then the second's, and
// field_pic_flag is cleared so it "looks like a frame" to later
// consumers (e.g. the reverse indexer's I-frame test).
func mergeFields(first, second *AccessUnit) *AccessUnit {
	first.NalUnits = append(first.NalUnits, second.NalUnits...)
	first.IgnoredBrokenNALUnits += second.IgnoredBrokenNALUnits
	first.FieldPicFlag = false
	return first
}

// GetNextH264Frame returns the next displayed frame from src, pairing
// field-coded access units as needed (spec §4.E). Four outcomes are
// possible for a lone first field:
//
//   - the stream ends before a second field arrives: the lone field is
//     returned as a one-field frame (the alternative, discarding it, would
//     lose the only copy of that picture);
//   - the next access unit is the complementary field of the same
//     frame_num: they're merged in place into a single access unit whose
//     NAL order is the first field's units followed by the second's, with
//     field_pic_flag cleared so it looks like a frame;
//   - the next access unit has a different frame_num (first pairing
//     attempt failed): the lone field is discarded and pairing is retried
//     starting from the new access unit;
//   - that retry also fails to find a complementary field: GetNextH264Frame
//     returns errs.LostFieldSync.
func GetNextH264Frame(ctx *Context, src Source) (*Frame, error) {
	first, err := GetNextAccessUnit(ctx, src)
	if err != nil {
		return nil, err
	}
	if !first.FieldPicFlag {
		return &Frame{AccessUnits: []*AccessUnit{first}, FrameNum: first.FrameNum}, nil
	}

	second, err := GetNextAccessUnit(ctx, src)
	if err == io.EOF {
		// Lone field at end of stream: return it on its own.
		return &Frame{AccessUnits: []*AccessUnit{first}, FrameNum: first.FrameNum}, nil
	}
	if err != nil {
		return nil, err
	}

	if complementary(first, second) {
		merged := mergeFields(first, second)
		return &Frame{AccessUnits: []*AccessUnit{merged}, FrameNum: merged.FrameNum}, nil
	}

	// First pairing attempt failed: first is a lone field, discarded.
	// second becomes the new candidate first field.
	if !second.FieldPicFlag {
		return &Frame{AccessUnits: []*AccessUnit{second}, FrameNum: second.FrameNum}, nil
	}

	third, err := GetNextAccessUnit(ctx, src)
	if err == io.EOF {
		return &Frame{AccessUnits: []*AccessUnit{second}, FrameNum: second.FrameNum}, nil
	}
	if err != nil {
		return nil, err
	}
	if complementary(second, third) {
		merged := mergeFields(second, third)
		return &Frame{AccessUnits: []*AccessUnit{merged}, FrameNum: merged.FrameNum}, nil
	}

	return nil, errs.LostFieldSync
}
