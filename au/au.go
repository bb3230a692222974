/*
NAME
  au.go

DESCRIPTION
  au.go defines the access unit type and the value-copy "earlier primary
  start" summary used to decide where one access unit ends and the next
  begins (spec §3, §4.E, §9: never a live pointer into a NAL that may be
  freed with its access unit).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package au implements the H.264 access-unit assembler (spec §4.E):
// grouping NAL units into access units, and access units into frames by
// pairing complementary field pictures.
package au

import "github.com/ausocean/tscore/nal"

// AccessUnit is an ordered collection of NAL units forming one coded
// picture (or field).
type AccessUnit struct {
	Index                 uint32
	NalUnits              []*nal.Unit
	PrimaryIdx            int // index into NalUnits of the first VCL NAL, or -1.
	StartedPrimaryPicture bool
	FrameNum              uint32
	FieldPicFlag          bool
	BottomFieldFlag       bool
	IgnoredBrokenNALUnits uint32
}

// NewAccessUnit returns an empty AccessUnit with the given index.
func NewAccessUnit(index uint32) *AccessUnit {
	return &AccessUnit{Index: index, PrimaryIdx: -1}
}

// Primary returns the AccessUnit's primary (first VCL) NAL unit, or nil.
func (a *AccessUnit) Primary() *nal.Unit {
	if a.PrimaryIdx < 0 {
		return nil
	}
	return a.NalUnits[a.PrimaryIdx]
}

// append adds u to the access unit, marking it the primary if it's the
// first VCL NAL seen.
func (a *AccessUnit) append(u *nal.Unit) {
	a.NalUnits = append(a.NalUnits, u)
	if u.IsVCL() && a.PrimaryIdx < 0 {
		a.PrimaryIdx = len(a.NalUnits) - 1
		a.StartedPrimaryPicture = true
		if u.Slice != nil {
			a.FrameNum = u.Slice.FrameNum
			a.FieldPicFlag = u.Slice.FieldPicFlag
			a.BottomFieldFlag = u.Slice.BottomFieldFlag
		}
	}
}

// primarySummary is a value-copy of the fields of the previous access
// unit's primary VCL NAL, used to decide whether a new VCL NAL starts a
// new primary coded picture (H.264 7.4.1.2.4). It is never a pointer into
// a NAL unit that might be dropped along with its access unit.
type primarySummary struct {
	valid bool

	frameNum        uint32
	fieldPicFlag    bool
	bottomField     bool
	hasBottomField  bool
	nalRefIdc       uint8
	isIDR           bool
	idrPicID        uint32
	pocType         uint32
	pocLsb          uint32
	hasPocLsb       bool
	deltaPocBottom  int32
	hasDeltaBottom  bool
	deltaPoc0       int32
	deltaPoc1       int32
	hasDeltaPoc     bool
}

// summarize builds a primarySummary from u's slice header.
func summarize(u *nal.Unit) primarySummary {
	s := u.Slice
	return primarySummary{
		valid:          true,
		frameNum:       s.FrameNum,
		fieldPicFlag:   s.FieldPicFlag,
		bottomField:    s.BottomFieldFlag,
		hasBottomField: s.HasBottomFieldFlag,
		nalRefIdc:      u.NalRefIdc,
		isIDR:          u.NalType == nal.TypeIDRSlice,
		idrPicID:       s.IdrPicID,
		pocType:        s.SeqParamSetPicOrderCntType,
		pocLsb:         s.PicOrderCntLsb,
		hasPocLsb:      s.HasPicOrderCntLsb,
		deltaPocBottom: s.DeltaPicOrderCntBottom,
		hasDeltaBottom: s.HasDeltaPicOrderCntBottom,
		deltaPoc0:      s.DeltaPicOrderCnt0,
		deltaPoc1:      s.DeltaPicOrderCnt1,
		hasDeltaPoc:    s.HasDeltaPicOrderCnt,
	}
}

// startsNewPrimary implements H.264 7.4.1.2.4's "first VCL NAL of a new
// primary coded picture" test against the earlier primary summary (spec
// §4.E). A NAL unit with no earlier primary (the first in the stream)
// trivially starts a new primary.
func startsNewPrimary(earlier primarySummary, u *nal.Unit) (bool, string) {
	if !earlier.valid {
		return true, "first access unit"
	}
	s := u.Slice
	cur := summarize(u)

	if cur.frameNum != earlier.frameNum {
		return true, "Frame number differs"
	}
	if cur.fieldPicFlag != earlier.fieldPicFlag {
		return true, "field_pic_flag differs"
	}
	if cur.hasBottomField && earlier.hasBottomField && cur.bottomField != earlier.bottomField {
		return true, "bottom_field_flag differs"
	}
	curRefZero := u.NalRefIdc == 0
	earlierRefZero := earlier.nalRefIdc == 0
	if curRefZero != earlierRefZero && (u.NalRefIdc == 0 || earlier.nalRefIdc == 0) {
		return true, "nal_ref_idc zero-ness differs"
	}
	if s.SeqParamSetPicOrderCntType == 0 && earlier.pocType == 0 {
		if cur.pocLsb != earlier.pocLsb || cur.deltaPocBottom != earlier.deltaPocBottom {
			return true, "pic_order_cnt_lsb/delta_pic_order_cnt_bottom differs"
		}
	}
	if s.SeqParamSetPicOrderCntType == 1 && earlier.pocType == 1 {
		if cur.deltaPoc0 != earlier.deltaPoc0 || cur.deltaPoc1 != earlier.deltaPoc1 {
			return true, "delta_pic_order_cnt[0..1] differs"
		}
	}
	if cur.isIDR != earlier.isIDR {
		return true, "IDR-ness differs"
	}
	if cur.isIDR && earlier.isIDR && cur.idrPicID != earlier.idrPicID {
		return true, "idr_pic_id differs"
	}
	return false, ""
}
