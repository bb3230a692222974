/*
NAME
  slice.go

DESCRIPTION
  slice.go parses an H.264 slice header (H.264 7.3.3), the fields needed
  to drive access-unit framing (spec §3, §4.E).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package nal

import (
	"github.com/ausocean/tscore/bits"
	"github.com/ausocean/tscore/errs"
)

// SliceHeader holds the slice-header fields spec §3 retains.
type SliceHeader struct {
	FirstMbInSlice               uint32
	SliceType                    uint32 // modulo 5, see SliceType* consts.
	PicParameterSetID            uint32
	SeqParamSetPicOrderCntType   uint32 // copied from the active SPS.
	FrameNum                     uint32
	FieldPicFlag                 bool
	BottomFieldFlag              bool
	HasBottomFieldFlag           bool
	IdrPicID                     uint32
	HasIdrPicID                  bool
	PicOrderCntLsb               uint32
	HasPicOrderCntLsb            bool
	DeltaPicOrderCntBottom       int32
	HasDeltaPicOrderCntBottom    bool
	DeltaPicOrderCnt0            int32
	DeltaPicOrderCnt1            int32
	HasDeltaPicOrderCnt          bool
	RedundantPicCnt              uint32
}

// decodeSlice parses as much of the slice header as the dictionary
// allows. If dict is nil, parsing stops after pic_parameter_set_id,
// leaving u.Decoded == false, per spec §4.D, so a later retry with a
// populated dictionary can finish the job.
func (u *Unit) decodeSlice(br *bits.Reader, dict *Dictionary) error {
	sh := &SliceHeader{}

	fmis, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	sh.FirstMbInSlice = fmis

	st, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	sh.SliceType = st % 5

	ppsID, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	sh.PicParameterSetID = ppsID

	if dict == nil {
		u.Slice = sh
		u.Decoded = false
		return nil
	}

	sps, ok := dict.SPSForPPS(ppsID)
	if !ok {
		u.Slice = sh
		u.Decoded = false
		return errs.MissingParamSet
	}
	sh.SeqParamSetPicOrderCntType = sps.PicOrderCntType

	fn, err := br.ReadBits(int(sps.Log2MaxFrameNum))
	if err != nil {
		return err
	}
	sh.FrameNum = fn

	if !sps.FrameMbsOnlyFlag {
		fpf, err := br.ReadBit()
		if err != nil {
			return err
		}
		sh.FieldPicFlag = fpf == 1
		if sh.FieldPicFlag {
			bff, err := br.ReadBit()
			if err != nil {
				return err
			}
			sh.BottomFieldFlag = bff == 1
			sh.HasBottomFieldFlag = true
		}
	}

	if u.NalType == TypeIDRSlice {
		idr, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		sh.IdrPicID = idr
		sh.HasIdrPicID = true
	}

	switch sps.PicOrderCntType {
	case 0:
		poc, err := br.ReadBits(int(sps.Log2MaxPicOrderCntLsb))
		if err != nil {
			return err
		}
		sh.PicOrderCntLsb = poc
		sh.HasPicOrderCntLsb = true

		pps, ok := dict.PPSByID(ppsID)
		if ok && pps.PicOrderPresentFlag && !sh.FieldPicFlag {
			d, err := br.ReadSignedExpGolomb()
			if err != nil {
				return err
			}
			sh.DeltaPicOrderCntBottom = d
			sh.HasDeltaPicOrderCntBottom = true
		}
	case 1:
		pps, ok := dict.PPSByID(ppsID)
		if !sps.DeltaPicOrderAlwaysZero {
			d0, err := br.ReadSignedExpGolomb()
			if err != nil {
				return err
			}
			sh.DeltaPicOrderCnt0 = d0
			sh.HasDeltaPicOrderCnt = true
			if ok && pps.PicOrderPresentFlag && !sh.FieldPicFlag {
				d1, err := br.ReadSignedExpGolomb()
				if err != nil {
					return err
				}
				sh.DeltaPicOrderCnt1 = d1
			}
		}
	}

	pps, ok := dict.PPSByID(ppsID)
	if ok && pps.RedundantPicCntPresentFlag {
		rpc, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		sh.RedundantPicCnt = rpc
	}

	u.Slice = sh
	u.Decoded = true
	return nil
}
