/*
NAME
  sps.go

DESCRIPTION
  sps.go parses a sequence parameter set (H.264 7.3.2.1), retaining only
  the fields spec §3 names.

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
	"github.com/pkg/errors"

	"github.com/ausocean/tscore/bits"
	"github.com/ausocean/tscore/errs"
)

// SPS holds the sequence-parameter-set fields spec §3 retains.
type SPS struct {
	ProfileIdc             uint8
	ConstraintSet0Flag     bool
	ConstraintSet1Flag     bool
	ConstraintSet2Flag     bool
	LevelIdc               uint8
	SeqParameterSetID      uint32
	Log2MaxFrameNum        uint32 // = parsed value + 4.
	PicOrderCntType        uint32
	Log2MaxPicOrderCntLsb  uint32 // = parsed value + 4, only valid if PicOrderCntType == 0.
	DeltaPicOrderAlwaysZero bool
	FrameMbsOnlyFlag       bool
}

// mainProfile is the H.264 Main profile profile_idc (spec: non-goal to
// support profiles beyond Main; warn and continue otherwise).
const mainProfile = 77

func (u *Unit) decodeSPS(br *bits.Reader, dict *Dictionary) error {
	s := &SPS{}

	v, err := br.ReadBitsIntoByte(8)
	if err != nil {
		return err
	}
	s.ProfileIdc = v

	flags, err := br.ReadBits(8)
	if err != nil {
		return err
	}
	s.ConstraintSet0Flag = flags&0x80 != 0
	s.ConstraintSet1Flag = flags&0x40 != 0
	s.ConstraintSet2Flag = flags&0x20 != 0
	if flags&0x1f != 0 {
		return errors.Wrap(errs.BrokenUnit, "sps reserved_zero_5bits is non-zero")
	}

	lvl, err := br.ReadBitsIntoByte(8)
	if err != nil {
		return err
	}
	s.LevelIdc = lvl

	id, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	s.SeqParameterSetID = id

	if requiresChromaInfo(s.ProfileIdc) {
		chromaFormatIdc, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		if chromaFormatIdc == 3 {
			if _, err := br.ReadBit(); err != nil { // separate_colour_plane_flag
				return err
			}
		}
		if _, err := br.ReadExpGolomb(); err != nil { // bit_depth_luma_minus8
			return err
		}
		if _, err := br.ReadExpGolomb(); err != nil { // bit_depth_chroma_minus8
			return err
		}
		if _, err := br.ReadBit(); err != nil { // qpprime_y_zero_transform_bypass_flag
			return err
		}
		seqScalingMatrixPresent, err := br.ReadBit()
		if err != nil {
			return err
		}
		if seqScalingMatrixPresent == 1 {
			n := 8
			if chromaFormatIdc == 3 {
				n = 12
			}
			for i := 0; i < n; i++ {
				present, err := br.ReadBit()
				if err != nil {
					return err
				}
				if present == 1 {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := skipScalingList(br, size); err != nil {
						return err
					}
				}
			}
		}
	}

	l2mfn, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	s.Log2MaxFrameNum = l2mfn + 4

	poct, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	s.PicOrderCntType = poct

	switch poct {
	case 0:
		l2mpoc, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		s.Log2MaxPicOrderCntLsb = l2mpoc + 4
	case 1:
		zf, err := br.ReadBit()
		if err != nil {
			return err
		}
		s.DeltaPicOrderAlwaysZero = zf == 1
		if _, err := br.ReadSignedExpGolomb(); err != nil { // offset_for_non_ref_pic
			return err
		}
		if _, err := br.ReadSignedExpGolomb(); err != nil { // offset_for_top_to_bottom_field
			return err
		}
		n, err := br.ReadExpGolomb() // num_ref_frames_in_pic_order_cnt_cycle
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if _, err := br.ReadSignedExpGolomb(); err != nil {
				return err
			}
		}
	}

	if _, err := br.ReadExpGolomb(); err != nil { // max_num_ref_frames
		return err
	}
	if _, err := br.ReadBit(); err != nil { // gaps_in_frame_num_value_allowed_flag
		return err
	}
	if _, err := br.ReadExpGolomb(); err != nil { // pic_width_in_mbs_minus1
		return err
	}
	if _, err := br.ReadExpGolomb(); err != nil { // pic_height_in_map_units_minus1
		return err
	}
	fmof, err := br.ReadBit()
	if err != nil {
		return err
	}
	s.FrameMbsOnlyFlag = fmof == 1
	if !s.FrameMbsOnlyFlag {
		if _, err := br.ReadBit(); err != nil { // mb_adaptive_frame_field_flag
			return err
		}
	}
	if _, err := br.ReadBit(); err != nil { // direct_8x8_inference_flag
		return err
	}
	cropFlag, err := br.ReadBit()
	if err != nil {
		return err
	}
	if cropFlag == 1 {
		for i := 0; i < 4; i++ {
			if _, err := br.ReadExpGolomb(); err != nil {
				return err
			}
		}
	}
	vuiPresent, err := br.ReadBit()
	if err != nil {
		return err
	}
	if vuiPresent == 1 {
		// VUI parameters are skipped entirely per spec §4.D ("full parse
		// including VUI skip, but only the fields above are retained").
		// Since we don't need any VUI field, and VUI is the final element
		// of the RBSP before rbsp_trailing_bits, we simply stop here:
		// nothing after this point is retained regardless.
		_ = vuiPresent
	}

	u.SPS = s
	u.Decoded = true
	if dict != nil {
		dict.Remember(s.SeqParameterSetID, u)
	}

	if s.ProfileIdc != mainProfile && !s.ConstraintSet1Flag {
		// Soft warning only, per spec §4.D and §7 (ProfileUnsupported).
		return errors.Wrap(errs.ProfileUnsupported, "sps profile_idc is not Main and constraint_set1_flag is unset")
	}

	return nil
}

func requiresChromaInfo(profileIdc uint8) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	default:
		return false
	}
}

// skipScalingList discards a scaling list of the given size without
// retaining its values (pixel-level decode is out of scope).
func skipScalingList(br *bits.Reader, size int) error {
	lastScale, nextScale := int32(8), int32(8)
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := br.ReadSignedExpGolomb()
			if err != nil {
				return err
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}
