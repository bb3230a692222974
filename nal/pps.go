/*
NAME
  pps.go

DESCRIPTION
  pps.go parses a picture parameter set (H.264 7.3.2.2), including the
  slice-group map machinery spec §4.D calls out, retaining only the fields
  spec §3 names.

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
)

// PPS holds the picture-parameter-set fields spec §3 retains.
type PPS struct {
	PicParameterSetID           uint32
	SeqParameterSetID           uint32
	EntropyCodingModeFlag       bool
	PicOrderPresentFlag         bool
	NumSliceGroups              uint32 // = parsed num_slice_groups_minus1 + 1.
	RedundantPicCntPresentFlag  bool
}

func (u *Unit) decodePPS(br *bits.Reader, dict *Dictionary) error {
	p := &PPS{}

	id, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	p.PicParameterSetID = id

	spsID, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	p.SeqParameterSetID = spsID

	ecmf, err := br.ReadBit()
	if err != nil {
		return err
	}
	p.EntropyCodingModeFlag = ecmf == 1

	popf, err := br.ReadBit()
	if err != nil {
		return err
	}
	p.PicOrderPresentFlag = popf == 1

	nsgm1, err := br.ReadExpGolomb()
	if err != nil {
		return err
	}
	p.NumSliceGroups = nsgm1 + 1

	if p.NumSliceGroups > 1 {
		sliceGroupMapType, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		switch sliceGroupMapType {
		case 0:
			for i := uint32(0); i < p.NumSliceGroups; i++ {
				if _, err := br.ReadExpGolomb(); err != nil { // run_length_minus1[i]
					return err
				}
			}
		case 2:
			for i := uint32(0); i < p.NumSliceGroups-1; i++ {
				if _, err := br.ReadExpGolomb(); err != nil { // top_left[i]
					return err
				}
				if _, err := br.ReadExpGolomb(); err != nil { // bottom_right[i]
					return err
				}
			}
		case 3, 4, 5:
			if _, err := br.ReadBit(); err != nil { // slice_group_change_direction_flag
				return err
			}
			if _, err := br.ReadExpGolomb(); err != nil { // slice_group_change_rate_minus1
				return err
			}
		case 6:
			picSizeInMapUnitsMinus1, err := br.ReadExpGolomb()
			if err != nil {
				return err
			}
			bitsPerEntry := ceilLog2(p.NumSliceGroups)
			for i := uint32(0); i <= picSizeInMapUnitsMinus1; i++ {
				if _, err := br.ReadBits(bitsPerEntry); err != nil { // slice_group_id[i]
					return err
				}
			}
		}
	}

	if _, err := br.ReadExpGolomb(); err != nil { // num_ref_idx_l0_default_active_minus1
		return err
	}
	if _, err := br.ReadExpGolomb(); err != nil { // num_ref_idx_l1_default_active_minus1
		return err
	}
	if _, err := br.ReadBit(); err != nil { // weighted_pred_flag
		return err
	}
	if _, err := br.ReadBits(2); err != nil { // weighted_bipred_idc
		return err
	}
	if _, err := br.ReadSignedExpGolomb(); err != nil { // pic_init_qp_minus26
		return err
	}
	if _, err := br.ReadSignedExpGolomb(); err != nil { // pic_init_qs_minus26
		return err
	}
	if _, err := br.ReadSignedExpGolomb(); err != nil { // chroma_qp_index_offset
		return err
	}
	if _, err := br.ReadBit(); err != nil { // deblocking_filter_control_present_flag
		return err
	}
	if _, err := br.ReadBit(); err != nil { // constrained_intra_pred_flag
		return err
	}
	rpcpf, err := br.ReadBit()
	if err != nil {
		return err
	}
	p.RedundantPicCntPresentFlag = rpcpf == 1

	u.PPS = p
	u.Decoded = true
	if dict != nil {
		dict.Remember(p.PicParameterSetID, u)
	}
	return nil
}

// ceilLog2 returns ceil(log2(n)) for n >= 1, used for the width of a
// slice_group_id entry (spec §4.D: pic_size_in_map_units items each
// ceil(log2(num_slice_groups)) bits wide).
func ceilLog2(n uint32) int {
	if n <= 1 {
		return 0
	}
	bitsNeeded := 0
	v := n - 1
	for v > 0 {
		bitsNeeded++
		v >>= 1
	}
	return bitsNeeded
}
