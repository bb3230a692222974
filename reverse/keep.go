/*
NAME
  keep.go

DESCRIPTION
  keep.go implements the "is this picture reversible" test spec §4.H
  describes: H.264 access units are kept if their primary NAL is an IDR
  or every slice in the access unit is I-coded; H.262/AVS pictures are
  kept if their coding type is I. This is the decision `maybe_remember`
  makes before calling Index.Remember/RememberSeqHeader during a forward
  scan.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package reverse

import (
	"github.com/ausocean/tscore/au"
	"github.com/ausocean/tscore/nal"
	"github.com/ausocean/tscore/picture"
)

// KeepableH264 reports whether a is a reversible picture (spec §4.H):
// an IDR access unit, or an access unit whose slices are all I-coded.
func KeepableH264(a *au.AccessUnit) bool {
	primary := a.Primary()
	if primary == nil {
		return false
	}
	if primary.NalType == nal.TypeIDRSlice {
		return true
	}
	for _, u := range a.NalUnits {
		if !u.IsVCL() {
			continue
		}
		if u.Slice == nil || u.Slice.SliceType != nal.SliceTypeI {
			return false
		}
	}
	return true
}

// KeepableH262 reports whether p is a reversible picture (spec §4.H): an
// I-coded H.262/AVS picture.
func KeepableH262(p *picture.Picture) bool {
	return p.CodingType == picture.CodingI
}
