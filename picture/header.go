/*
NAME
  header.go

DESCRIPTION
  header.go extracts the picture coding type (and, for AVS, the picture
  distance) from a picture-header Unit's payload (spec §4.F supplemented
  feature list).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package picture

import "github.com/ausocean/tscore/bits"

// payload returns data with its start-code prefix and the one start-code
// byte following it stripped, leaving the picture-header bitstream.
func payload(data []byte) []byte {
	n := 3
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1 {
		n = 4
	}
	n++ // skip the start-code byte itself.
	if n >= len(data) {
		return nil
	}
	return data[n:]
}

func h262CodingType(v uint32) CodingType {
	switch v {
	case 1:
		return CodingI
	case 2:
		return CodingP
	case 3:
		return CodingB
	default:
		return CodingUnknown
	}
}

// decodePictureHeader extracts the coding type (H.262 6.2.3
// picture_coding_type; AVS picture_coding_type) and, for AVS, the
// picture_distance field used for output reordering, from u's payload.
// Parse failures leave p.CodingType at CodingUnknown rather than
// aborting assembly: a malformed picture header shouldn't stop the scan.
func decodePictureHeader(std Standard, p *Picture, u *Unit) {
	pl := payload(u.Data)
	if pl == nil {
		return
	}
	br := bits.NewReader(pl)

	switch std {
	case H262:
		if _, err := br.ReadBits(10); err != nil { // temporal_reference
			return
		}
		ct, err := br.ReadBits(3)
		if err != nil {
			return
		}
		p.CodingType = h262CodingType(ct)

	case AVS:
		if u.StartCode == avsPictureI {
			// I-picture headers carry no picture_distance field (spec
			// §4.F): bbv_delay/coding_type aren't present either, since
			// coding_type is implied by the I-picture start code itself.
			p.CodingType = CodingI
			p.Distance = 0
			p.HasDistance = false
			return
		}

		if _, err := br.ReadBits(16); err != nil { // bbv_delay
			return
		}
		ct, err := br.ReadBits(2)
		if err != nil {
			return
		}
		switch ct {
		case 1:
			p.CodingType = CodingP
		case 2:
			p.CodingType = CodingB
		default:
			p.CodingType = CodingUnknown
		}

		dist, err := br.ReadBits(8)
		if err != nil {
			return
		}
		p.Distance = dist
		p.HasDistance = true
	}
}
