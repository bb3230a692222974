/*
NAME
  substream.go

DESCRIPTION
  substream.go classifies DVD-style private_stream_1 payloads into their
  audio/subpicture substream kind, and for AC-3 substreams extracts
  bsmod/acmod from the embedded AC-3 bitstream-info header (spec §4.K
  supplemented feature: DVD substream accounting).

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ps

// DVD private_stream_1 substream id ranges (DVD-Video spec, widely
// documented e.g. in libdvdread's ifo_types.h).
const (
	ac3First        = 0x80
	ac3Last         = 0x87
	dtsFirst        = 0x88
	dtsLast         = 0x8f
	lpcmFirst       = 0xa0
	lpcmLast        = 0xa7
	subpictureFirst = 0x20
	subpictureLast  = 0x3f
)

// SubstreamKind classifies a DVD private_stream_1 payload.
type SubstreamKind int

const (
	SubstreamUnknown SubstreamKind = iota
	SubstreamAC3
	SubstreamDTS
	SubstreamLPCM
	SubstreamSubpicture
)

// Substream is a classified private_stream_1 payload.
type Substream struct {
	ID   byte
	Kind SubstreamKind

	// Bsmod/Acmod are populated only for SubstreamAC3, extracted from the
	// embedded AC-3 frame's bitstream-info header.
	Bsmod    uint8
	HasBsmod bool
	Acmod    uint8
	HasAcmod bool
}

func kindOf(id byte) SubstreamKind {
	switch {
	case id >= ac3First && id <= ac3Last:
		return SubstreamAC3
	case id >= dtsFirst && id <= dtsLast:
		return SubstreamDTS
	case id >= lpcmFirst && id <= lpcmLast:
		return SubstreamLPCM
	case id >= subpictureFirst && id <= subpictureLast:
		return SubstreamSubpicture
	default:
		return SubstreamUnknown
	}
}

// classifySubstream classifies a private_stream_1 payload (the PES
// packet's Data, starting at the 1-byte substream id) and, for AC-3,
// extracts bsmod/acmod. Audio substreams (AC-3/DTS/LPCM) carry a 3-byte
// header after the substream id — number_of_frame_headers(1) and
// first_access_unit_pointer(2) — before the audio frame itself begins;
// subpicture substreams have no such header.
func classifySubstream(payload []byte) *Substream {
	if len(payload) == 0 {
		return nil
	}
	s := &Substream{ID: payload[0], Kind: kindOf(payload[0])}
	if s.Kind != SubstreamAC3 {
		return s
	}

	const audioHeaderLen = 3
	if len(payload) < 1+audioHeaderLen {
		return s
	}
	frame := payload[1+audioHeaderLen:]
	// Within the AC-3 frame, byte 5 holds bsid(5 bits)/bsmod(3 bits), and
	// the top 3 bits of byte 6 hold acmod (ATSC A/52 5.3).
	if len(frame) <= 6 {
		return s
	}
	s.Bsmod = frame[5] & 0x07
	s.HasBsmod = true
	s.Acmod = (frame[6] >> 5) & 0x07
	s.HasAcmod = true
	return s
}
