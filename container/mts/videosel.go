/*
NAME
  videosel.go

DESCRIPTION
  videosel.go implements the video_stream_selection knob (spec §6):
  which elementary-stream standard the encoder is packetizing, used both
  to recognise a parameter/sequence boundary for PSI re-insertion under
  psiMethodNAL (generalizing encoder.go's original H.264-only SPS check)
  and to pick the PMT stream_type when the caller wants one set
  explicitly rather than inferred from MediaType.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"github.com/ausocean/tscore/nal"
	"github.com/ausocean/tscore/picture"
)

// VideoStandard identifies which elementary-stream standard an Encoder
// is packetizing (spec §6's video_stream_selection knob).
type VideoStandard int

const (
	// VideoAuto infers the standard per ES unit from its start code:
	// a syntactically valid H.264 NAL header selects H.264, otherwise
	// H.262/AVS start-code framing is assumed. H.262's sequence_header
	// (0xb3) and AVS's picture_header (also 0xb3) collide, so
	// auto-detection cannot tell H.262 and AVS apart; callers muxing AVS
	// must select VideoAVS explicitly.
	VideoAuto VideoStandard = iota
	VideoH262
	VideoH264
	VideoAVS
	// VideoExplicit disables NAL/start-code-driven PSI triggering
	// entirely; the caller must choose a non-NAL psiMethod, and the PMT
	// stream_type comes from ExplicitStreamType's argument.
	VideoExplicit
)

// VideoStreamSelection is an option for NewEncoder that sets the
// video_stream_selection knob. explicitType is only consulted when std
// is VideoExplicit, in which case it becomes the PMT stream_type
// directly.
func VideoStreamSelection(std VideoStandard, explicitType byte) func(*Encoder) error {
	return func(e *Encoder) error {
		e.videoStandard = std
		if std == VideoExplicit {
			e.streamType = explicitType
		}
		return nil
	}
}

// detectVideoStandard guesses which standard data (a full ES unit,
// start-code prefix included) belongs to, for VideoAuto. A byte
// following the start-code prefix with forbidden_zero_bit set, or a
// nal_unit_type outside H.264's defined range, is not a valid NAL
// header, so the unit is assumed to be H.262/AVS start-code framing.
// H.262/AVS start codes such as 0xb3 (H.262 sequence_header, AVS
// picture_header) mask to a value in the H.264 type range, so
// nal.LooksLikeHeader's forbidden_zero_bit check (not just the masked
// type) is what makes this distinction work.
func detectVideoStandard(data []byte) VideoStandard {
	hdr, err := nal.PeekHeaderByte(data)
	if err == nil && nal.LooksLikeHeader(hdr) {
		return VideoH264
	}
	return VideoH262
}

// isParamBoundary reports whether data marks a parameter/sequence
// boundary that should trigger PSI re-insertion under psiMethodNAL (spec
// §4.I), dispatching on e.videoStandard (resolving VideoAuto per-unit).
func (e *Encoder) isParamBoundary(data []byte) (bool, error) {
	std := e.videoStandard
	if std == VideoAuto {
		std = detectVideoStandard(data)
	}
	switch std {
	case VideoH264:
		nalType, err := nal.PeekType(data)
		if err != nil {
			return false, err
		}
		return nalType == nal.TypeSPS, nil
	case VideoH262, VideoAVS:
		pstd := picture.H262
		if std == VideoAVS {
			pstd = picture.AVS
		}
		sc, err := picture.PeekStartCode(data)
		if err != nil {
			return false, err
		}
		return sc == picture.SeqHeaderCode(pstd), nil
	default: // VideoExplicit: no NAL-driven trigger.
		return false, nil
	}
}
