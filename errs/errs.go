/*
NAME
  errs.go

DESCRIPTION
  errs provides the typed error kinds shared across the core parsing and
  remuxing packages, so that callers can errors.Is against a stable kind
  instead of string-matching messages.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package errs provides the typed error kinds used across tscore's core
// packages (see spec §7: error handling design). Recoverable kinds are
// logged and scanning continues; the rest unwind to the caller's public
// entry point.
package errs

import "github.com/pkg/errors"

// Error kinds. Wrap these with errors.Wrap/fmt.Errorf("...: %w", Kind) for
// context, and unwrap with errors.Is(err, errs.Kind).
var (
	// IoError indicates the underlying byte source or sink failed. Fatal
	// to the current operation.
	IoError = errors.New("io error")

	// UnexpectedEof indicates EOF occurred inside a structured record.
	// Fatal to the current parse; higher layers may map this to a clean
	// end-of-stream.
	UnexpectedEof = errors.New("unexpected eof")

	// LostSync indicates an expected start code was not present. The
	// caller should try to resynchronise by scanning forward.
	LostSync = errors.New("lost sync")

	// BrokenUnit indicates an ES unit decoded to inconsistent bits. The
	// caller should skip it, count it, and continue.
	BrokenUnit = errors.New("broken unit")

	// BadFrameSize indicates codec sync was present but the size code
	// was out of the lookup table. Fatal to the current frame.
	BadFrameSize = errors.New("bad frame size")

	// BadStreamId indicates a PS stream id didn't match expectations.
	// The caller should skip the packet and continue.
	BadStreamId = errors.New("bad stream id")

	// MissingParamSet indicates a slice referenced an SPS/PPS id that
	// isn't in the dictionary yet. The decode is deferred; a
	// partially-decoded NAL unit is returned.
	MissingParamSet = errors.New("missing parameter set")

	// LostFieldSync indicates two adjacent fields had differing
	// frame_num across two pairing attempts. Fatal to the current frame.
	LostFieldSync = errors.New("lost field sync")

	// ProfileUnsupported indicates an SPS profile isn't Main and
	// constraint_set1_flag isn't set. Warn and continue.
	ProfileUnsupported = errors.New("profile unsupported")

	// ForbiddenBitSet indicates forbidden_zero_bit != 0 in a NAL header.
	// Fatal to this NAL unit; often indicates accidental non-H.264 data.
	ForbiddenBitSet = errors.New("forbidden bit set")
)

// Recoverable reports whether err's scan should continue after logging,
// per the propagation policy in spec §7.
func Recoverable(err error) bool {
	switch {
	case errors.Is(err, BrokenUnit), errors.Is(err, LostSync), errors.Is(err, MissingParamSet), errors.Is(err, ProfileUnsupported):
		return true
	default:
		return false
	}
}
