/*
NAME
  assembler.go

DESCRIPTION
  assembler.go groups a stream of decoded NAL units into access units
  (spec §4.E), applying the H.264 7.4.1.2.4 "first VCL NAL unit of a
  primary coded picture" rule to decide where one access unit ends and
  the next begins.

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

	"github.com/ausocean/tscore/nal"
)

// Context carries the access-unit assembler's state across successive
// calls to GetNextAccessUnit: a one-NAL lookahead, and a value-copy
// summary of the current access unit's primary NAL (never a live pointer
// into a NAL that may be dropped along with its access unit, per spec
// §9).
type Context struct {
	pending             *nal.Unit
	earlierPrimaryStart primarySummary

	index uint32

	// EndOfSequence and EndOfStream record the most recent NAL units of
	// those types seen, if any (spec §4.E).
	EndOfSequence *nal.Unit
	EndOfStream   *nal.Unit

	// Done is set once an end_of_stream NAL has been assembled, or the
	// source is exhausted.
	Done bool
}

// NewContext returns a fresh assembler Context.
func NewContext() *Context {
	return &Context{}
}

// nalClass categorises a NAL unit for access-unit framing purposes.
type nalClass int

const (
	classVCL nalClass = iota
	classPrePrimary        // may only appear before a primary picture starts.
	classEnd                // end_of_seq / end_of_stream.
	classOther
)

func classify(u *nal.Unit) nalClass {
	switch u.NalType {
	case nal.TypeNonIDRSlice, nal.TypeIDRSlice:
		return classVCL
	case nal.TypeSEI, nal.TypeSPS, nal.TypePPS, nal.TypeAUD:
		return classPrePrimary
	case nal.TypeEndOfSeq, nal.TypeEndOfStream:
		return classEnd
	default:
		if u.NalType >= nal.TypeSPSExtFirst && u.NalType <= nal.TypeSPSExtLast {
			return classPrePrimary
		}
		return classOther
	}
}

// GetNextAccessUnit assembles and returns the next access unit from src,
// or io.EOF once no more NAL units remain and nothing is buffered.
func GetNextAccessUnit(ctx *Context, src Source) (*AccessUnit, error) {
	if ctx.Done && ctx.pending == nil {
		return nil, io.EOF
	}

	a := NewAccessUnit(ctx.index)
	ctx.index++

	if ctx.pending != nil {
		u := ctx.pending
		ctx.pending = nil
		a.append(u)
		if u.IsVCL() {
			ctx.earlierPrimaryStart = summarize(u)
		}
	}

	for {
		u, err := src.Next()
		if err == io.EOF {
			if len(a.NalUnits) == 0 {
				return nil, io.EOF
			}
			ctx.Done = true
			return a, nil
		}
		if err != nil {
			return nil, err
		}

		switch classify(u) {
		case classVCL:
			// Redundant slices are dropped outright, whether or not a
			// primary has already started (spec §4.E).
			if u.Slice != nil && u.Slice.RedundantPicCnt > 0 {
				continue
			}
			if a.PrimaryIdx < 0 {
				a.append(u)
				ctx.earlierPrimaryStart = summarize(u)
				continue
			}
			isNew, reason := startsNewPrimary(ctx.earlierPrimaryStart, u)
			if isNew {
				u.StartReason = reason
				ctx.pending = u
				return a, nil
			}
			a.append(u)

		case classPrePrimary:
			if a.StartedPrimaryPicture {
				ctx.pending = u
				return a, nil
			}
			a.append(u)

		case classEnd:
			a.append(u)
			if u.NalType == nal.TypeEndOfSeq {
				ctx.EndOfSequence = u
			} else {
				ctx.EndOfStream = u
				ctx.Done = true
			}
			return a, nil

		case classOther:
			a.append(u)
		}
	}
}
