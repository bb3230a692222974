/*
NAME
  dict.go

DESCRIPTION
  dict.go provides the parameter dictionary: SPS/PPS remembered by id so
  slice headers and the access-unit assembler can look them up (spec
  §4.G).

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

import "github.com/ausocean/tscore/iobyte"

// paramSet is either an SPS or a PPS, plus the file offset and byte
// length of the NAL unit it was parsed from, kept so a reverse writer can
// re-emit the original parameter-set bytes (spec §4.G).
type paramSet struct {
	sps    *SPS
	pps    *PPS
	posn   iobyte.FileOffset
	rawLen int
}

// Dictionary maps parameter-set id to its most-recently-remembered
// contents. Growth is a plain Go map, not the parallel-reallocated-arrays
// design spec §9 flags as a likely source bug: each entry's fields grow
// independently and no stored pointer is ever invalidated by another
// insertion.
type Dictionary struct {
	sps map[uint32]paramSet
	pps map[uint32]paramSet
}

// NewDictionary returns an empty Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		sps: make(map[uint32]paramSet),
		pps: make(map[uint32]paramSet),
	}
}

// Remember records u's parsed SPS or PPS (most-recent write wins). u must
// already be decoded (u.SPS or u.PPS populated).
func (d *Dictionary) Remember(id uint32, u *Unit) {
	switch {
	case u.SPS != nil:
		d.sps[id] = paramSet{sps: u.SPS, posn: u.StartPosn, rawLen: len(u.Raw)}
	case u.PPS != nil:
		d.pps[id] = paramSet{pps: u.PPS, posn: u.StartPosn, rawLen: len(u.Raw)}
	}
}

// SPSByID looks up a remembered SPS by id.
func (d *Dictionary) SPSByID(id uint32) (*SPS, bool) {
	e, ok := d.sps[id]
	if !ok {
		return nil, false
	}
	return e.sps, true
}

// PPSByID looks up a remembered PPS by id.
func (d *Dictionary) PPSByID(id uint32) (*PPS, bool) {
	e, ok := d.pps[id]
	if !ok {
		return nil, false
	}
	return e.pps, true
}

// SPSForPPS resolves the active SPS for a given PPS id, following the
// PPS's own seq_parameter_set_id, as slice headers require.
func (d *Dictionary) SPSForPPS(ppsID uint32) (*SPS, bool) {
	p, ok := d.PPSByID(ppsID)
	if !ok {
		return nil, false
	}
	return d.SPSByID(p.SeqParameterSetID)
}

// SPSOffset returns the recorded (file offset, byte length) of the NAL
// that produced the remembered SPS with id, for the reverse writer (spec
// §4.G, §4.H).
func (d *Dictionary) SPSOffset(id uint32) (iobyte.FileOffset, int, bool) {
	e, ok := d.sps[id]
	if !ok {
		return iobyte.FileOffset{}, 0, false
	}
	return e.posn, e.rawLen, true
}

// PPSOffset is the PPS analogue of SPSOffset.
func (d *Dictionary) PPSOffset(id uint32) (iobyte.FileOffset, int, bool) {
	e, ok := d.pps[id]
	if !ok {
		return iobyte.FileOffset{}, 0, false
	}
	return e.posn, e.rawLen, true
}
