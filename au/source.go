/*
NAME
  source.go

DESCRIPTION
  source.go adapts an esunit.Scanner plus a nal.Dictionary into a stream of
  decoded NAL units, skipping and counting ES units that fail to decode
  (spec §4.D, §4.E: broken units are skipped and counted, not fatal to the
  surrounding scan).

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

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscore/esunit"
	"github.com/ausocean/tscore/iobyte"
	"github.com/ausocean/tscore/nal"
)

// Source produces successive decoded NAL units, in file order, until it
// returns io.EOF.
type Source interface {
	Next() (*nal.Unit, error)
}

// NalSource decodes the ES units an esunit.Scanner finds against a shared
// parameter Dictionary, presenting them as a Source.
type NalSource struct {
	scanner *esunit.Scanner
	dict    *nal.Dictionary
	log     logging.Logger
	broken  uint32
}

// NewNalSource returns a NalSource reading from src, decoding NAL units
// against dict. dict may be empty but must not be nil: it accumulates SPS
// and PPS as they're encountered. log may be nil; if set, it receives a
// Warning entry (spec §7) whenever a decoded unit carries one, e.g. an
// SPS with an unsupported profile.
func NewNalSource(src iobyte.ByteSource, dict *nal.Dictionary, log logging.Logger) *NalSource {
	return &NalSource{scanner: esunit.NewScanner(src), dict: dict, log: log}
}

// Next returns the next decoded NAL unit, or io.EOF once the underlying
// source is exhausted. ES units that fail to decode are skipped and
// counted in BrokenCount rather than returned as errors.
func (s *NalSource) Next() (*nal.Unit, error) {
	for {
		u, err := s.scanner.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		decoded, err := nal.Decode(u.StartPosn, u.Data, s.dict, s.log)
		if err != nil {
			s.broken++
			continue
		}
		return decoded, nil
	}
}

// BrokenCount returns the number of ES units skipped so far because they
// failed to decode.
func (s *NalSource) BrokenCount() uint32 {
	return s.broken
}
