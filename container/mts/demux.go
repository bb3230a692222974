/*
NAME
  demux.go

DESCRIPTION
  demux.go implements the PES demultiplexer (spec §4.C): it pulls TS
  packets for a single target PID out of an MPEG-TS byte stream,
  reassembles their PES payloads into a continuous elementary-stream
  byte source, and tracks each returned byte's position within its
  containing PES packet, so esunit.NewScanner can scan TS-sourced ES
  directly instead of only a pre-extracted raw ES file. Grounded on
  payload.go's Extract, which parses the same PAT/PMT/PUSI/PES structure
  but into a whole in-memory Clip rather than a streaming byte source.

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
	"fmt"
	"io"

	"github.com/Comcast/gots/packet"
	"github.com/Comcast/gots/pes"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// Demuxer implements iobyte.ByteSource over an MPEG-TS byte stream,
// presenting the reassembled PES payload bytes of a single elementary
// stream (identified by PID) as one continuous read.
//
// Demuxer is not seekable: re-seeking into an arbitrary point of a
// reassembled ES stream would require re-deriving PAT/PMT state and
// re-walking TS packets from the nearest earlier PUSI, which this core
// leaves to iobyte.FileSource over a separately-persisted raw ES file
// (the reverse-playback path, spec §4.H) rather than duplicating here.
type Demuxer struct {
	src    iobyte.ByteSource // raw TS byte source, PacketSize-aligned.
	target uint16            // PID to demultiplex.
	cc     *ContinuityChecker
	log    logging.Logger

	meta map[string]string // most recent PMT-derived metadata for the current PES.

	chunk    []byte // unread bytes of the PES payload currently being returned.
	pesCount int32  // offset, within the current PES payload, of chunk's first unread byte.

	pos int64 // cumulative count of ES bytes returned so far.
	eof bool

	// Discontinuous latches true the first time a continuity_counter gap
	// is observed on target (spec §7: Recoverable, not fatal — Read
	// keeps demultiplexing).
	Discontinuous bool
}

// NewDemuxer returns a Demuxer reading TS packets from src and presenting
// the PES payload of PID target as an ES byte stream. log may be nil.
func NewDemuxer(src iobyte.ByteSource, target uint16, log logging.Logger) *Demuxer {
	return &Demuxer{src: src, target: target, cc: NewContinuityChecker(), log: log}
}

// Meta returns the most recently parsed PMT-derived metadata (see
// ExtractMeta), or nil if no PMT has been seen yet.
func (d *Demuxer) Meta() map[string]string { return d.meta }

// Read implements iobyte.ByteSource.
func (d *Demuxer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(d.chunk) == 0 {
			if err := d.fill(); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		}
		m := copy(p[n:], d.chunk)
		d.chunk = d.chunk[m:]
		d.pesCount += int32(m)
		d.pos += int64(m)
		n += m
	}
	return n, nil
}

// Tell implements iobyte.ByteSource. Infile is the cumulative count of ES
// bytes returned so far; Inpacket is the next unread byte's offset within
// the PES packet it belongs to.
func (d *Demuxer) Tell() (iobyte.FileOffset, error) {
	return iobyte.FileOffset{Infile: d.pos, Inpacket: d.pesCount}, nil
}

// Seek implements iobyte.ByteSource; Demuxer is not seekable (see type doc).
func (d *Demuxer) Seek(iobyte.FileOffset) error { return errs.IoError }

// Seekable implements iobyte.ByteSource.
func (d *Demuxer) Seekable() bool { return false }

// fill reads and discards TS packets until it finds payload belonging to
// target, leaving it (or the next PES's payload, on a PUSI) in d.chunk.
func (d *Demuxer) fill() error {
	if d.eof {
		return io.EOF
	}
	for {
		var raw [PacketSize]byte
		if _, err := io.ReadFull(iobyte.Reader(d.src), raw[:]); err != nil {
			d.eof = true
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return io.EOF
			}
			return errs.IoError
		}

		var pkt packet.Packet
		copy(pkt[:], raw[:])

		switch pid := pkt.PID(); pid {
		case PatPid:
			continue
		case PmtPid:
			m, err := ExtractMeta(pkt[:])
			if err != nil {
				return fmt.Errorf("could not extract PMT meta: %w", err)
			}
			d.meta = m
			continue
		default:
			if pid != int(d.target) {
				continue
			}
		}

		if !d.cc.Check(int(d.target), pkt.ContinuityCounter()) {
			d.Discontinuous = true
			if d.log != nil {
				d.log.Warning("continuity gap demultiplexing PES", "pid", d.target)
			}
		}

		payload, err := pkt.Payload()
		if err != nil {
			return fmt.Errorf("could not extract TS payload: %w", err)
		}

		if pkt.PayloadUnitStartIndicator() {
			ph, err := pes.NewPESHeader(payload)
			if err != nil {
				return fmt.Errorf("could not parse PES header: %w", err)
			}
			d.pesCount = 0
			d.chunk = ph.Data()
		} else {
			d.chunk = payload
		}
		if len(d.chunk) == 0 {
			continue
		}
		return nil
	}
}
