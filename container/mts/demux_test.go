/*
NAME
  demux_test.go

DESCRIPTION
  demux_test.go validates the PES demultiplexer in demux.go.

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
	"bytes"
	"io"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscore/container/mts/meta"
	"github.com/ausocean/tscore/container/mts/pes"
	"github.com/ausocean/tscore/iobyte"
)

// tsSource replays a fixed byte slice as an iobyte.ByteSource, standing in
// for a raw TS file or socket feeding a Demuxer.
type tsSource struct{ r *bytes.Reader }

func (s *tsSource) Read(p []byte) (int, error)      { return s.r.Read(p) }
func (s *tsSource) Tell() (iobyte.FileOffset, error) { return iobyte.FileOffset{}, nil }
func (s *tsSource) Seek(iobyte.FileOffset) error     { return nil }
func (s *tsSource) Seekable() bool                   { return false }

func readAll(t *testing.T, d *Demuxer) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 7) // deliberately small/odd to exercise multi-Read chunk boundaries.
	for {
		n, err := d.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
}

func TestDemuxerReassemblesPES(t *testing.T) {
	Meta = meta.New()

	var clip bytes.Buffer
	if err := writePSIWithMeta(&clip, t); err != nil {
		t.Fatalf("writePSIWithMeta: %v", err)
	}
	frame1 := []byte("the quick brown fox jumps over the lazy dog, twice, to make it span more than one TS packet of payload")
	frame2 := []byte("a second frame")
	if err := writeFrame(&clip, frame1, 1000); err != nil {
		t.Fatalf("writeFrame 1: %v", err)
	}
	if err := writeFrame(&clip, frame2, 2000); err != nil {
		t.Fatalf("writeFrame 2: %v", err)
	}

	d := NewDemuxer(&tsSource{r: bytes.NewReader(clip.Bytes())}, PIDVideo, (*logging.TestLogger)(t))
	got := readAll(t, d)
	want := append(append([]byte{}, frame1...), frame2...)
	if !bytes.Equal(got, want) {
		t.Fatalf("reassembled ES = %q, want %q", got, want)
	}
	if d.Discontinuous {
		t.Error("Discontinuous = true, want false for a clean stream")
	}
}

func TestDemuxerInpacketOffsetResetsPerPESPacket(t *testing.T) {
	Meta = meta.New()

	var clip bytes.Buffer
	if err := writePSIWithMeta(&clip, t); err != nil {
		t.Fatalf("writePSIWithMeta: %v", err)
	}
	frame := bytes.Repeat([]byte{0xab}, 400) // spans several TS packets.
	if err := writeFrame(&clip, frame, 1000); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	frame2 := bytes.Repeat([]byte{0xcd}, 20)
	if err := writeFrame(&clip, frame2, 2000); err != nil {
		t.Fatalf("writeFrame 2: %v", err)
	}

	d := NewDemuxer(&tsSource{r: bytes.NewReader(clip.Bytes())}, PIDVideo, nil)
	off, err := d.Tell()
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if off.Inpacket != 0 {
		t.Fatalf("initial Inpacket = %d, want 0", off.Inpacket)
	}

	buf := make([]byte, 10)
	n, err := d.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	off, err = d.Tell()
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if off.Inpacket != int32(n) {
		t.Fatalf("Inpacket after reading %d bytes = %d, want %d", n, off.Inpacket, n)
	}

	// Finish the first PES packet, then read one byte of the second.
	if _, err := io.ReadFull(d, make([]byte, len(frame)-n)); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	one := make([]byte, 1)
	if _, err := d.Read(one); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if one[0] != frame2[0] {
		t.Fatalf("first byte of second PES = %#x, want %#x", one[0], frame2[0])
	}
	off, err = d.Tell()
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if off.Inpacket != 1 {
		t.Fatalf("Inpacket after one byte of second PES = %d, want 1", off.Inpacket)
	}
}

func TestDemuxerFlagsContinuityGap(t *testing.T) {
	Meta = meta.New()

	pesPkt := pes.Packet{StreamID: pes.H264SID, PDI: hasPTS, PTS: 1000, Data: []byte("hello"), HeaderLength: 5}
	buf := pesPkt.Bytes(nil)

	var clip bytes.Buffer
	first := Packet{PUSI: true, PID: PIDVideo, CC: 0, AFC: hasAdaptationField | hasPayload, RAI: true, PCRF: true}
	first.FillPayload(buf)
	clip.Write(first.Bytes(nil))

	// Second packet jumps the continuity counter from 0 to 5, a gap.
	second := Packet{PUSI: false, PID: PIDVideo, CC: 5, AFC: hasPayload, Payload: bytes.Repeat([]byte{0x00}, 184)}
	clip.Write(second.Bytes(nil))

	d := NewDemuxer(&tsSource{r: bytes.NewReader(clip.Bytes())}, PIDVideo, nil)
	readAll(t, d)
	if !d.Discontinuous {
		t.Error("Discontinuous = false, want true after a continuity_counter gap")
	}
}
