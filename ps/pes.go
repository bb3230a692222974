/*
NAME
  pes.go

DESCRIPTION
  pes.go decodes a PES packet header within a program stream, the
  decode-direction counterpart of container/mts/pes's encode-only
  Packet.Bytes (spec §4.K).

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

import (
	"github.com/ausocean/tscore/container/mts/pes"
	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// readPESPacket reads and decodes one PES packet (whose start code and
// stream id have already been consumed) from r.src.
func (r *Reader) readPESPacket(posn iobyte.FileOffset, streamID byte) (*Item, error) {
	var lenBuf [2]byte
	if err := readFull(r.src, lenBuf[:]); err != nil {
		return nil, err
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1])
	if length < 3 {
		return nil, errs.BrokenUnit
	}

	buf := make([]byte, length)
	if err := readFull(r.src, buf); err != nil {
		return nil, err
	}

	p := &pes.Packet{
		StreamID: streamID,
		Length:   uint16(length),
	}
	p.SC = (buf[0] >> 4) & 0x3
	p.Priority = buf[0]&0x08 != 0
	p.DAI = buf[0]&0x04 != 0
	p.Copyright = buf[0]&0x02 != 0
	p.Original = buf[0]&0x01 != 0

	p.PDI = (buf[1] >> 6) & 0x3
	p.ESCRF = buf[1]&0x20 != 0
	p.ESRF = buf[1]&0x10 != 0
	p.DSMTMF = buf[1]&0x08 != 0
	p.ACIF = buf[1]&0x04 != 0
	p.CRCF = buf[1]&0x02 != 0
	p.EF = buf[1]&0x01 != 0

	p.HeaderLength = buf[2]
	optStart := 3
	dataStart := optStart + int(p.HeaderLength)
	if dataStart > len(buf) {
		return nil, errs.BrokenUnit
	}

	switch p.PDI {
	case 2: // PTS only.
		if optStart+5 <= len(buf) {
			p.PTS = extractTimestamp(buf[optStart : optStart+5])
		}
	case 3: // PTS and DTS.
		if optStart+10 <= len(buf) {
			p.PTS = extractTimestamp(buf[optStart : optStart+5])
			p.DTS = extractTimestamp(buf[optStart+5 : optStart+10])
		}
	}

	p.Data = buf[dataStart:]

	item := &Item{StartPosn: posn, Kind: KindPESPacket, StreamID: streamID, PES: p}
	if streamID == PrivateStream1 && r.dvdMode {
		item.Sub = classifySubstream(p.Data)
	}
	return item, nil
}

// extractTimestamp decodes a 5-byte PTS or DTS field (ISO/IEC 13818-1
// 2.4.3.7): a 4-bit marker/prefix nibble, then 33 timestamp bits
// interleaved with three 1-bit markers.
func extractTimestamp(b []byte) uint64 {
	var ts uint64
	ts |= uint64(b[0]&0x0e) << 29
	ts |= uint64(b[1]) << 22
	ts |= uint64(b[2]&0xfe) << 14
	ts |= uint64(b[3]) << 7
	ts |= uint64(b[4]&0xfe) >> 1
	return ts
}
