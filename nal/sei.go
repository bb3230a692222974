/*
NAME
  sei.go

DESCRIPTION
  sei.go parses supplemental enhancement information messages, retaining
  only the recovery-point payload (H.264 D.1.7 / D.2.7) per spec §3, §4.D.

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

import "github.com/ausocean/tscore/bits"

// sei payload type for recovery point messages.
const seiTypeRecoveryPoint = 6

// SEIRecovery holds the recovery-point SEI fields spec §3 retains.
type SEIRecovery struct {
	RecoveryFrameCnt      uint32
	ExactMatchFlag        bool
	BrokenLinkFlag        bool
	ChangingSliceGroupIdc uint8
}

// decodeSEI loops over SEI messages (H.264 7.3.2.3.1), parsing a
// recovery-point payload if present and skipping everything else.
func (u *Unit) decodeSEI(br *bits.Reader) error {
	for br.Len() >= 16 { // at least two more bytes remain before rbsp_trailing_bits.
		payloadType, err := readFF(br)
		if err != nil {
			return err
		}
		payloadSize, err := readFF(br)
		if err != nil {
			return err
		}
		if payloadType == seiTypeRecoveryPoint {
			rec := &SEIRecovery{}
			rfc, err := br.ReadExpGolomb()
			if err != nil {
				return err
			}
			rec.RecoveryFrameCnt = rfc
			emf, err := br.ReadBit()
			if err != nil {
				return err
			}
			rec.ExactMatchFlag = emf == 1
			blf, err := br.ReadBit()
			if err != nil {
				return err
			}
			rec.BrokenLinkFlag = blf == 1
			csgi, err := br.ReadBitsIntoByte(2)
			if err != nil {
				return err
			}
			rec.ChangingSliceGroupIdc = csgi
			u.SEI = rec
			u.Decoded = true
			return nil
		}
		// Skip this payload's remaining bytes.
		if err := br.SkipBits(int(payloadSize) * 8); err != nil {
			return err
		}
	}
	return nil
}

// readFF reads a sequence of 8-bit values, summing 0xFF continuations,
// per the SEI payload-type/payload-size encoding (H.264 7.3.2.3.1).
func readFF(br *bits.Reader) (uint32, error) {
	var total uint32
	for {
		b, err := br.ReadBitsIntoByte(8)
		if err != nil {
			return 0, err
		}
		total += uint32(b)
		if b != 0xff {
			break
		}
	}
	return total, nil
}
