/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a bit-level reader over a borrowed byte slice, used by
  the NAL decoder to pull fixed-width fields and Exp-Golomb codes out of an
  RBSP.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader over an in-memory byte slice, along
// with Exp-Golomb (H.264 10.1) decoding.
package bits

import "github.com/ausocean/tscore/errs"

// Reader borrows a byte slice and reads bits from it with a cursor
// (curByte, curBit), curBit always in [0,8). It never copies the backing
// slice.
type Reader struct {
	data    []byte
	curByte int
	curBit  uint
}

// NewReader returns a Reader over data. data is borrowed, not copied; the
// caller must keep it alive and unmodified for the Reader's lifetime.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of bits remaining to be read.
func (r *Reader) Len() int {
	return (len(r.data)-r.curByte)*8 - int(r.curBit)
}

// ByteAligned reports whether the reader sits on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.curBit == 0
}

// BytePos returns the index of the byte currently being read from.
func (r *Reader) BytePos() int {
	return r.curByte
}

// ReadBit reads a single bit, returning 0 or 1.
func (r *Reader) ReadBit() (uint32, error) {
	if r.curByte >= len(r.data) {
		return 0, errs.UnexpectedEof
	}
	b := (r.data[r.curByte] >> (7 - r.curBit)) & 1
	r.curBit++
	if r.curBit == 8 {
		r.curBit = 0
		r.curByte++
	}
	return uint32(b), nil
}

// ReadBits reads n (0..=32) bits and returns them right-justified in a
// uint32.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, errs.IoError
	}
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

// ReadBitsIntoByte reads n (0..=8) bits into the low bits of a byte.
func (r *Reader) ReadBitsIntoByte(n int) (byte, error) {
	if n < 0 || n > 8 {
		return 0, errs.IoError
	}
	v, err := r.ReadBits(n)
	return byte(v), err
}

// CountLeadingZeroBits counts consecutive zero bits from the current
// position up to (but not including) the next 1 bit, consuming the zeros
// and the terminating 1 bit, and returns the zero count.
func (r *Reader) CountLeadingZeroBits() (uint32, error) {
	var n uint32
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			return n, nil
		}
		n++
	}
}

// ReadExpGolomb reads an unsigned Exp-Golomb code (H.264 9.1): k leading
// zero bits, a terminating 1, then k more bits x; result = 2^k - 1 + x.
func (r *Reader) ReadExpGolomb() (uint32, error) {
	k, err := r.CountLeadingZeroBits()
	if err != nil {
		return 0, err
	}
	if k == 0 {
		return 0, nil
	}
	if k > 31 {
		return 0, errs.BrokenUnit
	}
	x, err := r.ReadBits(int(k))
	if err != nil {
		return 0, err
	}
	return (1<<k - 1) + x, nil
}

// ReadSignedExpGolomb reads a signed Exp-Golomb code (H.264 9.1.1):
// val = ReadExpGolomb(); signed = (-1)^(val+1) * ceil(val/2).
func (r *Reader) ReadSignedExpGolomb() (int32, error) {
	val, err := r.ReadExpGolomb()
	if err != nil {
		return 0, err
	}
	mag := (val + 1) / 2
	if val%2 == 1 {
		return int32(mag), nil
	}
	return -int32(mag), nil
}

// SkipBits advances the cursor by n bits without returning their value.
func (r *Reader) SkipBits(n int) error {
	if n < 0 {
		return errs.IoError
	}
	for i := 0; i < n; i++ {
		if _, err := r.ReadBit(); err != nil {
			return err
		}
	}
	return nil
}
