/*
NAME
  reader.go

DESCRIPTION
  reader.go reads successive M2TS entries from a ByteSource and drives
  them through a reorder Buffer, producing plain TS packets in timestamp
  order.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package m2ts

import (
	"io"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// Reader wraps a ByteSource of back-to-back M2TS entries with a reorder
// Buffer, exposing packets in ascending timestamp order.
type Reader struct {
	src  iobyte.ByteSource
	buf  *Buffer
	eof  bool
}

// NewReader returns a Reader with the given reorder window (see NewBuffer).
func NewReader(src iobyte.ByteSource, window int) *Reader {
	return &Reader{src: src, buf: NewBuffer(window)}
}

// fill reads and buffers one more M2TS entry from src.
func (r *Reader) fill() error {
	raw := make([]byte, EntryLen)
	n, err := io.ReadFull(r.src, raw)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		r.eof = true
		if n == 0 {
			return io.EOF
		}
		return errs.UnexpectedEof
	}
	if err != nil {
		return errs.IoError
	}
	e, err := ParseEntry(raw)
	if err != nil {
		return err
	}
	r.buf.Push(e)
	return nil
}

// Next returns the next entry in timestamp order, or io.EOF once the
// source and the buffer are both exhausted.
func (r *Reader) Next() (Entry, error) {
	for !r.eof && !r.buf.Ready() {
		if err := r.fill(); err != nil {
			if err == io.EOF {
				break
			}
			return Entry{}, err
		}
	}
	if e, ok := r.buf.Pop(); ok {
		return e, nil
	}
	return Entry{}, io.EOF
}
