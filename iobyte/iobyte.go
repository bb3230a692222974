/*
NAME
  iobyte.go

DESCRIPTION
  iobyte.go defines the abstract byte-source and byte-sink interfaces that
  the core consumes (spec §6), keeping the core free of any direct
  dependency on files, sockets, or stdin/stdout.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package iobyte provides the ByteSource/ByteSink interfaces the core's
// parsers and muxers are built against, plus two concrete adapters
// (FileSource, BufSink) good enough to exercise the core end-to-end.
package iobyte

import "io"

// FileOffset identifies a byte position, optionally within a containing
// PES packet, so a scanner result can later be re-read (spec §3).
type FileOffset struct {
	Infile   int64 // Byte position in the underlying file/stream.
	Inpacket int32 // Byte position within the containing PES packet, or -1 if not applicable.
}

// NoPacketOffset marks a FileOffset that isn't nested in a PES packet.
const NoPacketOffset int32 = -1

// ByteSource is the core's abstract pull-based byte source. Read behaves
// like io.Reader; Seek requires Seekable to report true.
type ByteSource interface {
	Read(p []byte) (n int, err error)
	Tell() (FileOffset, error)
	Seek(off FileOffset) error
	Seekable() bool
}

// ByteSink is the core's abstract push-based byte sink.
type ByteSink interface {
	Write(p []byte) (n int, err error)
	Flush() error
	Close() error
}

// Reader adapts a ByteSource to io.Reader for use with stdlib and
// gots-based helpers that only need sequential reads.
func Reader(s ByteSource) io.Reader {
	return readerFunc(s.Read)
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
