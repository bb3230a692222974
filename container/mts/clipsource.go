/*
NAME
  clipsource.go

DESCRIPTION
  clipsource.go adapts a Clip, as produced by Extract from a fully
  buffered MPEG-TS byte slice, into an iobyte.ByteSource. This is the
  whole-buffer counterpart to Demuxer's streaming pull (spec §4.C):
  a caller that has already loaded an entire recorded clip into memory
  (e.g. a small capture file, or a segment produced by
  Clip.TrimToPTSRange/TrimToMetaRange) can hand it to esunit.NewScanner
  the same way Demuxer does for a live TS stream.

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
	"io"

	"github.com/ausocean/tscore/errs"
	"github.com/ausocean/tscore/iobyte"
)

// ClipSource presents the concatenated frame media of a Clip as an
// iobyte.ByteSource, tracking each returned byte's offset within its
// containing frame the same way Demuxer tracks offset within a PES
// packet.
type ClipSource struct {
	clip     *Clip
	frameIdx int
	byteIdx  int
	pos      int64
	pesCount int32
}

// NewClipSource returns a ClipSource over c, starting at its first frame.
func NewClipSource(c *Clip) *ClipSource {
	return &ClipSource{clip: c}
}

// Read implements iobyte.ByteSource.
func (s *ClipSource) Read(p []byte) (int, error) {
	for s.frameIdx < len(s.clip.frames) {
		media := s.clip.frames[s.frameIdx].Media
		if s.byteIdx >= len(media) {
			s.frameIdx++
			s.byteIdx = 0
			s.pesCount = 0
			continue
		}
		n := copy(p, media[s.byteIdx:])
		s.byteIdx += n
		s.pesCount += int32(n)
		s.pos += int64(n)
		return n, nil
	}
	return 0, io.EOF
}

// Tell implements iobyte.ByteSource. Inpacket is the next unread byte's
// offset within the frame it belongs to.
func (s *ClipSource) Tell() (iobyte.FileOffset, error) {
	return iobyte.FileOffset{Infile: s.pos, Inpacket: s.pesCount}, nil
}

// Seek implements iobyte.ByteSource; ClipSource is not seekable. Callers
// wanting a sub-range should trim the Clip itself first, with
// Clip.TrimToPTSRange or Clip.TrimToMetaRange, and build a fresh
// ClipSource over the result.
func (s *ClipSource) Seek(iobyte.FileOffset) error { return errs.IoError }

// Seekable implements iobyte.ByteSource.
func (s *ClipSource) Seekable() bool { return false }

// Frame returns the Clip frame the next unread byte belongs to, or the
// zero Frame and false if the source is exhausted. Callers use this to
// read PTS/stream ID/meta for the data currently being returned.
func (s *ClipSource) Frame() (Frame, bool) {
	if s.frameIdx >= len(s.clip.frames) {
		return Frame{}, false
	}
	return s.clip.frames[s.frameIdx], true
}
