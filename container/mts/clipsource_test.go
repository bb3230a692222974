/*
NAME
  clipsource_test.go

DESCRIPTION
  clipsource_test.go validates ClipSource's adaptation of Extract's Clip
  into an iobyte.ByteSource.

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

	"github.com/ausocean/tscore/container/mts/meta"
)

func TestClipSourceReadsExtractedFrames(t *testing.T) {
	Meta = meta.New()

	var clip bytes.Buffer
	if err := writePSIWithMeta(&clip, t); err != nil {
		t.Fatalf("writePSIWithMeta: %v", err)
	}
	frame1 := []byte("first frame payload, long enough to span more than one TS packet of media")
	frame2 := []byte("second frame")
	if err := writeFrame(&clip, frame1, 1000); err != nil {
		t.Fatalf("writeFrame 1: %v", err)
	}
	if err := writeFrame(&clip, frame2, 2000); err != nil {
		t.Fatalf("writeFrame 2: %v", err)
	}

	c, err := Extract(clip.Bytes())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(c.Frames()) != 2 {
		t.Fatalf("len(Frames()) = %d, want 2", len(c.Frames()))
	}

	src := NewClipSource(c)
	var got []byte
	buf := make([]byte, 5)
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	want := append(append([]byte{}, frame1...), frame2...)
	if !bytes.Equal(got, want) {
		t.Fatalf("ClipSource reassembled = %q, want %q", got, want)
	}
}

func TestClipSourceFrameTracksCurrentMedia(t *testing.T) {
	Meta = meta.New()

	var clip bytes.Buffer
	if err := writePSIWithMeta(&clip, t); err != nil {
		t.Fatalf("writePSIWithMeta: %v", err)
	}
	if err := writeFrame(&clip, []byte("abc"), 1000); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	c, err := Extract(clip.Bytes())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	src := NewClipSource(c)

	f, ok := src.Frame()
	if !ok {
		t.Fatal("Frame() ok = false, want true before exhaustion")
	}
	if f.PTS != 1000 {
		t.Errorf("Frame().PTS = %d, want 1000", f.PTS)
	}

	buf := make([]byte, 3)
	if _, err := src.Read(buf); err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	if _, err := src.Read(buf); err != io.EOF {
		t.Fatalf("Read after exhaustion: err = %v, want io.EOF", err)
	}
	if _, ok := src.Frame(); ok {
		t.Error("Frame() ok = true, want false after exhaustion")
	}
}
