package reverse

import (
	"bytes"
	"testing"

	"github.com/ausocean/tscore/iobyte"
)

func off(n int64) iobyte.FileOffset {
	return iobyte.FileOffset{Infile: n, Inpacket: iobyte.NoPacketOffset}
}

// memReader implements Reader over an in-memory byte slice.
type memReader struct {
	data []byte
	pos  int64
}

func (m *memReader) Seek(o iobyte.FileOffset) error {
	m.pos = o.Infile
	return nil
}

func (m *memReader) Read(p []byte) (int, error) {
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func TestEmitReverseOrderWithDecimation(t *testing.T) {
	// 48 bytes, one "picture" every 12 bytes, at offsets 0, 12, 24, 36.
	data := make([]byte, 48)
	for i := range data {
		data[i] = byte(i / 12)
	}

	idx := NewIndex()
	for _, p := range []int64{0, 12, 24, 36} {
		if err := idx.Remember(uint32(p), off(p)); err != nil {
			t.Fatalf("Remember(%d): %v", p, err)
		}
	}
	idx.Close(48)

	if idx.PicturesKept() != 4 {
		t.Fatalf("PicturesKept = %d, want 4", idx.PicturesKept())
	}

	src := &memReader{data: data}
	var gotStarts []int64
	err := idx.Emit(src, 1, func(buf []byte) error {
		gotStarts = append(gotStarts, int64(buf[0]))
		return nil
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := []int64{3, 2, 1, 0}
	if len(gotStarts) != len(want) {
		t.Fatalf("gotStarts = %v, want %v", gotStarts, want)
	}
	for i := range want {
		if gotStarts[i] != want[i] {
			t.Errorf("gotStarts[%d] = %d, want %d", i, gotStarts[i], want[i])
		}
	}
	if idx.PicturesWritten() != 4 {
		t.Errorf("PicturesWritten = %d, want 4", idx.PicturesWritten())
	}
	if fw, ok := idx.FirstWritten(); !ok || fw != 36 {
		t.Errorf("FirstWritten = (%d, %v), want (36, true)", fw, ok)
	}
}

func TestEmitPrependsParamOffsets(t *testing.T) {
	data := []byte("SPSPPSFRAME1FRAME2")
	idx := NewIndex()
	idx.ParamOffsets = []ParamRef{
		{Start: off(0), Length: 3}, // "SPS"
		{Start: off(3), Length: 3}, // "PPS"
	}
	if err := idx.Remember(0, off(6)); err != nil { // "FRAME1"
		t.Fatal(err)
	}
	idx.Close(int64(len(data)))

	src := &memReader{data: data}
	var out bytes.Buffer
	err := idx.Emit(src, 1, func(buf []byte) error {
		out.Write(buf)
		return nil
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got, want := out.String(), "SPSPPSFRAME1FRAME2"; got != want {
		t.Errorf("Emit output = %q, want %q", got, want)
	}
}

func TestRememberRejectsNonIncreasingOffset(t *testing.T) {
	idx := NewIndex()
	if err := idx.Remember(0, off(10)); err != nil {
		t.Fatal(err)
	}
	if err := idx.Remember(1, off(10)); err == nil {
		t.Fatal("expected error for non-increasing offset")
	}
}

func TestRememberSeqHeaderExcludedFromPictureCounts(t *testing.T) {
	data := []byte("SEQHDRPICTURE1")
	idx := NewIndex()
	if err := idx.RememberSeqHeader(0, off(0)); err != nil { // "SEQHDR"
		t.Fatal(err)
	}
	if err := idx.Remember(1, off(6)); err != nil { // "PICTURE1"
		t.Fatal(err)
	}
	idx.Close(int64(len(data)))

	if idx.PicturesKept() != 1 {
		t.Fatalf("PicturesKept = %d, want 1 (sequence headers don't count)", idx.PicturesKept())
	}

	src := &memReader{data: data}
	var out bytes.Buffer
	if err := idx.Emit(src, 1, func(buf []byte) error {
		out.Write(buf)
		return nil
	}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got, want := out.String(), "PICTURE1SEQHDR"; got != want {
		t.Errorf("Emit output = %q, want %q", got, want)
	}
	if idx.PicturesWritten() != 1 {
		t.Errorf("PicturesWritten = %d, want 1", idx.PicturesWritten())
	}
	if fw, ok := idx.FirstWritten(); !ok || fw != 1 {
		t.Errorf("FirstWritten = (%d, %v), want (1, true)", fw, ok)
	}
}
