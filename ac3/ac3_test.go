package ac3

import (
	"bytes"
	"io"
	"testing"

	"github.com/ausocean/tscore/iobyte"
)

// memSource replays a byte slice as an iobyte.ByteSource.
type memSource struct{ r *bytes.Reader }

func (m *memSource) Read(p []byte) (int, error)      { return m.r.Read(p) }
func (m *memSource) Tell() (iobyte.FileOffset, error) { return iobyte.FileOffset{}, nil }
func (m *memSource) Seek(off iobyte.FileOffset) error { return nil }
func (m *memSource) Seekable() bool                   { return false }

func TestFrameBytesMinimalFrame(t *testing.T) {
	n, err := FrameBytes(0, 0)
	if err != nil {
		t.Fatalf("FrameBytes: %v", err)
	}
	if n != 128 {
		t.Errorf("FrameBytes(0,0) = %d, want 128", n)
	}
}

func TestFrameBytesRejectsOutOfRange(t *testing.T) {
	if _, err := FrameBytes(3, 0); err == nil {
		t.Error("expected error for fscod=3")
	}
	if _, err := FrameBytes(0, 38); err == nil {
		t.Error("expected error for frmsizecod=38")
	}
}

func TestReaderDecodesMinimalFrame(t *testing.T) {
	raw := make([]byte, 128)
	raw[0], raw[1] = syncWord0, syncWord1
	raw[4] = 0x00 // fscod=0, frmsizecod=0

	r := NewReader(&memSource{r: bytes.NewReader(raw)})
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(f.Raw) != 128 {
		t.Errorf("len(Raw) = %d, want 128", len(f.Raw))
	}

	_, err = r.Next()
	if err != io.EOF {
		t.Errorf("second Next err = %v, want io.EOF", err)
	}
}

func TestReaderRejectsBadSync(t *testing.T) {
	raw := make([]byte, syncInfoLen)
	raw[0], raw[1] = 0x00, 0x00
	r := NewReader(&memSource{r: bytes.NewReader(raw)})
	if _, err := r.Next(); err == nil {
		t.Error("expected sync error")
	}
}
