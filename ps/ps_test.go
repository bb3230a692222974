package ps

import (
	"bytes"
	"io"
	"testing"

	"github.com/ausocean/tscore/iobyte"
)

type memSource struct{ r *bytes.Reader }

func (m *memSource) Read(p []byte) (int, error)      { return m.r.Read(p) }
func (m *memSource) Tell() (iobyte.FileOffset, error) { return iobyte.FileOffset{}, nil }
func (m *memSource) Seek(off iobyte.FileOffset) error { return nil }
func (m *memSource) Seekable() bool                   { return false }

func TestReaderParsesPackHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x01, PackStartCode})
	buf.Write([]byte{0x44, 0x00, 0x04, 0x00, 0x04, 0x01, 0xf8, 0x00, 0x00, 0xf8}) // fixed pack_header fields, stuffing_length=0.

	r := NewReader(&memSource{r: bytes.NewReader(buf.Bytes())})
	item, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if item.Kind != KindPack {
		t.Fatalf("Kind = %v, want KindPack", item.Kind)
	}
	if item.Pack == nil {
		t.Fatal("Pack == nil")
	}
}

func TestReaderClassifiesAC3Substream(t *testing.T) {
	sub := make([]byte, 1+3+16)
	sub[0] = 0x80 // AC-3 substream id.
	frame := sub[4:]
	frame[0], frame[1] = 0x0b, 0x77 // AC-3 syncword.
	frame[5] = (1 << 3) | 0x2       // bsid=1, bsmod=2
	frame[6] = (3 << 5)             // acmod=3

	var payload bytes.Buffer
	payload.Write([]byte{0x00, 0x00, 0x01, PrivateStream1})
	length := len(sub) + 3 // 3 fixed PES-header-prefix bytes before optional fields.
	payload.WriteByte(byte(length >> 8))
	payload.WriteByte(byte(length))
	payload.Write([]byte{0x80, 0x00, 0x00}) // flags byte, PDI=0, header_length=0.
	payload.Write(sub)

	r := NewReader(&memSource{r: bytes.NewReader(payload.Bytes())})
	item, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if item.Kind != KindPESPacket || item.StreamID != PrivateStream1 {
		t.Fatalf("item = %+v, want private_stream_1 PES packet", item)
	}
	if item.Sub == nil || item.Sub.Kind != SubstreamAC3 {
		t.Fatalf("Sub = %+v, want AC3", item.Sub)
	}
	if !item.Sub.HasBsmod || item.Sub.Bsmod != 2 {
		t.Errorf("Bsmod = %v (has=%v), want 2", item.Sub.Bsmod, item.Sub.HasBsmod)
	}
	if !item.Sub.HasAcmod || item.Sub.Acmod != 3 {
		t.Errorf("Acmod = %v (has=%v), want 3", item.Sub.Acmod, item.Sub.HasAcmod)
	}
}

func TestReaderDVDModeDisabledSkipsClassification(t *testing.T) {
	sub := make([]byte, 1+3+16)
	sub[0] = 0x80 // AC-3 substream id.
	frame := sub[4:]
	frame[0], frame[1] = 0x0b, 0x77

	var payload bytes.Buffer
	payload.Write([]byte{0x00, 0x00, 0x01, PrivateStream1})
	length := len(sub) + 3
	payload.WriteByte(byte(length >> 8))
	payload.WriteByte(byte(length))
	payload.Write([]byte{0x80, 0x00, 0x00})
	payload.Write(sub)

	r := NewReader(&memSource{r: bytes.NewReader(payload.Bytes())}, DVDMode(false))
	item, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if item.Sub != nil {
		t.Fatalf("Sub = %+v, want nil with dvd_mode disabled", item.Sub)
	}
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(&memSource{r: bytes.NewReader(nil)})
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}
