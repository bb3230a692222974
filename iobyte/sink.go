package iobyte

import "io"

// BufSink adapts an io.WriteCloser to ByteSink.
type BufSink struct {
	W io.WriteCloser
}

// NewBufSink returns a BufSink wrapping w.
func NewBufSink(w io.WriteCloser) *BufSink { return &BufSink{W: w} }

// Write implements ByteSink.
func (s *BufSink) Write(p []byte) (int, error) { return s.W.Write(p) }

// Flush implements ByteSink. BufSink has no internal buffering to flush;
// if the underlying writer supports it, Flush forwards the call.
func (s *BufSink) Flush() error {
	type flusher interface{ Flush() error }
	if f, ok := s.W.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close implements ByteSink.
func (s *BufSink) Close() error { return s.W.Close() }
