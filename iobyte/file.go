/*
NAME
  file.go

DESCRIPTION
  file.go provides a seekable ByteSource backed by an *os.File, including
  support for reading a file that's still being written to (the common
  case of reverse-playback indexing against a live recording): reads past
  the current EOF block on an fsnotify write event instead of returning
  io.EOF immediately.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package iobyte

import (
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// FileSource is a ByteSource backed by a regular file. If Growing is true,
// a Read that hits the current end of file blocks (bounded by Timeout)
// waiting for an fsnotify Write event on the file rather than returning
// io.EOF, so a reverse-indexing pass can run concurrently with a writer
// appending to the same file.
type FileSource struct {
	f       *os.File
	pos     int64
	Growing bool
	Timeout time.Duration

	watcher *fsnotify.Watcher
}

// NewFileSource opens path for reading and returns a FileSource over it.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open file source")
	}
	return &FileSource{f: f, Timeout: 2 * time.Second}, nil
}

// watch lazily starts an fsnotify watch on the source file.
func (s *FileSource) watch() error {
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not create fsnotify watcher")
	}
	if err := w.Add(s.f.Name()); err != nil {
		w.Close()
		return errors.Wrap(err, "could not watch file source")
	}
	s.watcher = w
	return nil
}

// Read implements ByteSource. When Growing is set and the file is
// momentarily exhausted, Read waits for a Write event (or Timeout) before
// retrying, rather than reporting io.EOF.
func (s *FileSource) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	if err != io.EOF || !s.Growing {
		return n, err
	}
	if werr := s.watch(); werr != nil {
		return n, err
	}
	select {
	case ev, ok := <-s.watcher.Events:
		if !ok || ev.Op&fsnotify.Write == 0 {
			return n, io.EOF
		}
		m, rerr := s.f.Read(p[n:])
		s.pos += int64(m)
		return n + m, rerr
	case <-time.After(s.Timeout):
		return n, io.EOF
	}
}

// Tell implements ByteSource.
func (s *FileSource) Tell() (FileOffset, error) {
	return FileOffset{Infile: s.pos, Inpacket: NoPacketOffset}, nil
}

// Seek implements ByteSource.
func (s *FileSource) Seek(off FileOffset) error {
	n, err := s.f.Seek(off.Infile, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "could not seek file source")
	}
	s.pos = n
	return nil
}

// Seekable implements ByteSource.
func (s *FileSource) Seekable() bool { return true }

// Close releases the underlying file and watcher.
func (s *FileSource) Close() error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.f.Close()
}
