// Package delivery streams files, or byte ranges of them, in fixed-size
// chunks through a compression transform. The stream is pull-based: the
// caller asks for one chunk at a time and chunks arrive in strictly
// increasing offset order.
package delivery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/statikd/statikd"
	"github.com/statikd/statikd/compress"
	"github.com/statikd/statikd/fspath"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 64 * 1024

// Engine produces file streams with a fixed chunk size.
type Engine struct {
	chunkSize int
}

// NewEngine creates a delivery engine. A chunkSize of 0 selects
// DefaultChunkSize.
func NewEngine(chunkSize int) *Engine {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Engine{chunkSize: chunkSize}
}

// Stream opens path and prepares to deliver the inclusive byte range rng
// through tr. The caller must Close the stream on every exit path.
func (e *Engine) Stream(path fspath.ConfinedPath, rng ByteRange, tr compress.Transform) (*Stream, error) {
	f, err := os.Open(path.FullPath())
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %v", statikd.ErrNotFound, err)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %v", statikd.ErrPermission, err)
		default:
			return nil, fmt.Errorf("open %s: %w", path.FullPath(), err)
		}
	}

	if rng.Start != 0 {
		if _, err := f.Seek(rng.Start, 0); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek %s: %w", path.FullPath(), err)
		}
	}

	return &Stream{
		f:         f,
		remaining: rng.Length(),
		buf:       make([]byte, e.chunkSize),
		transform: tr,
	}, nil
}

// Stream is a pull-based producer of transformed body chunks. It is owned by
// a single goroutine; suspension happens at the underlying read call.
type Stream struct {
	f         *os.File
	remaining int64
	buf       []byte
	transform compress.Transform
	flushed   bool
}

// Next returns the next transformed chunk. It returns nil, io.EOF once the
// range is exhausted and the transform has been flushed. A zero-byte read
// before the announced byte count is satisfied means the file was truncated
// or concurrently modified; the stream fails with statikd.ErrTruncatedRead
// rather than silently producing a short body.
//
// A returned chunk may be empty when the transform buffered the input;
// callers should skip writing empty chunks.
func (s *Stream) Next() ([]byte, error) {
	if s.remaining <= 0 {
		if s.flushed {
			return nil, io.EOF
		}
		s.flushed = true
		tail, err := s.transform.Flush()
		if err != nil {
			return nil, fmt.Errorf("flush transform: %w", err)
		}
		return tail, nil
	}

	buf := s.buf
	if int64(len(buf)) > s.remaining {
		buf = buf[:s.remaining]
	}

	n, err := s.f.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", s.f.Name(), err)
		}
		return nil, fmt.Errorf("%w: %s ended with %d bytes left", statikd.ErrTruncatedRead, s.f.Name(), s.remaining)
	}
	s.remaining -= int64(n)

	out, err := s.transform.Transform(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("transform chunk: %w", err)
	}
	return out, nil
}

// Close releases the underlying file handle.
func (s *Stream) Close() error {
	return s.f.Close()
}
