package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// A Transform converts response body chunks before they are written to the
// transport. Implementations may hold state across chunks; Flush signals end
// of body and must emit any trailing bytes (e.g. a compression footer).
type Transform interface {
	Transform(chunk []byte) ([]byte, error)
	Flush() ([]byte, error)
}

type identity struct{}

func (identity) Transform(chunk []byte) ([]byte, error) { return chunk, nil }
func (identity) Flush() ([]byte, error)                 { return nil, nil }

// Identity returns the pass-through transform used when the bytes on disk
// are already in their wire encoding.
func Identity() Transform {
	return identity{}
}

type streamEncoder struct {
	buf bytes.Buffer
	w   io.WriteCloser
}

func (e *streamEncoder) Transform(chunk []byte) ([]byte, error) {
	if _, err := e.w.Write(chunk); err != nil {
		return nil, err
	}
	return e.take(), nil
}

func (e *streamEncoder) Flush() ([]byte, error) {
	if err := e.w.Close(); err != nil {
		return nil, err
	}
	return e.take(), nil
}

func (e *streamEncoder) take() []byte {
	if e.buf.Len() == 0 {
		return nil
	}
	out := append([]byte(nil), e.buf.Bytes()...)
	e.buf.Reset()
	return out
}

// NewEncoder returns a streaming transform producing the given encoding.
// A level of 0 selects the encoder's default. The compress (LZW) algorithm
// has no encoder and is only supported via precompressed files.
func NewEncoder(a Algorithm, level int) (Transform, error) {
	e := &streamEncoder{}
	switch a {
	case Gzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		w, err := gzip.NewWriterLevel(&e.buf, level)
		if err != nil {
			return nil, err
		}
		e.w = w
	case Deflate:
		if level == 0 {
			level = zlib.DefaultCompression
		}
		w, err := zlib.NewWriterLevel(&e.buf, level)
		if err != nil {
			return nil, err
		}
		e.w = w
	case Brotli:
		if level == 0 {
			level = brotli.DefaultCompression
		}
		e.w = brotli.NewWriterLevel(&e.buf, level)
	case Zstandard:
		w, err := zstd.NewWriter(&e.buf)
		if err != nil {
			return nil, err
		}
		e.w = w
	default:
		return nil, fmt.Errorf("no encoder for %s", a)
	}
	return e, nil
}
