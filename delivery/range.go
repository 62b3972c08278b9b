package delivery

import (
	"errors"
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte range [Start, End] into a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// WholeFile returns the range covering an entire file of the given size.
func WholeFile(size int64) ByteRange {
	return ByteRange{Start: 0, End: size - 1}
}

// ErrUnsatisfiable is returned by ParseRange for ranges outside the file's
// boundaries (416 Range Not Satisfiable).
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// ParseRange parses a Range header value against the file size. It returns
// nil with no error when the header is absent, uses unsupported units or
// cannot be parsed, in which case the whole file should be served. Multiple
// ranges are not supported and are treated as unparseable.
func ParseRange(header string, size int64) (*ByteRange, error) {
	units, spec, ok := strings.Cut(header, "=")
	if !ok || units != "bytes" {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok || strings.Contains(endStr, ",") {
		return nil, nil
	}

	var start, end int64
	switch {
	case startStr == "":
		// Suffix range: last N bytes.
		n, err := strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
		if err != nil {
			return nil, nil
		}
		if n > size {
			return nil, ErrUnsatisfiable
		}
		start, end = size-n, size-1
	case endStr == "":
		n, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
		if err != nil {
			return nil, nil
		}
		start, end = n, size-1
	default:
		var err error
		if start, err = strconv.ParseInt(strings.TrimSpace(startStr), 10, 64); err != nil {
			return nil, nil
		}
		if end, err = strconv.ParseInt(strings.TrimSpace(endStr), 10, 64); err != nil {
			return nil, nil
		}
	}

	if end >= size || start > end || start < 0 {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: end}, nil
}

// IfRangeApplies reports whether a Range header should be honored given the
// request's If-Range value. An empty If-Range always honors the range; a
// non-empty one must equal the resource's ETag or its Last-Modified date.
func IfRangeApplies(ifRange, etag, lastModified string) bool {
	if ifRange == "" {
		return true
	}
	if ifRange == etag {
		return true
	}
	return lastModified != "" && ifRange == lastModified
}
