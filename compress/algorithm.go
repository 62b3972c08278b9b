// Package compress handles content-encoding negotiation for static files:
// selecting precompressed on-disk variants, editing response headers, and
// providing the streaming encoders used when compression happens on the fly.
package compress

import (
	"fmt"
	"strconv"
	"strings"
)

// Algorithm is a content-encoding supported for precompressed files.
type Algorithm int

const (
	// Gzip compression, file extension "gz"
	Gzip Algorithm = iota
	// Deflate (zlib) compression, file extension "zz"
	Deflate
	// Compress (LZW) compression, file extension "z"
	Compress
	// Brotli compression, file extension "br"
	Brotli
	// Zstandard compression, file extension "zst"
	Zstandard
)

// Ext returns the file extension for the algorithm, without the dot.
func (a Algorithm) Ext() string {
	switch a {
	case Gzip:
		return "gz"
	case Deflate:
		return "zz"
	case Compress:
		return "z"
	case Brotli:
		return "br"
	case Zstandard:
		return "zst"
	default:
		return ""
	}
}

// Name returns the encoding name used in Accept-Encoding and
// Content-Encoding headers.
func (a Algorithm) Name() string {
	switch a {
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	case Compress:
		return "compress"
	case Brotli:
		return "br"
	case Zstandard:
		return "zstd"
	default:
		return ""
	}
}

func (a Algorithm) String() string {
	return a.Name()
}

// AlgorithmFromExt returns the algorithm for a file extension.
func AlgorithmFromExt(ext string) (Algorithm, bool) {
	switch ext {
	case "gz":
		return Gzip, true
	case "zz":
		return Deflate, true
	case "z":
		return Compress, true
	case "br":
		return Brotli, true
	case "zst":
		return Zstandard, true
	default:
		return 0, false
	}
}

// AlgorithmFromName returns the algorithm for an Accept-Encoding name.
func AlgorithmFromName(name string) (Algorithm, bool) {
	switch name {
	case "gzip":
		return Gzip, true
	case "deflate":
		return Deflate, true
	case "compress":
		return Compress, true
	case "br":
		return Brotli, true
	case "zstd":
		return Zstandard, true
	default:
		return 0, false
	}
}

// ParseAlgorithms converts configured file extensions into algorithms,
// preserving order. Unknown extensions are a configuration error.
func ParseAlgorithms(exts []string) ([]Algorithm, error) {
	algorithms := make([]Algorithm, 0, len(exts))
	for _, ext := range exts {
		a, ok := AlgorithmFromExt(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if !ok {
			return nil, fmt.Errorf("unsupported compression algorithm extension %q", ext)
		}
		algorithms = append(algorithms, a)
	}
	return algorithms, nil
}

// acceptedEncodings parses an Accept-Encoding header value into explicit
// quality assignments plus the wildcard quality, if present.
func acceptedEncodings(header string) (explicit map[string]float64, wildcard float64, hasWildcard bool) {
	explicit = make(map[string]float64)
	for _, spec := range strings.Split(header, ",") {
		params := strings.Split(spec, ";")
		name := strings.ToLower(strings.TrimSpace(params[0]))
		if name == "" {
			continue
		}
		q := 1.0
		for _, param := range params[1:] {
			key, value, ok := strings.Cut(param, "=")
			if !ok || strings.TrimSpace(key) != "q" {
				continue
			}
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				q = parsed
			}
		}
		if name == "*" {
			wildcard = q
			hasWildcard = true
		} else if _, seen := explicit[name]; !seen {
			explicit[name] = q
		}
	}
	return explicit, wildcard, hasWildcard
}

// Intersect returns the supported algorithms the client accepts, in the
// server's preference order. An algorithm is acceptable when it is listed
// with a positive quality, or is covered by a positive "*" entry. Client
// order and quality never reorder the server's preference.
func Intersect(acceptEncoding string, supported []Algorithm) []Algorithm {
	explicit, wildcard, hasWildcard := acceptedEncodings(acceptEncoding)

	var result []Algorithm
	for _, a := range supported {
		q, listed := explicit[a.Name()]
		switch {
		case listed && q > 0:
			result = append(result, a)
		case !listed && hasWildcard && wildcard > 0:
			result = append(result, a)
		}
	}
	return result
}
