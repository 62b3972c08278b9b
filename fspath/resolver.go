// Package fspath maps URI paths to filesystem paths confined to a configured
// root directory, and back. The Resolver is the only producer of ConfinedPath
// values, which makes the containment guarantee hold by construction: no
// ConfinedPath exists that is not the root or a descendant of it, even when
// the request tries to escape through "..", percent-encoding tricks or
// symlinks created after the server started.
package fspath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/statikd/statikd"
)

// Resolver resolves URI paths against a canonicalized root directory.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root and returns a Resolver confined to it.
// A root that cannot be canonicalized (missing, inaccessible) is a
// configuration error.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize root %q: %w", root, err)
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps a URI path to a filesystem path inside the root.
//
// The URI path must start with "/", otherwise statikd.ErrInvalidInput is
// returned. Segments are percent-decoded individually before any path
// interpretation, so an encoded %2F never introduces a separator. The joined
// path is canonicalized against the real filesystem ("..", ".", symlinks)
// and the result must still be the root or a strict descendant of it,
// otherwise statikd.ErrOutsideRoot is returned. Filesystem errors from
// canonicalization (missing entry, permission) are passed through wrapped.
func (r *Resolver) Resolve(uriPath string) (ConfinedPath, error) {
	rest, ok := strings.CutPrefix(uriPath, "/")
	if !ok {
		return ConfinedPath{}, fmt.Errorf("%w: URI path %q does not start with a slash", statikd.ErrInvalidInput, uriPath)
	}
	rest = strings.TrimSuffix(rest, "/")

	var sb strings.Builder
	sb.WriteString(r.root)
	for _, segment := range strings.Split(rest, "/") {
		decoded := percentDecode(segment)
		// A decoded separator or NUL can never occur in a real file name;
		// appending it would reinterpret the segment as several components.
		if strings.ContainsAny(decoded, "/\x00") || strings.ContainsRune(decoded, filepath.Separator) {
			return ConfinedPath{}, fmt.Errorf("%w: segment %q cannot name a file", statikd.ErrNotFound, segment)
		}
		sb.WriteRune(filepath.Separator)
		sb.WriteString(decoded)
	}

	// EvalSymlinks applies "." and ".." with symlinks already resolved, the
	// same way the kernel would during an actual open.
	canonical, err := filepath.EvalSymlinks(sb.String())
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return ConfinedPath{}, fmt.Errorf("%w: %v", statikd.ErrNotFound, err)
		case errors.Is(err, fs.ErrPermission):
			return ConfinedPath{}, fmt.Errorf("%w: %v", statikd.ErrPermission, err)
		default:
			return ConfinedPath{}, fmt.Errorf("canonicalize %q: %w", uriPath, err)
		}
	}

	if !r.contains(canonical) {
		return ConfinedPath{}, fmt.Errorf("%w: %q", statikd.ErrOutsideRoot, uriPath)
	}
	return ConfinedPath{path: canonical}, nil
}

// ToURI returns the canonical URI path for a confined path. Each component is
// percent-encoded using the escape set the transport requires (controls,
// space, '<', '>', '"'); a trailing slash is appended only if the path
// denotes a directory. Returns false for paths not produced from this root.
func (r *Resolver) ToURI(p ConfinedPath) (string, bool) {
	if !r.contains(p.path) {
		return "", false
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(p.path, r.root), string(filepath.Separator))

	var sb strings.Builder
	sb.WriteByte('/')
	if rel != "" {
		for _, component := range strings.Split(rel, string(filepath.Separator)) {
			sb.WriteString(percentEncode(component))
			sb.WriteByte('/')
		}
	}
	uri := sb.String()

	info, err := os.Stat(p.path)
	isDir := err == nil && info.IsDir()
	if !isDir && len(uri) > 1 {
		uri = uri[:len(uri)-1]
	}
	return uri, true
}

func (r *Resolver) contains(path string) bool {
	return path == r.root || strings.HasPrefix(path, r.root+string(filepath.Separator))
}

// ConfinedPath is a filesystem path guaranteed to be the root directory of
// its Resolver or a descendant of it. The zero value is not a valid path.
type ConfinedPath struct {
	path string
}

// FullPath returns the canonical filesystem path.
func (p ConfinedPath) FullPath() string {
	return p.path
}

// IsZero reports whether the path is the zero value.
func (p ConfinedPath) IsZero() bool {
	return p.path == ""
}

// Child derives the path for a directly contained entry. The name must be a
// single component: separators and dot-dot are rejected with the zero value,
// so a child of a confined directory is confined as well.
func (p ConfinedPath) Child(name string) ConfinedPath {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return ConfinedPath{}
	}
	return ConfinedPath{path: p.path + string(filepath.Separator) + name}
}

// WithSuffix derives the sibling path obtained by appending suffix to the
// file name. Appending to the final component cannot cross a directory
// boundary, so the containment guarantee is preserved. The suffix must not
// contain a path separator.
func (p ConfinedPath) WithSuffix(suffix string) ConfinedPath {
	if strings.ContainsRune(suffix, filepath.Separator) || strings.ContainsRune(suffix, '/') {
		return ConfinedPath{}
	}
	return ConfinedPath{path: p.path + suffix}
}

// percentDecode decodes percent escapes leniently: invalid sequences are
// passed through unchanged rather than rejected, matching what permissive
// HTTP transports deliver.
func percentDecode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				sb.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// percentEncode escapes control characters, space, '<', '>', '"' and '%'
// in a path component.
func percentEncode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f || c == ' ' || c == '<' || c == '>' || c == '"' || c == '%' {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&0xf])
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
