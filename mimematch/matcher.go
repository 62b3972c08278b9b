// Package mimematch classifies media types against configured rule sets.
//
// A rule is one of four forms:
//
//   - "text/xml" matches exactly that media type
//   - "text/*" matches every subtype of the text type
//   - "text*" matches every media type starting with "text"
//   - "*+xml" matches every media type ending in "+xml"
//
// Matchers are built once per configuration and are read-only afterwards,
// so they can be shared across concurrent requests without locking.
package mimematch

import (
	"fmt"
	"strings"
)

// Matcher holds the compiled rule sets.
type Matcher struct {
	exact    map[string]struct{}
	types    map[string]struct{}
	prefixes []string
	suffixes []string
}

// New compiles the given patterns into a Matcher. An exact pattern must be a
// well-formed "type/subtype" media type, anything else is a configuration
// error.
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{
		exact: make(map[string]struct{}),
		types: make(map[string]struct{}),
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case strings.HasSuffix(p, "/*"):
			m.types[strings.TrimSuffix(p, "/*")] = struct{}{}
		case strings.HasSuffix(p, "*"):
			m.prefixes = append(m.prefixes, strings.TrimSuffix(p, "*"))
		case strings.HasPrefix(p, "*"):
			m.suffixes = append(m.suffixes, strings.TrimPrefix(p, "*"))
		default:
			if !strings.Contains(p, "/") {
				return nil, fmt.Errorf("invalid media type pattern %q", p)
			}
			m.exact[p] = struct{}{}
		}
	}
	return m, nil
}

// Matches reports whether the media type matches any configured rule. Any
// parameters (e.g. "; charset=utf-8") are ignored.
func (m *Matcher) Matches(mediaType string) bool {
	essence := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(essence, ';'); i >= 0 {
		essence = strings.TrimSpace(essence[:i])
	}

	if _, ok := m.exact[essence]; ok {
		return true
	}

	if i := strings.IndexByte(essence, '/'); i >= 0 {
		if _, ok := m.types[essence[:i]]; ok {
			return true
		}
	}

	for _, prefix := range m.prefixes {
		if strings.HasPrefix(essence, prefix) {
			return true
		}
	}
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(essence, suffix) {
			return true
		}
	}
	return false
}
