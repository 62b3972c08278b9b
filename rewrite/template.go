package rewrite

import (
	"strings"
)

type varKind int

const (
	varTail varKind = iota
	varQuery
	varHeader
)

type templatePart struct {
	literal string
	kind    varKind
	header  string
	isVar   bool
}

// Template is the parsed form of a rewrite target with ${...} placeholders.
// Recognized variables are ${tail}, ${query} and ${http_<name>}; anything
// else stays literal text.
type Template struct {
	parts []templatePart
}

// Vars supplies the values substituted during expansion. Header must perform
// a case-insensitive lookup and return "" for absent headers.
type Vars struct {
	Tail   string
	Query  string
	Header func(name string) string
}

// ParseTemplate parses a rewrite target. Parsing cannot fail: malformed
// placeholders are kept as literal text.
func ParseTemplate(value string) *Template {
	t := &Template{}
	for value != "" {
		searchStart := 0
		for {
			start := indexAt(value, "${", searchStart)
			end := -1
			if start >= 0 {
				end = indexAt(value, "}", start)
			}

			if start < 0 || end < 0 {
				t.parts = append(t.parts, templatePart{literal: value})
				value = ""
				break
			}

			name := value[start+2 : end]
			part, ok := variablePart(name)
			if !ok {
				// Not a variable name, look for another start further ahead.
				searchStart = start + 2
				continue
			}

			if start > 0 {
				t.parts = append(t.parts, templatePart{literal: value[:start]})
			}
			t.parts = append(t.parts, part)
			value = value[end+1:]
			break
		}
	}
	return t
}

func indexAt(s, substr string, start int) int {
	if i := strings.Index(s[start:], substr); i >= 0 {
		return i + start
	}
	return -1
}

func variablePart(name string) (templatePart, bool) {
	switch {
	case name == "tail":
		return templatePart{isVar: true, kind: varTail}, true
	case name == "query":
		return templatePart{isVar: true, kind: varQuery}, true
	case strings.HasPrefix(name, "http_"):
		header := strings.ReplaceAll(strings.TrimPrefix(name, "http_"), "_", "-")
		if !validHeaderName(header) {
			return templatePart{}, false
		}
		return templatePart{isVar: true, kind: varHeader, header: header}, true
	default:
		return templatePart{}, false
	}
}

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// Expand substitutes the template's variables from v.
func (t *Template) Expand(v Vars) string {
	var sb strings.Builder
	for _, part := range t.parts {
		if !part.isVar {
			sb.WriteString(part.literal)
			continue
		}
		switch part.kind {
		case varTail:
			sb.WriteString(v.Tail)
		case varQuery:
			sb.WriteString(v.Query)
		case varHeader:
			if v.Header != nil {
				sb.WriteString(v.Header(part.header))
			}
		}
	}
	return sb.String()
}
