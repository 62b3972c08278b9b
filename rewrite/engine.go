// Package rewrite implements the URI rewrite rule engine: rule compilation
// with priority ordering, first-match selection and target template
// expansion.
//
// A rule's "from" field is either an exact path ("/file.txt") or a prefix
// ("/dir/*"). Rules are kept sorted by descending length of the from path,
// exact rules before prefix rules of equal length; within a priority tie the
// configuration order decides, which callers must treat as significant and
// stable. Matching scans that fixed order and stops at the first rule whose
// from and optional regex refinements all pass.
package rewrite

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Kind is the rewrite action of a rule.
type Kind int

const (
	// KindInternal replaces the request's effective URI and continues
	// processing through the remaining pipeline.
	KindInternal Kind = iota
	// KindTemporary emits a 302 redirect and stops processing.
	KindTemporary
	// KindPermanent emits a 301 redirect and stops processing.
	KindPermanent
)

// ParseKind parses the configured rule kind. An empty string defaults to
// internal.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "internal":
		return KindInternal, nil
	case "temporary", "redirect":
		return KindTemporary, nil
	case "permanent":
		return KindPermanent, nil
	default:
		return 0, fmt.Errorf("invalid rewrite kind %q (valid kinds: internal, temporary, permanent)", s)
	}
}

// RedirectStatus returns the HTTP status for redirect kinds, or 0 for
// internal rewrites.
func (k Kind) RedirectStatus() int {
	switch k {
	case KindTemporary:
		return http.StatusFound
	case KindPermanent:
		return http.StatusMovedPermanently
	default:
		return 0
	}
}

// RuleConfig is the externally supplied form of a rewrite rule.
type RuleConfig struct {
	// From is an exact path, or a path prefix when it ends in "/*".
	From string `mapstructure:"from" yaml:"from"`
	// FromRegex further restricts matching paths; a "!" prefix negates it.
	FromRegex string `mapstructure:"from_regex" yaml:"from_regex"`
	// QueryRegex restricts matches by query string; "!" prefix negates.
	QueryRegex string `mapstructure:"query_regex" yaml:"query_regex"`
	// To is the replacement template, supporting ${tail}, ${query} and
	// ${http_<name>}.
	To string `mapstructure:"to" yaml:"to"`
	// Kind is one of internal (default), temporary or permanent.
	Kind string `mapstructure:"kind" yaml:"kind"`
}

type regexMatch struct {
	re     *regexp.Regexp
	negate bool
}

func compileRegexMatch(pattern string) (*regexMatch, error) {
	negate := false
	if rest, ok := strings.CutPrefix(pattern, "!"); ok {
		pattern = rest
		negate = true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexMatch{re: re, negate: negate}, nil
}

func (m *regexMatch) matches(value string) bool {
	result := m.re.MatchString(value)
	if m.negate {
		return !result
	}
	return result
}

// Rule is a compiled rewrite rule. Immutable once compiled; owned by the
// engine's table and shared read-only across requests.
type Rule struct {
	from       string // base path, "/*" suffix stripped
	prefix     bool
	fromRegex  *regexMatch
	queryRegex *regexMatch
	to         *Template
	kind       Kind
}

// From returns the rule's from path as configured.
func (r *Rule) From() string {
	if r.prefix {
		return r.from + "/*"
	}
	return r.from
}

// Kind returns the rule's rewrite action.
func (r *Rule) Kind() Kind {
	return r.kind
}

func compileRule(cfg RuleConfig) (*Rule, error) {
	from := cfg.From
	if from == "" {
		return nil, fmt.Errorf("rewrite rule has no from path")
	}
	if !strings.HasPrefix(from, "/") {
		return nil, fmt.Errorf("rewrite rule from path %q does not start with a slash", from)
	}

	rule := &Rule{from: from}
	if base, ok := strings.CutSuffix(from, "/*"); ok {
		rule.from = base
		rule.prefix = true
	}

	var err error
	if cfg.FromRegex != "" {
		if rule.fromRegex, err = compileRegexMatch(cfg.FromRegex); err != nil {
			return nil, fmt.Errorf("rewrite rule %q: bad from_regex: %w", from, err)
		}
	}
	if cfg.QueryRegex != "" {
		if rule.queryRegex, err = compileRegexMatch(cfg.QueryRegex); err != nil {
			return nil, fmt.Errorf("rewrite rule %q: bad query_regex: %w", from, err)
		}
	}
	if rule.kind, err = ParseKind(cfg.Kind); err != nil {
		return nil, fmt.Errorf("rewrite rule %q: %w", from, err)
	}
	rule.to = ParseTemplate(cfg.To)

	return rule, nil
}

// Engine holds the compiled rule table, built once at configuration load and
// never mutated afterwards.
type Engine struct {
	rules []*Rule
}

// NewEngine compiles the configured rules into an engine. Any malformed rule
// is a fatal configuration error.
func NewEngine(configs []RuleConfig) (*Engine, error) {
	rules := make([]*Rule, 0, len(configs))
	for _, cfg := range configs {
		rule, err := compileRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	// Longest from first, exact before prefix at equal length. The stable
	// sort keeps configuration order for full priority ties.
	sort.SliceStable(rules, func(i, j int) bool {
		if len(rules[i].from) != len(rules[j].from) {
			return len(rules[i].from) > len(rules[j].from)
		}
		return !rules[i].prefix && rules[j].prefix
	})

	return &Engine{rules: rules}, nil
}

// Match is a selected rule together with the tail captured by its prefix.
type Match struct {
	Rule *Rule
	// Tail is the path remainder captured by a prefix rule, always starting
	// with "/". Empty for exact rules.
	Tail string
}

// Match scans the rule table in priority order and returns the first rule
// matching the request path whose regex refinements pass. The header lookup
// must be case-insensitive and return "" for absent headers. No error is
// possible at request time; absence of a match returns false.
func (e *Engine) Match(path, rawQuery string, header func(name string) string) (Match, bool) {
	for _, rule := range e.rules {
		tail, ok := rule.matchFrom(path)
		if !ok {
			continue
		}
		if rule.fromRegex != nil && !rule.fromRegex.matches(path) {
			continue
		}
		if rule.queryRegex != nil && !rule.queryRegex.matches(rawQuery) {
			continue
		}
		return Match{Rule: rule, Tail: tail}, true
	}
	return Match{}, false
}

func (r *Rule) matchFrom(path string) (tail string, ok bool) {
	if !r.prefix {
		if path == r.from {
			return "", true
		}
		return "", false
	}
	if path == r.from {
		return "/", true
	}
	if strings.HasPrefix(path, r.from+"/") {
		tail = path[len(r.from):]
		if tail == "/" || tail == "" {
			tail = "/"
		}
		return tail, true
	}
	return "", false
}

// Target expands the matched rule's replacement template.
func (m Match) Target(rawQuery string, header func(name string) string) string {
	return m.Rule.to.Expand(Vars{Tail: m.Tail, Query: rawQuery, Header: header})
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}
