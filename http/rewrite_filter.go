package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/statikd/statikd/rewrite"
)

// RewriteFilter applies the rewrite engine as the first pipeline stage. An
// internal rule replaces the request's effective URI in place and lets the
// chain continue; a redirect rule answers 301/302 with the expanded target
// and stops processing.
type RewriteFilter struct {
	engine *rewrite.Engine
}

// NewRewriteFilter wraps a compiled rewrite engine. A nil engine yields a
// filter that never matches.
func NewRewriteFilter(engine *rewrite.Engine) *RewriteFilter {
	return &RewriteFilter{engine: engine}
}

// Filter implements the Filter interface.
func (f *RewriteFilter) Filter(w http.ResponseWriter, r *http.Request) Result {
	if f.engine == nil {
		return Next()
	}

	headerLookup := func(name string) string {
		if name == "host" {
			// Go stores Host outside the header map.
			return r.Host
		}
		return r.Header.Get(name)
	}

	m, ok := f.engine.Match(r.URL.EscapedPath(), r.URL.RawQuery, headerLookup)
	if !ok {
		return Next()
	}

	target := m.Target(r.URL.RawQuery, headerLookup)

	if status := m.Rule.Kind().RedirectStatus(); status != 0 {
		http.Redirect(w, r, target, status)
		return Sent()
	}

	u, err := url.ParseRequestURI(target)
	if err != nil {
		slog.Error("rewrite target is not a valid URI", "target", target, "err", err)
		return Next()
	}
	r.URL.Path = u.Path
	r.URL.RawPath = u.RawPath
	r.URL.RawQuery = u.RawQuery
	return Next()
}
