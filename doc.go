// Package statikd provides the request-routing and content-resolution core of
// a static web server: URI rewriting, security-bounded path resolution,
// content-encoding negotiation and range-aware file delivery.
//
// # Key Components
//
//   - rewrite.Engine: compiled rewrite rules with priority resolution,
//     producing internal URI substitutions or redirects
//   - fspath.Resolver: maps URI paths to filesystem paths confined to a
//     configured root directory, and the inverse mapping
//   - compress.Negotiator: chooses between precompressed on-disk variants
//     and deferred dynamic compression
//   - delivery.Engine: streams files (or byte ranges) in fixed-size chunks
//     through a compression transform
//   - mimematch.Matcher: classifies media types against configured rule sets
//
// # Request Flow
//
// The http package composes the pieces into a per-request pipeline: the
// rewrite engine runs first and may short-circuit with a redirect, the
// resolver turns the (possibly rewritten) URI into a confined path, the
// negotiator picks a variant and adjusts response headers, and the delivery
// engine streams the chosen file.
//
//	router := statikdhttp.NewRouter(statikdhttp.RouterConfig{Static: staticCfg})
//	srv := &http.Server{Addr: ":8080", Handler: router}
//
// Shared structures (rule table, algorithm list, MIME matcher) are built once
// at configuration load and are read-only afterwards; everything per-request
// is owned by that request's goroutine.
//
// See the config package for configuration loading and cmd/statikd for the
// server binary.
package statikd
