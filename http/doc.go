// Package http composes the statikd core into a request pipeline behind a
// chi router.
//
// # Pipeline
//
// Each request runs through an ordered filter chain. A filter reports one of
// three outcomes: Unhandled (the next filter should run), ResponseSent (stop,
// the response is complete) or Failed (stop with an HTTP error status). The
// chain shipped here is:
//
//  1. RewriteFilter: applies the first matching rewrite rule, either
//     replacing the request URI in place or short-circuiting with a redirect
//  2. StaticFilter: resolves the URI inside the configured root, negotiates
//     a content encoding and streams the file
//
// # Responses
//
// Error responses carry a minimal HTML page with the status code and
// canonical reason phrase. Vary: Accept-Encoding is present on every
// response, including errors, once any compression mechanism is configured.
//
// # Middleware
//
// Router wires request-ID and access-log middleware, plus CORS when
// configured. All middleware is optional for callers assembling their own
// chain from the exported filters.
package http
