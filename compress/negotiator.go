package compress

import (
	"net/http"
	"os"

	"github.com/statikd/statikd/fspath"
)

// Negotiator carries the compression state for one request. It is owned
// exclusively by the goroutine handling that request. The dynamic flag is
// captured once at construction and never re-read, so later decisions stay
// consistent with the state observed at negotiation start.
type Negotiator struct {
	precompressed []Algorithm
	dynamic       bool
	selected      Algorithm
	hasSelected   bool
}

// NewNegotiator creates a per-request negotiator. The precompressed slice is
// the server's preference order, shared read-only configuration.
func NewNegotiator(precompressed []Algorithm, dynamicEnabled bool) *Negotiator {
	return &Negotiator{
		precompressed: precompressed,
		dynamic:       dynamicEnabled,
	}
}

// DynamicEnabled reports the dynamic-compression flag captured at
// construction.
func (n *Negotiator) DynamicEnabled() bool {
	return n.dynamic
}

// Selected returns the precompressed algorithm chosen by SelectVariant.
func (n *Negotiator) Selected() (Algorithm, bool) {
	return n.selected, n.hasSelected
}

// SelectVariant probes for a precompressed sibling of path acceptable to the
// client. With an empty precompressed list it returns immediately without
// touching the filesystem. Candidates are tried in server preference order;
// the first sibling "<name>.<ext>" that exists as a regular file wins and
// probing stops. Returns the zero ConfinedPath when no variant applies.
func (n *Negotiator) SelectVariant(path fspath.ConfinedPath, acceptEncoding string) fspath.ConfinedPath {
	if len(n.precompressed) == 0 || acceptEncoding == "" {
		return fspath.ConfinedPath{}
	}

	for _, algorithm := range Intersect(acceptEncoding, n.precompressed) {
		candidate := path.WithSuffix("." + algorithm.Ext())
		info, err := os.Stat(candidate.FullPath())
		if err == nil && info.Mode().IsRegular() {
			n.selected = algorithm
			n.hasSelected = true
			return candidate
		}
	}
	return fspath.ConfinedPath{}
}

// TransformHeader edits the response headers for the negotiated state.
//
// Content-Encoding is set only for 200 and 206 responses where a
// precompressed variant was selected; with no variant the encoding headers
// are left for the dynamic compressor to manage. Vary: Accept-Encoding is
// appended whenever any compression mechanism is configured, regardless of
// status, so downstream caches get a uniform signal even on responses such
// as 404 where nothing was compressed.
func (n *Negotiator) TransformHeader(status int, header http.Header) {
	if status == http.StatusOK || status == http.StatusPartialContent {
		if n.hasSelected {
			header.Set("Content-Encoding", n.selected.Name())
		}
	}

	if len(n.precompressed) > 0 || n.dynamic {
		header.Add("Vary", "Accept-Encoding")
	}
}
