package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/statikd/statikd"
	"github.com/statikd/statikd/compress"
	"github.com/statikd/statikd/delivery"
	"github.com/statikd/statikd/fspath"
	"github.com/statikd/statikd/mimematch"
	"github.com/statikd/statikd/rewrite"
)

// dynamicOrder is the server preference order for on-the-fly compression.
// Compress is excluded, no encoder exists for it.
var dynamicOrder = []compress.Algorithm{
	compress.Gzip,
	compress.Zstandard,
	compress.Brotli,
	compress.Deflate,
}

// StaticConfig carries everything the static filter needs. Resolver is
// required; the zero value of every other field disables the corresponding
// feature.
type StaticConfig struct {
	// Resolver maps request URIs into the content root.
	Resolver *fspath.Resolver

	// Precompressed lists the algorithms, in server preference order, for
	// which sibling files like "index.html.gz" are probed.
	Precompressed []compress.Algorithm

	// DynamicCompression enables on-the-fly compression for responses whose
	// content type matches CompressTypes.
	DynamicCompression bool

	// CompressionLevel applies to dynamic compression only. Zero selects
	// each encoder's default.
	CompressionLevel int

	// CompressTypes limits dynamic compression to matching content types.
	CompressTypes *mimematch.Matcher

	// IndexFiles are probed in order when the request resolves to a
	// directory.
	IndexFiles []string

	// Page404 is the URI path of a custom page served with 404 responses.
	Page404 string

	// CanonicalizeURI answers 301 when the request URI differs from the
	// canonical form of the resolved path.
	CanonicalizeURI bool

	// ChunkSize is the read size for file delivery. Zero selects the
	// default.
	ChunkSize int

	// DeclareCharset is appended as a charset parameter to content types
	// matching CharsetTypes that do not declare one.
	DeclareCharset string

	// CharsetTypes limits charset declaration to matching content types.
	CharsetTypes *mimematch.Matcher
}

// StaticFilter serves files from the configured root. It is the terminal
// stage of the pipeline: every request it sees either gets a file response
// or an error status.
type StaticFilter struct {
	cfg    StaticConfig
	engine *delivery.Engine
}

// NewStaticFilter builds the filter from its configuration.
func NewStaticFilter(cfg StaticConfig) *StaticFilter {
	return &StaticFilter{
		cfg:    cfg,
		engine: delivery.NewEngine(cfg.ChunkSize),
	}
}

// Filter implements the terminal stage. The negotiator is created before
// anything can fail so that error responses still carry the Vary header.
func (f *StaticFilter) Filter(w http.ResponseWriter, r *http.Request) Result {
	neg := compress.NewNegotiator(f.cfg.Precompressed, f.cfg.DynamicCompression)

	uriPath := r.URL.EscapedPath()
	path, err := f.cfg.Resolver.Resolve(uriPath)
	if err != nil {
		return f.failWith(w, r, neg, statusForError(err))
	}

	if f.cfg.CanonicalizeURI {
		if canonical, ok := f.cfg.Resolver.ToURI(path); ok && canonical != uriPath {
			location := canonical
			if r.URL.RawQuery != "" {
				location += "?" + r.URL.RawQuery
			}
			neg.TransformHeader(http.StatusMovedPermanently, w.Header())
			http.Redirect(w, r, location, http.StatusMovedPermanently)
			return Sent()
		}
	}

	if isDir(path) {
		indexed, ok := f.indexFile(path)
		if !ok {
			return f.failWith(w, r, neg, http.StatusForbidden)
		}
		path = indexed
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		return f.failWith(w, r, neg, http.StatusMethodNotAllowed)
	}

	return f.serve(w, r, neg, path, http.StatusOK)
}

// serve delivers path with the given base status. It is also used for the
// custom 404 page, which goes through the same negotiation and streaming.
func (f *StaticFilter) serve(w http.ResponseWriter, r *http.Request, neg *compress.Negotiator, path fspath.ConfinedPath, status int) Result {
	// Variants are only probed for 200 responses; Content-Encoding is never
	// emitted for other statuses, so serving compressed bytes there would
	// corrupt the body.
	servePath := path
	origPath := fspath.ConfinedPath{}
	if status == http.StatusOK {
		if variant := neg.SelectVariant(path, r.Header.Get("Accept-Encoding")); !variant.IsZero() {
			servePath = variant
			origPath = path
		}
	}

	meta, err := metadataFromPath(servePath, origPath)
	if err != nil {
		if errors.Is(err, errNotRegular) {
			return f.failWith(w, r, neg, http.StatusNotFound)
		}
		return f.failWith(w, r, neg, statusForError(err))
	}
	if f.cfg.DeclareCharset != "" && f.cfg.CharsetTypes != nil {
		meta.declareCharset(f.cfg.DeclareCharset, f.cfg.CharsetTypes.Matches)
	}

	rng := delivery.WholeFile(meta.size)

	if status == http.StatusOK {
		if meta.failedPrecondition(r) {
			return f.failWith(w, r, neg, http.StatusPreconditionFailed)
		}
		if meta.notModified(r) {
			meta.applyCommonHeaders(w.Header())
			neg.TransformHeader(http.StatusNotModified, w.Header())
			w.WriteHeader(http.StatusNotModified)
			return Sent()
		}

		if header := r.Header.Get("Range"); header != "" && rangeApplies(r, meta) {
			parsed, err := delivery.ParseRange(header, meta.size)
			if errors.Is(err, delivery.ErrUnsatisfiable) {
				meta.applyCommonHeaders(w.Header())
				w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(meta.size, 10))
				neg.TransformHeader(http.StatusRequestedRangeNotSatisfiable, w.Header())
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return Sent()
			}
			if parsed != nil {
				rng = *parsed
				status = http.StatusPartialContent
			}
		}
	}

	tr := compress.Transform(compress.Identity())
	dynamic := false
	if status == http.StatusOK && neg.DynamicEnabled() {
		if _, preSelected := neg.Selected(); !preSelected && f.compressible(meta.contentType) {
			if chosen := compress.Intersect(r.Header.Get("Accept-Encoding"), dynamicOrder); len(chosen) > 0 {
				encoder, err := compress.NewEncoder(chosen[0], f.cfg.CompressionLevel)
				if err == nil {
					tr = encoder
					dynamic = true
					w.Header().Set("Content-Encoding", chosen[0].Name())
				}
			}
		}
	}

	meta.applyCommonHeaders(w.Header())
	if dynamic {
		// The compressed length is unknown up front and range requests
		// cannot address compressed bytes.
		w.Header().Set("Accept-Ranges", "none")
	} else {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	}
	if status == http.StatusPartialContent {
		w.Header().Set("Content-Range", contentRange(rng, meta.size))
	}
	neg.TransformHeader(status, w.Header())
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return Sent()
	}

	stream, err := f.engine.Stream(servePath, rng, tr)
	if err != nil {
		// Headers already went out; the transport has to abort.
		slog.Error("open failed after headers sent", "path", servePath.FullPath(), "error", err)
		panic(http.ErrAbortHandler)
	}
	defer stream.Close()

	ctx := r.Context()
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return Sent()
		}
		if err != nil {
			slog.Error("file delivery failed mid-body", "path", servePath.FullPath(), "error", err)
			panic(http.ErrAbortHandler)
		}
		if len(chunk) == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return Sent()
		default:
		}
		if _, err := w.Write(chunk); err != nil {
			// Client went away, nothing left to do.
			return Sent()
		}
	}
}

// failWith writes an error response, substituting the configured custom page
// for 404.
func (f *StaticFilter) failWith(w http.ResponseWriter, r *http.Request, neg *compress.Negotiator, status int) Result {
	if status == http.StatusNotFound && f.cfg.Page404 != "" {
		if page, err := f.cfg.Resolver.Resolve(f.cfg.Page404); err == nil {
			return f.serve(w, r, neg, page, http.StatusNotFound)
		}
	}
	neg.TransformHeader(status, w.Header())
	writeErrorPage(w, status)
	return Sent()
}

func (f *StaticFilter) compressible(contentType string) bool {
	if f.cfg.CompressTypes == nil {
		return true
	}
	return f.cfg.CompressTypes.Matches(contentType)
}

func (f *StaticFilter) indexFile(dir fspath.ConfinedPath) (fspath.ConfinedPath, bool) {
	for _, name := range f.cfg.IndexFiles {
		candidate := dir.Child(name)
		if candidate.IsZero() {
			continue
		}
		if info, err := os.Stat(candidate.FullPath()); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return fspath.ConfinedPath{}, false
}

func isDir(path fspath.ConfinedPath) bool {
	info, err := os.Stat(path.FullPath())
	return err == nil && info.IsDir()
}

func rangeApplies(r *http.Request, meta metadata) bool {
	return delivery.IfRangeApplies(r.Header.Get("If-Range"), meta.etag, meta.lastModified)
}

func contentRange(rng delivery.ByteRange, size int64) string {
	return "bytes " + strconv.FormatInt(rng.Start, 10) + "-" +
		strconv.FormatInt(rng.End, 10) + "/" + strconv.FormatInt(size, 10)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, statikd.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, statikd.ErrNotFound), errors.Is(err, statikd.ErrOutsideRoot):
		return http.StatusNotFound
	case errors.Is(err, statikd.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CORSConfig configures the optional CORS middleware.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RouterConfig assembles the full pipeline behind a chi router.
type RouterConfig struct {
	Rewrites *rewrite.Engine
	Static   StaticConfig
	CORS     CORSConfig
}

// NewRouter wires the middleware stack and the filter chain. The rewrite
// filter runs first so redirects and URI replacement happen before any
// filesystem access.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	if cfg.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			ExposedHeaders:   cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	chain := Chain(
		NewRewriteFilter(cfg.Rewrites),
		NewStaticFilter(cfg.Static),
	)
	r.Handle("/*", chain)
	return r
}
