package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/statikd/statikd/fspath"
)

var errNotRegular = errors.New("not a regular file")

// metadata carries the response-relevant properties of the file being
// served.
type metadata struct {
	contentType  string
	size         int64
	lastModified string
	etag         string
}

// metadataFromPath collects metadata for path. When origPath is non-zero it
// determines the content type instead of path, so a precompressed variant
// keeps the original file's type.
func metadataFromPath(path, origPath fspath.ConfinedPath) (metadata, error) {
	info, err := os.Stat(path.FullPath())
	if err != nil {
		return metadata{}, err
	}
	if !info.Mode().IsRegular() {
		return metadata{}, fmt.Errorf("%w: %s", errNotRegular, path.FullPath())
	}

	typeSource := path
	if !origPath.IsZero() {
		typeSource = origPath
	}

	modified := info.ModTime().UTC()
	return metadata{
		contentType:  detectContentType(typeSource.FullPath()),
		size:         info.Size(),
		lastModified: modified.Format(http.TimeFormat),
		etag:         fmt.Sprintf("\"%x-%x\"", modified.Unix(), info.Size()),
	}, nil
}

func detectContentType(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// applyCommonHeaders sets the headers shared by every response derived from
// this file: Content-Type, Last-Modified and ETag.
func (m metadata) applyCommonHeaders(header http.Header) {
	header.Set("Content-Type", m.contentType)
	header.Set("Last-Modified", m.lastModified)
	header.Set("ETag", m.etag)
}

// failedPrecondition checks If-Match and If-Unmodified-Since to decide
// whether to answer 412 Precondition Failed.
func (m metadata) failedPrecondition(r *http.Request) bool {
	if value := r.Header.Get("If-Match"); value != "" {
		if value == "*" {
			return false
		}
		for _, candidate := range strings.Split(value, ",") {
			if strings.TrimSpace(candidate) == m.etag {
				return false
			}
		}
		return true
	}
	if value := r.Header.Get("If-Unmodified-Since"); value != "" {
		return value != m.lastModified
	}
	return false
}

// notModified checks If-None-Match and If-Modified-Since to decide whether
// to answer 304 Not Modified.
func (m metadata) notModified(r *http.Request) bool {
	if value := r.Header.Get("If-None-Match"); value != "" {
		if value == "*" {
			return true
		}
		for _, candidate := range strings.Split(value, ",") {
			if strings.TrimSpace(candidate) == m.etag {
				return true
			}
		}
		return false
	}
	if value := r.Header.Get("If-Modified-Since"); value != "" {
		return value == m.lastModified
	}
	return false
}

// declareCharset appends a charset parameter to the content type when the
// configured matcher covers it and no charset is declared yet.
func (m *metadata) declareCharset(charset string, matches func(string) bool) {
	if charset == "" || strings.Contains(m.contentType, "charset=") {
		return
	}
	if matches(m.contentType) {
		m.contentType += "; charset=" + charset
	}
}
