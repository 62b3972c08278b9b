package fspath_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statikd/statikd"
	"github.com/statikd/statikd/fspath"
)

func newResolver(t *testing.T) (*fspath.Resolver, string) {
	t.Helper()
	root := t.TempDir()
	r, err := fspath.NewResolver(root)
	require.NoError(t, err)
	return r, r.Root()
}

func writeFile(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	return path
}

func TestResolve_Simple(t *testing.T) {
	r, root := newResolver(t)
	want := writeFile(t, root, "dir", "file.txt")

	p, err := r.Resolve("/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, want, p.FullPath())
}

func TestResolve_TrailingSlash(t *testing.T) {
	r, root := newResolver(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))

	p, err := r.Resolve("/dir/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dir"), p.FullPath())
}

func TestResolve_RootItself(t *testing.T) {
	r, root := newResolver(t)

	p, err := r.Resolve("/")
	require.NoError(t, err)
	assert.Equal(t, root, p.FullPath())
}

func TestResolve_RequiresLeadingSlash(t *testing.T) {
	r, _ := newResolver(t)

	_, err := r.Resolve("file.txt")
	assert.ErrorIs(t, err, statikd.ErrInvalidInput)
}

func TestResolve_DotDotStaysInside(t *testing.T) {
	r, root := newResolver(t)
	writeFile(t, root, "dir", "file.txt")

	// "dir/../dir/file.txt" canonicalizes back inside the root.
	p, err := r.Resolve("/dir/../dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dir", "file.txt"), p.FullPath())
}

func TestResolve_DotDotEscapeRejected(t *testing.T) {
	outer := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outer, "secret.txt"), []byte("secret"), 0o644))
	inner := filepath.Join(outer, "webroot")
	require.NoError(t, os.MkdirAll(inner, 0o755))

	r, err := fspath.NewResolver(inner)
	require.NoError(t, err)

	_, err = r.Resolve("/../secret.txt")
	assert.ErrorIs(t, err, statikd.ErrOutsideRoot)

	// The same escape spelled with percent-encoded dots.
	_, err = r.Resolve("/%2e%2e/secret.txt")
	assert.ErrorIs(t, err, statikd.ErrOutsideRoot)
}

func TestResolve_SymlinkEscapeRejected(t *testing.T) {
	outer := t.TempDir()
	secret := filepath.Join(outer, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o644))
	inner := filepath.Join(outer, "webroot")
	require.NoError(t, os.MkdirAll(inner, 0o755))

	r, err := fspath.NewResolver(inner)
	require.NoError(t, err)

	// Symlink created after the resolver, pointing outside the root.
	require.NoError(t, os.Symlink(secret, filepath.Join(inner, "link.txt")))

	_, err = r.Resolve("/link.txt")
	assert.ErrorIs(t, err, statikd.ErrOutsideRoot)
}

func TestResolve_SymlinkInsideRootAllowed(t *testing.T) {
	r, root := newResolver(t)
	target := writeFile(t, root, "real.txt")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias.txt")))

	p, err := r.Resolve("/alias.txt")
	require.NoError(t, err)
	assert.Equal(t, target, p.FullPath())
}

func TestResolve_EncodedSlashIsNotASeparator(t *testing.T) {
	r, root := newResolver(t)
	writeFile(t, root, "a", "b.txt")

	// "%2F" decodes inside the segment; it must not address a/b.txt.
	_, err := r.Resolve("/a%2Fb.txt")
	assert.ErrorIs(t, err, statikd.ErrNotFound)
}

func TestResolve_PercentDecodePerSegment(t *testing.T) {
	r, root := newResolver(t)
	want := writeFile(t, root, "dir", "file name.txt")

	p, err := r.Resolve("/dir/file%20name.txt")
	require.NoError(t, err)
	assert.Equal(t, want, p.FullPath())
}

func TestResolve_InvalidEscapePassesThrough(t *testing.T) {
	r, root := newResolver(t)
	want := writeFile(t, root, "file%zz.txt")

	p, err := r.Resolve("/file%zz.txt")
	require.NoError(t, err)
	assert.Equal(t, want, p.FullPath())
}

func TestResolve_MissingEntry(t *testing.T) {
	r, _ := newResolver(t)

	_, err := r.Resolve("/nope.txt")
	assert.ErrorIs(t, err, statikd.ErrNotFound)
}

func TestToURI_File(t *testing.T) {
	r, root := newResolver(t)
	writeFile(t, root, "dir", "file.txt")

	p, err := r.Resolve("/dir/file.txt")
	require.NoError(t, err)

	uri, ok := r.ToURI(p)
	require.True(t, ok)
	assert.Equal(t, "/dir/file.txt", uri)
}

func TestToURI_DirectoryGetsTrailingSlash(t *testing.T) {
	r, root := newResolver(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))

	p, err := r.Resolve("/dir")
	require.NoError(t, err)

	uri, ok := r.ToURI(p)
	require.True(t, ok)
	assert.Equal(t, "/dir/", uri)
}

func TestToURI_Root(t *testing.T) {
	r, _ := newResolver(t)

	p, err := r.Resolve("/")
	require.NoError(t, err)

	uri, ok := r.ToURI(p)
	require.True(t, ok)
	assert.Equal(t, "/", uri)
}

func TestToURI_EscapesSpecials(t *testing.T) {
	r, root := newResolver(t)
	writeFile(t, root, `a "b".txt`)

	p, err := r.Resolve(`/a%20%22b%22.txt`)
	require.NoError(t, err)

	uri, ok := r.ToURI(p)
	require.True(t, ok)
	assert.Equal(t, "/a%20%22b%22.txt", uri)
}

func TestRoundTrip(t *testing.T) {
	r, root := newResolver(t)
	want := writeFile(t, root, "dir", "round trip.txt")

	p, err := r.Resolve("/dir/round%20trip.txt")
	require.NoError(t, err)

	uri, ok := r.ToURI(p)
	require.True(t, ok)

	again, err := r.Resolve(uri)
	require.NoError(t, err)
	assert.Equal(t, want, again.FullPath())
}

func TestWithSuffix(t *testing.T) {
	r, root := newResolver(t)
	writeFile(t, root, "file.txt")

	p, err := r.Resolve("/file.txt")
	require.NoError(t, err)

	sibling := p.WithSuffix(".gz")
	assert.Equal(t, filepath.Join(root, "file.txt.gz"), sibling.FullPath())

	assert.True(t, p.WithSuffix("/etc/passwd").IsZero())
}

func TestNewResolver_MissingRoot(t *testing.T) {
	_, err := fspath.NewResolver(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
