package compress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statikd/statikd/compress"
)

func TestAlgorithm_Names(t *testing.T) {
	tests := []struct {
		algorithm compress.Algorithm
		ext       string
		name      string
	}{
		{compress.Gzip, "gz", "gzip"},
		{compress.Deflate, "zz", "deflate"},
		{compress.Compress, "z", "compress"},
		{compress.Brotli, "br", "br"},
		{compress.Zstandard, "zst", "zstd"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ext, tt.algorithm.Ext())
		assert.Equal(t, tt.name, tt.algorithm.Name())

		fromExt, ok := compress.AlgorithmFromExt(tt.ext)
		require.True(t, ok)
		assert.Equal(t, tt.algorithm, fromExt)

		fromName, ok := compress.AlgorithmFromName(tt.name)
		require.True(t, ok)
		assert.Equal(t, tt.algorithm, fromName)
	}
}

func TestParseAlgorithms(t *testing.T) {
	algorithms, err := compress.ParseAlgorithms([]string{"gz", "br"})
	require.NoError(t, err)
	assert.Equal(t, []compress.Algorithm{compress.Gzip, compress.Brotli}, algorithms)

	_, err = compress.ParseAlgorithms([]string{"gz", "lzma"})
	assert.Error(t, err)
}

func TestIntersect_Empty(t *testing.T) {
	supported := []compress.Algorithm{compress.Gzip, compress.Brotli}

	assert.Empty(t, compress.Intersect("", supported))
	assert.Empty(t, compress.Intersect("identity", supported))
}

func TestIntersect_ServerOrderWins(t *testing.T) {
	supported := []compress.Algorithm{compress.Gzip, compress.Brotli}

	// Client prefers brotli, but the server's order is preserved.
	assert.Equal(t,
		[]compress.Algorithm{compress.Gzip, compress.Brotli},
		compress.Intersect("br;q=1.0, gzip;q=0.5", supported))
}

func TestIntersect_Wildcard(t *testing.T) {
	supported := []compress.Algorithm{compress.Gzip, compress.Brotli}

	assert.Equal(t, supported, compress.Intersect("*", supported))

	// Explicit zero quality excludes even against a wildcard.
	assert.Equal(t,
		[]compress.Algorithm{compress.Brotli},
		compress.Intersect("gzip;q=0, *", supported))
}

func TestIntersect_UnlistedExcluded(t *testing.T) {
	supported := []compress.Algorithm{compress.Gzip, compress.Brotli, compress.Zstandard}

	assert.Equal(t,
		[]compress.Algorithm{compress.Gzip, compress.Zstandard},
		compress.Intersect("zstd, gzip", supported))
}
