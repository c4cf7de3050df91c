package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIgnoresVolatileFields(t *testing.T) {
	body := []byte("# Title\n\nBody\n")
	a, err := Fingerprint(map[string]any{"title": "T", "build_id": "one", "commit": "aaa"}, body)
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"title": "T", "build_id": "two"}, body)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)

	c, err := Fingerprint(map[string]any{"title": "Other"}, body)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := Fingerprint(map[string]any{"title": "T"}, []byte("changed"))
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestWithFingerprintCopies(t *testing.T) {
	fields := map[string]any{"title": "T"}
	out, err := WithFingerprint(fields, []byte("x"))
	require.NoError(t, err)
	assert.NotContains(t, fields, FingerprintField)
	assert.Equal(t, "T", out["title"])

	again, err := WithFingerprint(out, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, out[FingerprintField], again[FingerprintField])
}
