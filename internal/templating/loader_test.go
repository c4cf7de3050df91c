package templating

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/retry"
)

func TestLoaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.md"), []byte("from disk"), 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tpl/remote.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("from http"))
	}))
	t.Cleanup(server.Close)

	chain := ChainLoader{
		MapLoader{"mem.md": "from memory"},
		FSLoader{FS: fstest.MapFS{"embed.md": {Data: []byte("from fs")}}},
		DirLoader(dir),
		HTTPLoader{BaseURL: server.URL + "/tpl", Client: NewHTTPClient()},
	}

	tests := []struct {
		name string
		want string
	}{
		{"mem.md", "from memory"},
		{"embed.md", "from fs"},
		{"disk.md", "from disk"},
		{"remote.md", "from http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chain.Load(t.Context(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := chain.Load(t.Context(), "nowhere.md")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestFSLoaderStaysInsideRoot(t *testing.T) {
	l := FSLoader{FS: fstest.MapFS{"a.md": {Data: []byte("a")}}}
	got, err := l.Load(t.Context(), "../../a.md")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestChainLoaderStopsOnHardErrors(t *testing.T) {
	chain := ChainLoader{
		HTTPLoader{BaseURL: "ftp://example.invalid"},
		MapLoader{"x.md": "x"},
	}
	_, err := chain.Load(t.Context(), "x.md")
	require.Error(t, err)
}

func TestHTTPClientBlocksCrossHostRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("elsewhere"))
	}))
	t.Cleanup(target.Close)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/x", http.StatusFound)
	}))
	t.Cleanup(server.Close)

	_, _, err := Fetch(t.Context(), NewHTTPClient(), server.URL)
	require.Error(t, err)
}

func TestFetchReportsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>x</p>"))
	}))
	t.Cleanup(server.Close)

	body, ctype, err := Fetch(t.Context(), nil, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(body))
	assert.Equal(t, "text/html; charset=utf-8", ctype)

	_, err = ValidateURL("file:///etc/passwd")
	assert.Error(t, err)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	saved := FetchPolicy
	FetchPolicy = retry.NewPolicy(retry.Fixed, time.Millisecond, time.Millisecond, 2)
	t.Cleanup(func() { FetchPolicy = saved })

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	body, _, err := Fetch(t.Context(), nil, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), hits.Load())

	hits.Store(0)
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.NotFound(w, nil)
	}))
	t.Cleanup(missing.Close)
	_, _, err = Fetch(t.Context(), nil, missing.URL)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
	assert.Equal(t, int32(1), hits.Load())
}
