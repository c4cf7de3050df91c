package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnodes/internal/builder"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/frontmatter"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/resources"
	"git.home.luguber.info/inful/docnodes/internal/storage"
)

func sampleOutput() *builder.BuildOutput {
	code := resources.New().AddExtension("pymdownx.highlight", nil)
	return &builder.BuildOutput{
		BuildID: "build-1",
		Files: map[string]string{
			"index.md":     "# Home",
			"guide/cli.md": "```sh\ndocnodes build\n```",
		},
		Resources: map[string]*resources.Resources{
			"index.md":     resources.New(),
			"guide/cli.md": code,
		},
		Global: code.Clone(),
		Metadata: map[string]map[string]any{
			"index.md":     {"title": "Home", "kind": "page", "build_id": "build-1"},
			"guide/cli.md": {"title": "CLI", "kind": "page", "build_id": "build-1", "weight": 2},
		},
		Static: []node.StaticFile{{Target: "guide/img/logo.svg", Data: []byte("<svg/>")}},
		Nav: nav.ManifestEntry{Title: "Docs", Index: "index.md", Children: []nav.ManifestEntry{
			{Title: "Guide", Path: "guide", Section: "guide", Children: []nav.ManifestEntry{{Title: "CLI", Path: "guide/cli.md"}}},
		}},
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestDirExporterLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	require.NoError(t, DirExporter{Root: dir}.Export(t.Context(), sampleOutput()))

	assert.Equal(t, "# Home", readFile(t, dir, "index.md"))
	assert.Equal(t, "```sh\ndocnodes build\n```", readFile(t, dir, "guide/cli.md"))
	assert.Equal(t, "<svg/>", readFile(t, dir, "guide/img/logo.svg"))

	sidecar, err := frontmatter.ParseYAML([]byte(readFile(t, dir, "guide/cli.md"+SidecarSuffix)))
	require.NoError(t, err)
	assert.Equal(t, "CLI", sidecar["title"])
	assert.Equal(t, 2, sidecar["weight"])
	want, err := frontmatter.Fingerprint(sampleOutput().Metadata["guide/cli.md"], []byte("```sh\ndocnodes build\n```"))
	require.NoError(t, err)
	assert.Equal(t, want, sidecar[frontmatter.FingerprintField])

	var manifest struct {
		Global map[string]any            `json:"global"`
		Files  map[string]map[string]any `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, ResourcesFile)), &manifest))
	assert.Contains(t, manifest.Global["markdown_extensions"], "pymdownx.highlight")
	assert.Len(t, manifest.Files, 2)

	var navEntry nav.ManifestEntry
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, NavFile)), &navEntry))
	assert.Equal(t, sampleOutput().Nav, navEntry)
}

func TestSidecarsAreStable(t *testing.T) {
	a := filepath.Join(t.TempDir(), "a")
	b := filepath.Join(t.TempDir(), "b")
	require.NoError(t, DirExporter{Root: a}.Export(t.Context(), sampleOutput()))
	require.NoError(t, DirExporter{Root: b}.Export(t.Context(), sampleOutput()))
	for _, name := range []string{"index.md" + SidecarSuffix, "guide/cli.md" + SidecarSuffix, ResourcesFile, NavFile} {
		assert.Equal(t, readFile(t, a, name), readFile(t, b, name), name)
	}
}

func TestDirExporterClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	stale := filepath.Join(dir, "stale.md")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	require.NoError(t, DirExporter{Root: dir}.Export(t.Context(), sampleOutput()))
	assert.FileExists(t, stale)

	require.NoError(t, DirExporter{Root: dir, Clean: true}.Export(t.Context(), sampleOutput()))
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(dir, "index.md"))
	assert.NoDirExists(t, dir+"_stage")
	assert.NoDirExists(t, dir+".prev")
}

func TestStaticFromSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "robots.txt")
	require.NoError(t, os.WriteFile(src, []byte("User-agent: *"), 0o600))
	out := sampleOutput()
	out.Static = append(out.Static, node.StaticFile{Target: "robots.txt", Source: src})

	dir := t.TempDir()
	require.NoError(t, DirExporter{Root: dir}.Export(t.Context(), out))
	assert.Equal(t, "User-agent: *", readFile(t, dir, "robots.txt"))

	out.Static = []node.StaticFile{{Target: "gone.txt", Source: filepath.Join(t.TempDir(), "absent")}}
	err := DirExporter{Root: t.TempDir()}.Export(t.Context(), out)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
}

func TestExportRejectsBadPaths(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*builder.BuildOutput)
	}{
		{"parent escape", func(o *builder.BuildOutput) { o.Files["../evil.md"] = "x" }},
		{"absolute", func(o *builder.BuildOutput) { o.Static = []node.StaticFile{{Target: "/etc/passwd", Data: []byte("x")}} }},
		{"unclean", func(o *builder.BuildOutput) { o.Files["guide/../x.md"] = "x" }},
		{"static over page", func(o *builder.BuildOutput) { o.Static = []node.StaticFile{{Target: "index.md", Data: []byte("x")}} }},
		{"reserved manifest", func(o *builder.BuildOutput) { o.Static = []node.StaticFile{{Target: NavFile, Data: []byte("x")}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sampleOutput()
			tt.mutate(out)
			dir := filepath.Join(t.TempDir(), "site")
			err := DirExporter{Root: dir}.Export(t.Context(), out)
			require.Error(t, err)
			assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
			assert.NoDirExists(t, dir)
		})
	}
}

func TestStoreExporterCheckoutMatchesDir(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, StoreExporter{Store: store}.Export(t.Context(), sampleOutput()))

	refs, err := store.BuildRef(t.Context(), "build-1")
	require.NoError(t, err)
	assert.Len(t, refs, 7)

	checkout := t.TempDir()
	require.NoError(t, store.Checkout(t.Context(), "build-1", checkout))
	direct := t.TempDir()
	require.NoError(t, DirExporter{Root: direct}.Export(t.Context(), sampleOutput()))
	for _, r := range refs {
		assert.Equal(t, readFile(t, direct, r.Path), readFile(t, checkout, r.Path), r.Path)
	}

	pages, err := store.List(t.Context(), storage.ObjectTypePage)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	// a second build of the same content stores nothing new
	second := sampleOutput()
	second.BuildID = "build-2"
	require.NoError(t, StoreExporter{Store: store}.Export(t.Context(), second))
	all, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

type failing struct{ err error }

func (f failing) Export(context.Context, *builder.BuildOutput) error { return f.err }

func TestMultiRunsEveryExporter(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	err := Multi{failing{boom}, DirExporter{Root: dir}}.Export(t.Context(), sampleOutput())
	require.ErrorIs(t, err, boom)
	assert.FileExists(t, filepath.Join(dir, "index.md"))

	assert.NoError(t, Multi{}.Export(t.Context(), sampleOutput()))
}
