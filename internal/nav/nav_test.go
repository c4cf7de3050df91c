package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

type literal struct {
	node.Base
	text string
}

func lit(text string) *literal {
	l := &literal{text: text}
	l.Init(l, "literal")
	return l
}

func (l *literal) Content(context.Context) (node.ContentResult, error) {
	return node.Markdown(l.text), nil
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Getting Started":   "getting-started",
		"Café Crème!":       "cafe-creme",
		"  API / v2  ":      "api-v2",
		"Ünïcödé_Wörds 123": "unicode-words-123",
		"???":               "page",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestPageResolvedPath(t *testing.T) {
	root := New("")
	guide := root.SubNav("guide")
	page := NewPage("Getting Started")
	require.NoError(t, guide.Add(page))

	p, err := page.ResolvedPath()
	require.NoError(t, err)
	assert.Equal(t, "guide/getting-started.md", p)

	page.SetFilename("start")
	p, _ = page.ResolvedPath()
	assert.Equal(t, "guide/start.md", p)
}

func TestResolvedPathFollowsReparenting(t *testing.T) {
	root := New("")
	a := root.SubNav("a")
	b := root.SubNav("b").SubNav("deep")
	page := NewPage("Doc")
	require.NoError(t, a.Add(page))

	p, _ := page.ResolvedPath()
	assert.Equal(t, "a/doc.md", p)

	require.NoError(t, node.SetParent(page, b))
	p, _ = page.ResolvedPath()
	assert.Equal(t, "b/deep/doc.md", p)
	assert.Empty(t, a.Pages())
}

func TestDetachedPageFailsFast(t *testing.T) {
	_, err := NewPage("Orphan").ResolvedPath()
	require.Error(t, err)
	assert.True(t, derrors.IsFatal(err))
	assert.True(t, derrors.HasCategory(err, derrors.CategoryPath))
}

func TestNavListingOrder(t *testing.T) {
	root := New("")
	b := NewPage("B")
	a := NewPage("A")
	require.NoError(t, root.Add(b))
	sub := root.SubNav("sub")
	require.NoError(t, root.Add(a))
	idx := NewPage("Home")
	require.NoError(t, root.SetIndex(idx))

	assert.Equal(t, []node.Node{idx, b, sub, a}, root.Children())
	assert.Equal(t, []*Page{idx, b, a}, root.Pages())
	assert.Equal(t, []*Nav{sub}, root.Navs())

	entries := root.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "b.md", entries[0].Key)
	assert.Equal(t, "sub/", entries[1].Key)

	p, _ := idx.ResolvedPath()
	assert.Equal(t, "index.md", p)
}

func TestNavAddRejectsDuplicatesAndContent(t *testing.T) {
	root := New("")
	require.NoError(t, root.Add(NewPage("Same")))
	assert.Error(t, root.Add(NewPage("Same")))
	assert.Error(t, root.Add(lit("not a page")))
	assert.Same(t, root.SubNav("x"), root.SubNav("/x/"))
}

func TestAssignCreatesSubNavs(t *testing.T) {
	root := New("")
	page := NewPage("Leaf")
	require.NoError(t, root.Assign([]string{"one", "two"}, page))

	p, _ := page.ResolvedPath()
	assert.Equal(t, "one/two/leaf.md", p)
	assert.Equal(t, "one/two", root.SubNav("one").SubNav("two").Dir())
	np, _ := root.SubNav("one").ResolvedPath()
	assert.Equal(t, "one/SUMMARY.md", np)
}

func TestNavSummary(t *testing.T) {
	root := New("")
	require.NoError(t, root.SetIndex(NewPage("Welcome")))
	require.NoError(t, root.Add(NewPage("Install")))
	guide := root.SubNav("user-guide")
	require.NoError(t, guide.SetIndex(NewPage("Guide")))
	require.NoError(t, guide.Add(NewPage("Usage")))
	require.NoError(t, guide.SubNav("faq").Add(NewPage("Q")))

	md, err := node.ToMarkdown(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, `* [Welcome](index.md)
* [Install](install.md)
* [User Guide](user-guide/index.md)
    * [Usage](user-guide/usage.md)
    * Faq
        * [Q](user-guide/faq/q.md)`, md)
}

func TestManifest(t *testing.T) {
	root := New("").SetTitle("Docs")
	require.NoError(t, root.Add(NewPage("A")))
	require.NoError(t, root.Assign([]string{"ref"}, NewPage("B")))

	m, err := root.Manifest()
	require.NoError(t, err)
	assert.Equal(t, ManifestEntry{
		Title: "Docs",
		Children: []ManifestEntry{
			{Title: "A", Path: "a.md"},
			{Title: "Ref", Path: "ref", Section: "ref", Children: []ManifestEntry{{Title: "B", Path: "ref/b.md"}}},
		},
	}, m)
}

func TestPageVirtualFiles(t *testing.T) {
	root := New("docs")
	page := NewPage("Hello")
	require.NoError(t, page.Append(lit("Hello"), lit("again")))
	require.NoError(t, root.Add(page))

	files, err := page.VirtualFiles(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"docs/hello.md": "Hello\n\nagain"}, files)

	page.SetMeta("tags", []string{"x"})
	assert.Equal(t, map[string]any{"tags": []string{"x"}}, page.Metadata())
}
