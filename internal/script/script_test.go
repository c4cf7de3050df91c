package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/nodes"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(nodes.DefaultKinds())
	fn := func(root *nav.Nav) (*nav.Nav, error) { return nil, root.Add(nav.NewPage("A")) }
	require.NoError(t, r.Register("docs", fn))
	assert.Error(t, r.Register("docs", fn))

	got, err := r.Resolve("docs")
	require.NoError(t, err)
	root, err := Run(t.Context(), got, nav.New(""))
	require.NoError(t, err)
	assert.Len(t, root.Pages(), 1)

	_, err = r.Resolve("missing")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryScript))
	assert.True(t, derrors.IsFatal(err))
}

func TestRunWrapsFailures(t *testing.T) {
	_, err := Run(t.Context(), func(*nav.Nav) (*nav.Nav, error) { return nil, errors.New("bad input") }, nav.New(""))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryScript))
	assert.True(t, derrors.IsFatal(err))

	_, err = Run(t.Context(), func(*nav.Nav) (*nav.Nav, error) { panic("oops") }, nav.New(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")

	replacement := nav.New("other")
	got, err := Run(t.Context(), func(*nav.Nav) (*nav.Nav, error) { return replacement, nil }, nav.New(""))
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

const treeScript = `
title: Docs
summary: true
metadata:
  product: demo
index:
  title: Home
  content:
    - kind: text
      args: ["Welcome"]
pages:
  - title: Install
    name: install-page
    metadata:
      weight: 2
    static:
      - target: img/logo.svg
        source: logo.svg
    content:
      - kind: admonition
        args: ["warning"]
        header: Careful
        children:
          - kind: text
            args: ["Back up first."]
      - kind: list
        args: [["a", "b", "c"]]
        named:
          shorten_after: 2
navs:
  - nav: reference
    pages:
      - title: CLI
        content:
          - kind: code
            args: ["docnodes build", "sh"]
            css: [wide]
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(treeScript), 0o600))

	fn, err := NewRegistry(nodes.DefaultKinds()).Resolve(path)
	require.NoError(t, err)
	root, err := Run(t.Context(), fn, nav.New(""))
	require.NoError(t, err)

	assert.Equal(t, "Docs", root.Title())
	assert.True(t, root.SummaryEnabled())
	assert.Equal(t, map[string]any{"product": "demo"}, root.Metadata())

	pages := root.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "Home", pages[0].Title())
	install := pages[1]
	assert.Equal(t, "install-page", install.Name())
	assert.Equal(t, map[string]any{"weight": 2}, install.Metadata())
	assert.Equal(t, []node.StaticFile{{Target: "img/logo.svg", Source: "logo.svg"}}, install.StaticFiles())

	md, err := node.ToMarkdown(t.Context(), install)
	require.NoError(t, err)
	assert.Equal(t, "## Careful\n\n!!! warning\n\n    Back up first.\n\n* a\n* b\n* ...", md)

	ref := root.Navs()
	require.Len(t, ref, 1)
	cli := ref[0].Pages()[0]
	p, err := cli.ResolvedPath()
	require.NoError(t, err)
	assert.Equal(t, "reference/cli.md", p)
	cliMD, err := node.ToMarkdown(t.Context(), cli)
	require.NoError(t, err)
	assert.Equal(t, "```sh\ndocnodes build\n```\n{: .wide}", cliMD)
}

func TestLoadYAMLFailures(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nodes.DefaultKinds())

	_, err := r.Resolve(filepath.Join(dir, "absent.yml"))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryScript))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("pages: [unclosed"), 0o600))
	_, err = r.Resolve(broken)
	require.Error(t, err)

	unknownKind := filepath.Join(dir, "kind.yaml")
	require.NoError(t, os.WriteFile(unknownKind, []byte("pages:\n  - title: X\n    content:\n      - kind: nope\n"), 0o600))
	fn, err := r.Resolve(unknownKind)
	require.NoError(t, err)
	_, err = Run(t.Context(), fn, nav.New(""))
	require.Error(t, err)
	assert.True(t, derrors.IsFatal(err))
}
