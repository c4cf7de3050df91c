package builder

import (
	"path"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// collection is everything the single collect walk learns about the tree.
// Slices are in pre-order.
type collection struct {
	pages     []*nav.Page
	pagePaths []string
	navs      []*nav.Nav
	static    []node.StaticFile
}

// collect walks root once. It registers named nodes and then freezes the
// registry, resolves page and summary paths, rejects duplicate output paths
// and resolves static attachment targets. Every error is fatal.
func collect(root *nav.Nav, registry *node.Registry) (*collection, error) {
	col := &collection{}
	owners := make(map[string]string)
	claim := func(p, owner string) error {
		if prev, ok := owners[p]; ok {
			return derrors.ValidationError("two nodes resolve to the same output path").
				AtPath(p).
				WithContext("first", prev).
				WithContext("second", owner).
				Build()
		}
		owners[p] = owner
		return nil
	}

	var err error
	node.Walk(root, func(n node.Node) bool {
		if err != nil {
			return false
		}
		if n.Name() != "" {
			if err = registry.Register(n); err != nil {
				return false
			}
		}

		switch v := n.(type) {
		case *nav.Page:
			var p string
			if p, err = v.ResolvedPath(); err != nil {
				return false
			}
			if err = claim(p, "page "+v.Title()); err != nil {
				return false
			}
			col.pages = append(col.pages, v)
			col.pagePaths = append(col.pagePaths, p)
		case *nav.Nav:
			if v.SummaryEnabled() {
				p, _ := v.ResolvedPath()
				if err = claim(p, "nav "+v.Title()); err != nil {
					return false
				}
			}
			col.navs = append(col.navs, v)
		}

		for _, sf := range node.BaseOf(n).StaticFiles() {
			var resolved node.StaticFile
			if resolved, err = resolveStatic(n, sf); err != nil {
				return false
			}
			col.static = append(col.static, resolved)
		}
		return true
	})
	registry.Freeze()
	if err != nil {
		return nil, err
	}
	return col, nil
}

// resolveStatic makes sf.Target relative to the output root. Targets are
// relative to the directory of the owning page, or of the nearest nav for
// nodes outside any page; a leading "/" anchors them at the output root.
func resolveStatic(owner node.Node, sf node.StaticFile) (node.StaticFile, error) {
	target := sf.Target
	if !strings.HasPrefix(target, "/") {
		target = path.Join(staticDir(owner), target)
	}
	target = path.Clean(strings.TrimPrefix(target, "/"))
	if target == "." || target == ".." || strings.HasPrefix(target, "../") {
		return node.StaticFile{}, derrors.ValidationError("static file target escapes the output root").
			WithContext("target", sf.Target).
			WithContext("kind", owner.Kind()).
			Build()
	}
	if sf.Source == "" && sf.Data == nil {
		return node.StaticFile{}, derrors.ValidationError("static file needs a source or data").
			WithContext("target", sf.Target).
			Build()
	}
	sf.Target = target
	return sf, nil
}

func staticDir(n node.Node) string {
	page, ok := n.(*nav.Page)
	if !ok {
		page, ok = node.NearestAncestor[*nav.Page](n)
	}
	if ok {
		if p, err := page.ResolvedPath(); err == nil {
			return path.Dir(p)
		}
	}
	if nv, ok := n.(*nav.Nav); ok {
		return nv.Dir()
	}
	if nv, ok := node.NearestAncestor[*nav.Nav](n); ok {
		return nv.Dir()
	}
	return ""
}
