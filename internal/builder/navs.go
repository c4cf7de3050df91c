package builder

import (
	"context"
	"fmt"
	"maps"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// navResult is one nav after the serial phase. Summary fields are set only
// for navs with an enabled SUMMARY.md.
type navResult struct {
	nav *nav.Nav
	// metadata is the nav's own metadata layered over its parent's.
	metadata  map[string]any
	path      string
	markdown  string
	resources *resources.Resources
	err       error
}

// renderNavs visits navs in pre-order on the calling goroutine, so a parent's
// inherited metadata is always resolved before its children read it.
func (b *Builder) renderNavs(ctx context.Context, col *collection) []navResult {
	results := make([]navResult, len(col.navs))
	resolved := make(map[*nav.Nav]map[string]any, len(col.navs))

	for i, n := range col.navs {
		meta := make(map[string]any)
		if parent, ok := node.NearestAncestor[*nav.Nav](n); ok {
			maps.Copy(meta, resolved[parent])
		}
		maps.Copy(meta, n.Metadata())
		resolved[n] = meta
		results[i] = navResult{nav: n, metadata: meta}

		if !n.SummaryEnabled() {
			continue
		}
		results[i].path, _ = n.ResolvedPath()
		nctx := observability.WithPage(ctx, results[i].path)
		cr, err := processNav(nctx, n)
		if err != nil {
			observability.ErrorContext(nctx, "Navigation summary failed", logfields.Error(err))
			results[i].err = err
			continue
		}
		results[i].markdown = cr.Markdown()
		results[i].resources = cr.Resources()
	}
	return results
}

func processNav(ctx context.Context, n *nav.Nav) (cr node.ContentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = derrors.NodeRenderError(fmt.Sprintf("navigation panicked: %v", r)).Build()
		}
	}()
	return node.Process(ctx, n)
}

// navMetadata returns the inherited metadata of the nav closest to n.
func navMetadata(n node.Node, navs []navResult) map[string]any {
	parent, ok := node.NearestAncestor[*nav.Nav](n)
	if !ok {
		return nil
	}
	for _, r := range navs {
		if r.nav == parent {
			return r.metadata
		}
	}
	return nil
}
