package builder

import (
	"context"
	"fmt"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/events"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/resources"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// pageResult is what one worker hands back for one page.
type pageResult struct {
	path      string
	markdown  string
	resources *resources.Resources
	// recovered holds node failures replaced by error nodes inside the page.
	recovered []node.Failure
	err       error
}

// renderPages runs one task per page on a pool of b.workers goroutines and
// returns results indexed like col.pages. Tasks never return an error to the
// group, so a failing page cannot cancel its siblings.
func (b *Builder) renderPages(ctx context.Context, buildID string, col *collection) []pageResult {
	results := make([]pageResult, len(col.pages))
	slots := make(chan int, b.workers)
	for i := range b.workers {
		slots <- i + 1
	}

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, page := range col.pages {
		p := col.pagePaths[i]
		g.Go(func() error {
			worker := <-slots
			defer func() { slots <- worker }()

			wctx := observability.WithWorker(observability.WithPage(ctx, p), worker)
			start := time.Now()
			results[i] = b.renderPage(wctx, page, p)
			d := time.Since(start)

			ok := results[i].err == nil
			b.recorder.ObservePageDuration(p, d, ok)
			b.recorder.IncPageResult(ok)
			if ok {
				observability.DebugContext(wctx, "Page rendered", logfields.Duration(d))
				b.emit(wctx, events.PageRendered(buildID, p, d))
			} else {
				observability.ErrorContext(wctx, "Page failed", logfields.Duration(d), logfields.Error(results[i].err))
				b.emit(context.WithoutCancel(wctx), events.PageFailed(buildID, p, results[i].err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// renderPage renders one page subtree, runs its processor chain and
// optionally macro-expands the result. Panics are converted to errors here.
func (b *Builder) renderPage(ctx context.Context, page *nav.Page, p string) (res pageResult) {
	res.path = p
	failures := &node.Failures{}
	ctx = node.WithFailures(ctx, failures)

	defer func() {
		if r := recover(); r != nil {
			res.markdown, res.resources = "", nil
			res.err = derrors.NodeRenderError(fmt.Sprintf("page panicked: %v", r)).
				AtPath(p).
				Build()
		}
		res.recovered = failures.Items()
	}()

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}
	cr, err := node.Process(ctx, page)
	if err == nil && b.renderTemplates {
		cr, err = b.expand(ctx, page, cr)
	}
	if err != nil {
		res.err = err
		return res
	}
	res.markdown = cr.Markdown()
	res.resources = cr.Resources()
	return res
}

// expand runs the page markdown through a detached template environment.
// Nodes the expansion constructs are embedded but never adopted by the page,
// so the tree is left as it was.
func (b *Builder) expand(ctx context.Context, page *nav.Page, cr node.ContentResult) (node.ContentResult, error) {
	vars := maps.Clone(b.vars)
	if vars == nil {
		vars = make(map[string]any)
	}
	maps.Copy(vars, page.Metadata())
	vars["title"] = page.Title()

	opts := []templating.Option{templating.WithVars(vars), templating.WithBaseContext(ctx)}
	if b.kinds != nil {
		opts = append(opts, templating.WithKinds(b.kinds))
	}
	if b.loader != nil {
		opts = append(opts, templating.WithLoader(b.loader))
	}
	env := templating.New(nil, opts...)

	expanded, err := env.RenderStringContext(ctx, cr.Markdown())
	if err != nil {
		return node.ContentResult{}, err
	}
	merged := cr.Resources()
	node.MergeResources(ctx, merged, expanded.Resources())
	return node.NewContentResult(expanded.Markdown(), merged), nil
}
