package builder

import (
	"context"
	"maps"
	"slices"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// BuildOutput is everything one build produced. Maps are keyed by output
// path relative to the export root.
type BuildOutput struct {
	BuildID   string
	Files     map[string]string
	Resources map[string]*resources.Resources
	// Global is every file's resources merged in page order, then navs.
	Global   *resources.Resources
	Metadata map[string]map[string]any
	Static   []node.StaticFile
	Nav      nav.ManifestEntry
	Failures []Failure
}

// Failure is a page or nav that produced no file, or a node inside a page
// that was replaced by an error block.
type Failure struct {
	Path string
	Kind string
	Node string
	// Recovered is set when the file was still emitted.
	Recovered bool
	Err       error
}

// Fatal reports whether the failure must fail the build.
func (f Failure) Fatal() bool { return !f.Recovered && derrors.IsFatal(f.Err) }

// Paths returns the output file paths sorted.
func (o *BuildOutput) Paths() []string {
	return slices.Sorted(maps.Keys(o.Files))
}

// FailedPaths returns the paths that produced no file, in build order.
func (o *BuildOutput) FailedPaths() []string {
	var out []string
	for _, f := range o.Failures {
		if !f.Recovered {
			out = append(out, f.Path)
		}
	}
	return out
}

func (b *Builder) assemble(ctx context.Context, buildID string, root *nav.Nav, col *collection, pages []pageResult, navs []navResult) (*BuildOutput, error) {
	manifest, err := root.Manifest()
	if err != nil {
		return nil, err
	}
	out := &BuildOutput{
		BuildID:   buildID,
		Files:     make(map[string]string, len(pages)),
		Resources: make(map[string]*resources.Resources, len(pages)),
		Global:    resources.New(),
		Metadata:  make(map[string]map[string]any, len(pages)),
		Static:    dedupeStatic(ctx, col.static),
		Nav:       manifest,
	}

	for i, r := range pages {
		page := col.pages[i]
		for _, f := range r.recovered {
			out.Failures = append(out.Failures, Failure{Path: r.path, Kind: f.Kind, Node: f.Name, Recovered: true, Err: f.Err})
		}
		if r.err != nil {
			out.Failures = append(out.Failures, Failure{Path: r.path, Kind: page.Kind(), Node: page.Name(), Err: r.err})
			continue
		}
		out.add(ctx, r.path, r.markdown, r.resources, b.metadata(buildID, page, page.Title(), navMetadata(page, navs), page.Metadata()))
	}

	for _, r := range navs {
		if r.path == "" {
			continue
		}
		if r.err != nil {
			out.Failures = append(out.Failures, Failure{Path: r.path, Kind: r.nav.Kind(), Node: r.nav.Name(), Err: r.err})
			continue
		}
		out.add(ctx, r.path, r.markdown, r.resources, b.metadata(buildID, r.nav, r.nav.Title(), r.metadata, nil))
	}
	return out, nil
}

func (o *BuildOutput) add(ctx context.Context, p, md string, res *resources.Resources, meta map[string]any) {
	o.Files[p] = md
	o.Resources[p] = res
	o.Metadata[p] = meta
	node.MergeResources(observability.WithPage(ctx, p), o.Global, res)
}

// metadata layers repository facts, inherited nav metadata, the node's own
// metadata and the fixed fields, later layers winning.
func (b *Builder) metadata(buildID string, n node.Node, title string, inherited, own map[string]any) map[string]any {
	meta := b.repo.Fields()
	maps.Copy(meta, inherited)
	maps.Copy(meta, own)
	meta["title"] = title
	meta["kind"] = n.Kind()
	meta["build_id"] = buildID
	return meta
}

// dedupeStatic keeps one attachment per target. When two nodes claim the
// same target the later one wins and the collision is logged.
func dedupeStatic(ctx context.Context, files []node.StaticFile) []node.StaticFile {
	index := make(map[string]int, len(files))
	var out []node.StaticFile
	for _, sf := range files {
		if i, ok := index[sf.Target]; ok {
			observability.WarnContext(ctx, "Static file target claimed twice, keeping the later one",
				logfields.Path(sf.Target),
				logfields.File(sf.Source))
			out[i] = sf
			continue
		}
		index[sf.Target] = len(out)
		out = append(out, sf)
	}
	return out
}
