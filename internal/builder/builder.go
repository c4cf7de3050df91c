// Package builder turns a navigation tree into a BuildOutput.
//
// A build runs four phases: collect (single-threaded walk, registry freeze,
// path resolution), pages (bounded worker pool, one task per page), navs
// (serial, pre-order, metadata inheritance) and assemble (merge on the
// orchestrating goroutine). Only the assemble phase writes the output maps.
package builder

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/events"
	"git.home.luguber.info/inful/docnodes/internal/gitinfo"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/metrics"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// Phase names, used for log context and phase duration metrics.
const (
	PhaseCollect  = "collect"
	PhasePages    = "pages"
	PhaseNavs     = "navs"
	PhaseAssemble = "assemble"
)

// Builder renders navigation trees. A Builder holds configuration only and
// may run several builds, one at a time or concurrently on different trees.
type Builder struct {
	workers         int
	renderTemplates bool
	strict          bool
	recorder        metrics.Recorder
	sink            events.Sink
	kinds           *node.Kinds
	loader          templating.Loader
	registry        *node.Registry
	vars            map[string]any
	repo            gitinfo.Info
	buildID         string
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers sets the page worker pool size. Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option { return func(b *Builder) { b.workers = n } }

// WithTemplateRendering macro-expands every page's markdown after rendering.
func WithTemplateRendering(on bool) Option { return func(b *Builder) { b.renderTemplates = on } }

// WithStrict turns configurable fallbacks (missing includes) into fatal errors.
func WithStrict(on bool) Option { return func(b *Builder) { b.strict = on } }

func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

func WithEventSink(s events.Sink) Option { return func(b *Builder) { b.sink = s } }

// WithKinds sets the kinds available to page macro-expansion.
func WithKinds(k *node.Kinds) Option { return func(b *Builder) { b.kinds = k } }

// WithLoader sets where page macro-expansion loads partials from.
func WithLoader(l templating.Loader) Option { return func(b *Builder) { b.loader = l } }

// WithRegistry supplies the name registry. By default every build gets a
// fresh one. A supplied registry is frozen by the build.
func WithRegistry(r *node.Registry) Option { return func(b *Builder) { b.registry = r } }

// WithVars sets template variables for page macro-expansion.
func WithVars(vars map[string]any) Option { return func(b *Builder) { b.vars = vars } }

// WithRepoInfo adds repository facts to every metadata sidecar.
func WithRepoInfo(info gitinfo.Info) Option { return func(b *Builder) { b.repo = info } }

// WithBuildID fixes the build id instead of generating a UUID.
func WithBuildID(id string) Option { return func(b *Builder) { b.buildID = id } }

// New returns a builder with defaults for every unset option.
func New(opts ...Option) *Builder {
	b := &Builder{recorder: metrics.NoopRecorder{}, sink: events.Nop{}}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	if b.recorder == nil {
		b.recorder = metrics.NoopRecorder{}
	}
	if b.sink == nil {
		b.sink = events.Nop{}
	}
	return b
}

// Workers returns the effective pool size.
func (b *Builder) Workers() int { return b.workers }

// Build renders root. Per-page failures are recorded in the output and do
// not fail the build. A fatal failure (a collect-phase error, a strict-mode
// page error, cancellation) is returned as the error; the output is still
// returned when any page was rendered.
func (b *Builder) Build(ctx context.Context, root *nav.Nav) (*BuildOutput, error) {
	if root == nil {
		return nil, derrors.ScriptError("build script produced no root navigation").Build()
	}
	start := time.Now()
	buildID := b.buildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	registry := b.registry
	if registry == nil {
		registry = node.NewRegistry()
	}

	ctx = observability.WithBuildID(ctx, buildID)
	ctx = node.WithRegistry(node.WithStrict(ctx, b.strict), registry)
	b.recorder.SetWorkerCount(b.workers)

	var col *collection
	err := b.phase(ctx, PhaseCollect, func(ctx context.Context) (err error) {
		col, err = collect(root, registry)
		return err
	})
	if err != nil {
		b.finish(ctx, buildID, start, nil, err)
		return nil, err
	}

	observability.InfoContext(ctx, "Build started",
		logfields.Pages(len(col.pages)),
		logfields.Navs(len(col.navs)),
		logfields.Workers(b.workers))
	b.emit(ctx, events.BuildStarted(buildID, len(col.pages), b.workers))

	var pages []pageResult
	_ = b.phase(ctx, PhasePages, func(ctx context.Context) error {
		pages = b.renderPages(ctx, buildID, col)
		return nil
	})

	var navs []navResult
	_ = b.phase(ctx, PhaseNavs, func(ctx context.Context) error {
		navs = b.renderNavs(ctx, col)
		return nil
	})

	var out *BuildOutput
	err = b.phase(ctx, PhaseAssemble, func(ctx context.Context) (err error) {
		out, err = b.assemble(ctx, buildID, root, col, pages, navs)
		return err
	})
	if err == nil {
		err = firstFatal(ctx, out)
	}
	b.finish(ctx, buildID, start, out, err)
	return out, err
}

func (b *Builder) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	b.recorder.ObservePhaseDuration(name, d)
	observability.DebugContext(ctx, "Phase finished", logfields.Duration(d), logfields.Error(err))
	return err
}

func (b *Builder) emit(ctx context.Context, e events.Event) {
	if err := b.sink.Emit(ctx, e); err != nil {
		observability.WarnContext(ctx, "Event sink failed", logfields.Error(err))
	}
}

func (b *Builder) finish(ctx context.Context, buildID string, start time.Time, out *BuildOutput, err error) {
	d := time.Since(start)
	outcome := metrics.BuildSuccess
	switch {
	case ctx.Err() != nil:
		outcome = metrics.BuildCanceled
	case err != nil:
		outcome = metrics.BuildFailed
	case out != nil && len(out.Failures) > 0:
		outcome = metrics.BuildPartial
	}
	b.recorder.ObserveBuildDuration(d)
	b.recorder.IncBuildOutcome(outcome)

	files, failures := 0, 0
	if out != nil {
		files, failures = len(out.Files), len(out.Failures)
	}
	b.emit(context.WithoutCancel(ctx), events.BuildCompleted(buildID, string(outcome), files, failures, d))

	attrs := []slog.Attr{slog.String("outcome", string(outcome)), slog.Int("files", files), slog.Int("failures", failures), logfields.Duration(d)}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
		return
	}
	observability.InfoContext(ctx, "Build completed", attrs...)
}

// firstFatal returns the first fatal page failure in output order, or the
// context error when the build was cancelled.
func firstFatal(ctx context.Context, out *BuildOutput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range out.Failures {
		if f.Fatal() {
			return derrors.WrapError(f.Err, derrors.CategoryBuild, "page failed in strict mode").
				AtPath(f.Path).
				Fatal().
				Build()
		}
	}
	return nil
}
