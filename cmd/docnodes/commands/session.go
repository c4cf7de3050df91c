package commands

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"git.home.luguber.info/inful/docnodes/internal/builder"
	"git.home.luguber.info/inful/docnodes/internal/config"
	"git.home.luguber.info/inful/docnodes/internal/events"
	"git.home.luguber.info/inful/docnodes/internal/export"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/gitinfo"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/metrics"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/nodes"
	"git.home.luguber.info/inful/docnodes/internal/script"
	"git.home.luguber.info/inful/docnodes/internal/storage"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// session holds everything a build needs that outlives one build: the kind
// set, the script registry, event sinks, exporters and the metrics recorder.
// The watch command reuses one session for every rebuild.
type session struct {
	cfg      *config.Config
	kinds    *node.Kinds
	loader   templating.Loader
	scripts  *script.Registry
	repo     gitinfo.Info
	sink     events.Sink
	store    *storage.FSStore
	exporter export.Exporter
	recorder *metrics.PrometheusRecorder
}

func openSession(ctx context.Context, cfg *config.Config, g *Global) (*session, error) {
	s := &session{cfg: cfg, sink: events.Nop{}}
	s.loader = templateLoader(cfg.Templates)
	s.kinds = nodes.DefaultKinds(envOptions(cfg, s.loader)...)

	s.scripts = script.NewRegistry(s.kinds)
	if g != nil {
		for _, name := range slices.Sorted(maps.Keys(g.Scripts)) {
			if err := s.scripts.Register(name, g.Scripts[name]); err != nil {
				return nil, err
			}
		}
	}

	s.repo = repoInfo(ctx, cfg.Repo)

	sink, err := openSinks(cfg.Events)
	if err != nil {
		return nil, err
	}
	s.sink = sink

	exporters := export.Multi{export.DirExporter{Root: cfg.Output.Directory, Clean: cfg.Output.Clean}}
	if cfg.Output.Store != "" {
		if s.store, err = storage.NewFSStore(cfg.Output.Store); err != nil {
			_ = s.Close()
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "cannot open build store").
				AtPath(cfg.Output.Store).
				Fatal().
				Build()
		}
		exporters = append(exporters, export.StoreExporter{Store: s.store})
	}
	s.exporter = exporters

	if cfg.Metrics.Textfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
	}
	return s, nil
}

// envOptions configures every template environment the session creates.
func envOptions(cfg *config.Config, loader templating.Loader) []templating.Option {
	opts := []templating.Option{templating.WithVars(cfg.Build.Vars)}
	if loader != nil {
		opts = append(opts, templating.WithLoader(loader))
	}
	return opts
}

// templateLoader chains the configured directories, then the remote base URL.
func templateLoader(tc config.TemplatesConfig) templating.Loader {
	var chain templating.ChainLoader
	for _, dir := range tc.Dirs {
		chain = append(chain, templating.DirLoader(dir))
	}
	if tc.BaseURL != "" {
		chain = append(chain, templating.HTTPLoader{BaseURL: tc.BaseURL, Client: templating.NewHTTPClient()})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

// repoInfo detects repository facts when asked to. Detection problems only
// cost metadata, so they are logged.
func repoInfo(ctx context.Context, rc config.RepoConfig) gitinfo.Info {
	var info gitinfo.Info
	if rc.Detect {
		detected, err := gitinfo.Detect(rc.Path, rc.Remote)
		if err != nil {
			slog.WarnContext(ctx, "Repository detection failed", logfields.Path(rc.Path), logfields.Error(err))
		} else {
			info = detected
		}
	}
	if rc.URL != "" {
		info.URL = gitinfo.BrowseURL(rc.URL)
	}
	return info
}

func openSinks(ec config.EventsConfig) (events.Sink, error) {
	var sinks events.Multi
	if ec.SQLitePath != "" {
		sq, err := events.NewSQLiteSink(ec.SQLitePath)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "cannot open event history").
				AtPath(ec.SQLitePath).
				Fatal().
				Build()
		}
		sinks = append(sinks, sq)
	}
	if ec.NATSURL != "" {
		nc, err := events.NewNATSSink(ec.NATSURL, ec.Subject)
		if err != nil {
			_ = sinks.Close()
			return nil, derrors.NetworkError("cannot connect to NATS").
				WithCause(err).
				WithContext("url", ec.NATSURL).
				Build()
		}
		sinks = append(sinks, nc)
	}
	if len(sinks) == 0 {
		return events.Nop{}, nil
	}
	return sinks, nil
}

// build resolves the script afresh, so edits to a YAML tree script are
// picked up by the next build, then renders and exports. The output is not
// exported when the build returned an error.
func (s *session) build(ctx context.Context) (*builder.BuildOutput, error) {
	if s.cfg.Build.Script == "" {
		return nil, derrors.ScriptError("no build script given").Build()
	}
	fn, err := s.scripts.Resolve(s.cfg.Build.Script)
	if err != nil {
		return nil, err
	}
	root, err := script.Run(ctx, fn, nav.New(""))
	if err != nil {
		return nil, err
	}

	opts := []builder.Option{
		builder.WithWorkers(s.cfg.Build.Workers),
		builder.WithTemplateRendering(s.cfg.Build.RenderTemplates),
		builder.WithStrict(s.cfg.Build.Strict),
		builder.WithEventSink(s.sink),
		builder.WithKinds(s.kinds),
		builder.WithVars(s.cfg.Build.Vars),
		builder.WithRepoInfo(s.repo),
	}
	if s.loader != nil {
		opts = append(opts, builder.WithLoader(s.loader))
	}
	if s.recorder != nil {
		opts = append(opts, builder.WithRecorder(s.recorder))
	}

	out, err := builder.New(opts...).Build(ctx, root)
	if err == nil {
		err = s.exporter.Export(ctx, out)
	}
	if out != nil {
		reportFailures(ctx, out)
	}
	if s.recorder != nil {
		if werr := s.recorder.WriteTextfile(s.cfg.Metrics.Textfile); werr != nil {
			slog.WarnContext(ctx, "Failed to write metrics textfile", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return out, err
}

func reportFailures(ctx context.Context, out *builder.BuildOutput) {
	for _, f := range out.Failures {
		attrs := []any{
			logfields.Path(f.Path),
			logfields.Kind(f.Kind),
			logfields.Category(string(derrors.GetCategory(f.Err))),
			logfields.Error(f.Err),
		}
		if f.Node != "" {
			attrs = append(attrs, logfields.Node(f.Node))
		}
		if f.Recovered {
			slog.WarnContext(ctx, "Node replaced by error block", attrs...)
		} else {
			slog.ErrorContext(ctx, "Page not written", attrs...)
		}
	}
	if len(out.Failures) > 0 {
		slog.WarnContext(ctx, "Build finished with failures",
			slog.Int("failures", len(out.Failures)),
			slog.Int("files", len(out.Files)))
	}
}

func (s *session) Close() error {
	var errs []error
	if s.sink != nil {
		errs = append(errs, s.sink.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
