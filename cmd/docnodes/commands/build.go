package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docnodes/internal/config"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Script          string `short:"s" help:"Registered script name or path to a YAML tree script (overrides build.script)"`
	Output          string `short:"o" help:"Output directory (overrides output.directory)"`
	RepoURL         string `name:"repo-url" help:"Repository URL recorded in page metadata (overrides repo.url)"`
	RenderTemplates bool   `name:"render-templates" help:"Macro-expand page markdown after rendering"`
	Workers         int    `short:"w" help:"Page worker pool size (overrides build.workers)"`
	Strict          bool   `help:"Fail the build on missing includes"`
	Clean           bool   `help:"Replace the output directory instead of writing over it"`
	Store           string `help:"Also store artifacts in a content-addressed store at this path"`
	MetricsFile     string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the build"`
}

// apply lets flags override the loaded configuration.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Script != "" {
		cfg.Build.Script = b.Script
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.RepoURL != "" {
		cfg.Repo.URL = b.RepoURL
	}
	if b.RenderTemplates {
		cfg.Build.RenderTemplates = true
	}
	if b.Workers > 0 {
		cfg.Build.Workers = b.Workers
	}
	if b.Strict {
		cfg.Build.Strict = true
	}
	if b.Clean {
		cfg.Output.Clean = true
	}
	if b.Store != "" {
		cfg.Output.Store = b.Store
	}
	if b.MetricsFile != "" {
		cfg.Metrics.Textfile = b.MetricsFile
	}
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	b.apply(cfg)

	s, err := openSession(ctx, cfg, g)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close build session", logfields.Error(err))
		}
	}()

	slog.Info("Starting build",
		logfields.Script(cfg.Build.Script),
		logfields.Path(cfg.Output.Directory),
		logfields.Workers(cfg.Build.Workers))
	out, err := s.build(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Built %d files (%d failures) into %s, build %s\n",
		len(out.Files), len(out.Failures), cfg.Output.Directory, out.BuildID)
	return nil
}
