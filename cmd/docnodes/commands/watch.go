package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Script   string        `short:"s" help:"Registered script name or path to a YAML tree script (overrides build.script)"`
	Output   string        `short:"o" help:"Output directory (overrides output.directory)"`
	Dir      []string      `short:"d" help:"Directory to watch; repeatable (overrides watch.paths)"`
	Interval time.Duration `help:"Also rebuild on this interval (overrides watch.interval)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if w.Script != "" {
		cfg.Build.Script = w.Script
	}
	if w.Output != "" {
		cfg.Output.Directory = w.Output
	}
	if len(w.Dir) > 0 {
		cfg.Watch.Paths = w.Dir
	}
	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}
	interval := w.Interval
	if interval == 0 {
		if interval, err = cfg.Watch.IntervalDuration(); err != nil {
			return err
		}
	}

	s, err := openSession(ctx, cfg, g)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close build session", logfields.Error(err))
		}
	}()

	out := cfg.Output.Directory
	ignore := []string{out, out + "_stage", out + ".prev"}
	if cfg.Output.Store != "" {
		ignore = append(ignore, cfg.Output.Store)
	}
	if cfg.Events.SQLitePath != "" {
		ignore = append(ignore, cfg.Events.SQLitePath, cfg.Events.SQLitePath+"-journal", cfg.Events.SQLitePath+"-wal")
	}
	if cfg.Metrics.Textfile != "" {
		ignore = append(ignore, cfg.Metrics.Textfile)
	}

	watcher := watch.New(func(ctx context.Context, reason string) error {
		slog.InfoContext(ctx, "Rebuilding", slog.String("reason", reason), logfields.Script(cfg.Build.Script))
		_, err := s.build(ctx)
		return err
	}, cfg.Watch.Paths,
		watch.WithDebounce(debounce),
		watch.WithInterval(interval),
		watch.WithIgnore(ignore...))
	return watcher.Run(ctx)
}
