// Package commands implements the docnodes subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docnodes/internal/config"
	"git.home.luguber.info/inful/docnodes/internal/script"
)

// Global is shared by every subcommand.
type Global struct {
	// Out receives command output that is not logging.
	Out io.Writer
	// Scripts are the Go build functions selectable by name.
	Scripts map[string]script.Func
}

// CLI is the root command line.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ./docnodes.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build        BuildCmd        `cmd:"" help:"Run a build script and export the rendered tree"`
	Render       RenderCmd       `cmd:"" help:"Render one template through a text node and print it"`
	RenderFolder RenderFolderCmd `cmd:"" name:"render-folder" help:"Render every markdown file of a folder into another folder"`
	Watch        WatchCmd        `cmd:"" help:"Rebuild on file changes and optionally on an interval"`
	History      HistoryCmd      `cmd:"" help:"List recorded builds from the SQLite event history"`
	Store        StoreCmd        `cmd:"" help:"Inspect the content-addressed build store"`
}

// logLevel is shared by the default handler so a level from the config file
// can still apply after flag parsing.
var logLevel = new(slog.LevelVar)

// AfterApply runs after flag parsing; it installs the default logger.
func (c *CLI) AfterApply() error {
	logLevel.Set(slog.LevelInfo)
	if env := os.Getenv(config.EnvLogLevel); env != "" {
		if level, err := config.ParseLevel(env); err == nil {
			logLevel.Set(level)
		}
	}
	if c.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// loadConfig loads the config and lets logging.level apply when neither
// --verbose nor the environment chose a level.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if !root.Verbose && os.Getenv(config.EnvLogLevel) == "" {
		if level, err := config.ParseLevel(cfg.Logging.Level); err == nil {
			logLevel.Set(level)
		}
	}
	return cfg, nil
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
