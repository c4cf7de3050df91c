package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/events"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Build string `short:"b" help:"Show the events of one build instead of the build list"`
	Limit int    `short:"n" default:"20" help:"Number of builds to list"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Events.SQLitePath == "" {
		return derrors.ConfigError("events.sqlite_path is not configured").Build()
	}
	sink, err := events.NewSQLiteSink(cfg.Events.SQLitePath)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "cannot open event history").Fatal().Build()
	}
	defer sink.Close()

	ctx := context.Background()
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	if h.Build != "" {
		evs, err := sink.ByBuild(ctx, h.Build)
		if err != nil {
			return err
		}
		for _, e := range evs {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Path, e.Data)
		}
		return tw.Flush()
	}

	ids, err := sink.Builds(ctx, h.Limit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		evs, err := sink.ByBuild(ctx, id)
		if err != nil {
			return err
		}
		var started time.Time
		outcome := "running"
		for _, e := range evs {
			switch e.Type {
			case events.TypeBuildStarted:
				started = e.Timestamp
			case events.TypeBuildCompleted:
				if o, ok := e.Data["outcome"].(string); ok {
					outcome = o
				}
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", id, started.Format(time.RFC3339), outcome)
	}
	return tw.Flush()
}
