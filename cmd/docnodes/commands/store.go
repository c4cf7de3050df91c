package commands

import (
	"context"
	"fmt"
	"os"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/storage"
)

// StoreCmd groups the build store subcommands.
type StoreCmd struct {
	Path     string           `help:"Store path (overrides output.store)" type:"path"`
	Checkout StoreCheckoutCmd `cmd:"" help:"Write the files of a stored build into a directory"`
	GC       StoreGCCmd       `cmd:"" name:"gc" help:"Remove objects no build refers to"`
}

func (s *StoreCmd) open(root *CLI) (*storage.FSStore, error) {
	path := s.Path
	if path == "" {
		cfg, err := loadConfig(root)
		if err != nil {
			return nil, err
		}
		path = cfg.Output.Store
	}
	if path == "" {
		return nil, derrors.ConfigError("no store configured: set output.store or --path").Build()
	}
	return storage.NewFSStore(path)
}

// StoreCheckoutCmd implements 'store checkout'.
type StoreCheckoutCmd struct {
	BuildID string `arg:"" name:"build-id" help:"Build to check out"`
	Dir     string `arg:"" help:"Target directory" type:"path"`
}

func (c *StoreCheckoutCmd) Run(g *Global, root *CLI) error {
	st, err := root.Store.open(root)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := os.MkdirAll(c.Dir, 0o750); err != nil {
		return derrors.FileSystemError("cannot create checkout directory").WithCause(err).AtPath(c.Dir).Fatal().Build()
	}
	if err := st.Checkout(context.Background(), c.BuildID, c.Dir); err != nil {
		return derrors.FileSystemError("checkout failed").
			WithCause(err).
			WithContext("build_id", c.BuildID).
			Fatal().
			Build()
	}
	_, err = fmt.Fprintf(g.out(), "Checked out build %s into %s\n", c.BuildID, c.Dir)
	return err
}

// StoreGCCmd implements 'store gc'.
type StoreGCCmd struct{}

func (c *StoreGCCmd) Run(g *Global, root *CLI) error {
	st, err := root.Store.open(root)
	if err != nil {
		return err
	}
	defer st.Close()
	removed, err := st.GC(context.Background())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.out(), "Removed %d unreferenced objects\n", removed)
	return err
}
