package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docnodes/internal/builder"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/observability"
)

// DirExporter writes a build as a directory tree under Root.
//
// With Clean set the tree is written to a sibling staging directory that
// then replaces Root, so stale files from earlier builds disappear and a
// failed export leaves the previous tree in place. Without Clean files are
// written over whatever Root already holds.
type DirExporter struct {
	Root  string
	Clean bool
}

func (d DirExporter) Export(ctx context.Context, out *builder.BuildOutput) error {
	arts, err := artifacts(out)
	if err != nil {
		return err
	}
	root := filepath.Clean(d.Root)
	if !d.Clean {
		if err := writeTree(ctx, root, arts); err != nil {
			return err
		}
		observability.InfoContext(ctx, "Export written", logfields.Path(root), slog.Int("files", len(arts)))
		return nil
	}

	stage := root + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return exportError(err, stage)
	}
	if err := writeTree(ctx, stage, arts); err != nil {
		if rmErr := os.RemoveAll(stage); rmErr != nil {
			observability.WarnContext(ctx, "Failed to remove staging directory", logfields.Path(stage), logfields.Error(rmErr))
		}
		return err
	}
	if err := promote(ctx, stage, root); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Export promoted", logfields.Path(root), slog.Int("files", len(arts)))
	return nil
}

func writeTree(ctx context.Context, dir string, arts []artifact) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return exportError(err, dir)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return exportError(err, dir)
	}
	defer root.Close()

	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.FromSlash(a.path)
		if err := mkdirAll(root, filepath.Dir(name)); err != nil {
			return exportError(err, a.path)
		}
		if err := writeFile(root, name, a.data); err != nil {
			return exportError(err, a.path)
		}
	}
	return nil
}

// promote swaps stage into place. The old tree is kept as root.prev until
// the rename succeeded.
func promote(ctx context.Context, stage, root string) error {
	prev := root + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return exportError(err, prev)
	}
	if _, err := os.Stat(root); err == nil {
		if err := os.Rename(root, prev); err != nil {
			return exportError(fmt.Errorf("backup existing output: %w", err), root)
		}
	}
	if err := os.Rename(stage, root); err != nil {
		return exportError(fmt.Errorf("promote staging: %w", err), root)
	}
	if err := os.RemoveAll(prev); err != nil {
		observability.WarnContext(ctx, "Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
	}
	return nil
}

func writeFile(root *os.Root, name string, data []byte) error {
	f, err := root.Create(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func mkdirAll(root *os.Root, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := mkdirAll(root, filepath.Dir(dir)); err != nil {
		return err
	}
	if err := root.Mkdir(dir, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func exportError(err error, p string) error {
	return derrors.FileSystemError("export failed").
		WithCause(err).
		AtPath(p).
		Build()
}
