package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/config"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/frontmatter"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/nodes"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Text   string            `short:"t" help:"Template text to render"`
	File   string            `arg:"" optional:"" help:"Template file to render" type:"path"`
	Vars   map[string]string `name:"var" help:"Template variable as key=value; repeatable"`
	Strict bool              `help:"Fail on missing includes instead of rendering an inline error"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	src := r.Text
	switch {
	case r.File != "":
		// #nosec G304 -- the file is named on the command line.
		data, err := os.ReadFile(r.File)
		if err != nil {
			return derrors.MissingFileError("cannot read template file").
				WithCause(err).
				AtPath(r.File).
				Fatal().
				Build()
		}
		src = string(data)
	case r.Text == "":
		return derrors.ValidationError("nothing to render: give --text or a file").Build()
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	vars := maps.Clone(cfg.Build.Vars)
	if vars == nil {
		vars = make(map[string]any, len(r.Vars))
	}
	for k, v := range r.Vars {
		vars[k] = v
	}

	ctx := node.WithStrict(context.Background(), r.Strict || cfg.Build.Strict)
	md, err := renderText(ctx, src, cfg, vars, nil)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.out(), md)
	return err
}

// renderText runs src through a template-enabled text node and its processor
// chain. extra loaders are tried before the configured ones.
func renderText(ctx context.Context, src string, cfg *config.Config, vars map[string]any, extra templating.Loader) (string, error) {
	loader := templateLoader(cfg.Templates)
	if extra != nil {
		loader = templating.ChainLoader{extra, loader}
	}
	opts := []templating.Option{templating.WithVars(vars)}
	if loader != nil {
		opts = append(opts, templating.WithLoader(loader))
	}
	kinds := nodes.DefaultKinds(opts...)
	opts = append(opts, templating.WithKinds(kinds))

	t := nodes.NewText(src).EnableTemplate(opts...)
	return node.ToMarkdown(ctx, t)
}

// RenderFolderCmd implements the 'render-folder' command.
type RenderFolderCmd struct {
	Source string            `arg:"" help:"Folder with markdown templates" type:"path"`
	Dest   string            `arg:"" help:"Folder to write rendered files to" type:"path"`
	Vars   map[string]string `name:"var" help:"Template variable as key=value; repeatable"`
}

func (r *RenderFolderCmd) Run(g *Global, root *CLI) error {
	info, err := os.Stat(r.Source)
	if err != nil || !info.IsDir() {
		return derrors.MissingFileError("source folder not found").
			WithCause(err).
			AtPath(r.Source).
			Fatal().
			Build()
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx := node.WithStrict(context.Background(), cfg.Build.Strict)
	partials := templating.DirLoader(r.Source)
	rendered, failed := 0, 0
	err = filepath.WalkDir(r.Source, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(r.Source, p)
		if err != nil {
			return err
		}
		if err := r.renderFile(ctx, cfg, partials, p, filepath.Join(r.Dest, rel)); err != nil {
			if derrors.IsFatal(err) {
				return err
			}
			failed++
			slog.Error("File not rendered", logfields.File(rel), logfields.Error(err))
			return nil
		}
		rendered++
		return nil
	})
	if err != nil {
		var classified *derrors.ClassifiedError
		if errors.As(err, &classified) {
			return err
		}
		return derrors.FileSystemError("render-folder failed").WithCause(err).Fatal().Build()
	}
	_, _ = fmt.Fprintf(g.out(), "Rendered %d files (%d failed) into %s\n", rendered, failed, r.Dest)
	return nil
}

// renderFile renders one document. Front matter fields become template
// variables and are written back unchanged above the rendered body.
func (r *RenderFolderCmd) renderFile(ctx context.Context, cfg *config.Config, partials templating.Loader, src, dest string) error {
	// #nosec G304 -- walking the folder named on the command line.
	data, err := os.ReadFile(src)
	if err != nil {
		return derrors.FileSystemError("cannot read file").WithCause(err).AtPath(src).Build()
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid front matter").AtPath(src).Build()
	}

	vars := maps.Clone(cfg.Build.Vars)
	if vars == nil {
		vars = make(map[string]any)
	}
	maps.Copy(vars, doc.Fields)
	for k, v := range r.Vars {
		vars[k] = v
	}

	md, err := renderText(ctx, string(doc.Body), cfg, vars, partials)
	if err != nil {
		return err
	}
	doc.Body = []byte(md + "\n")
	out, err := doc.Bytes()
	if err != nil {
		return derrors.InternalError("cannot serialize front matter").WithCause(err).AtPath(src).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return derrors.FileSystemError("cannot create folder").WithCause(err).AtPath(dest).Fatal().Build()
	}
	if err := os.WriteFile(dest, out, 0o600); err != nil {
		return derrors.FileSystemError("cannot write file").WithCause(err).AtPath(dest).Fatal().Build()
	}
	return nil
}
