package nodes

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
)

// Include embeds a file from disk, optionally a 1-based inclusive line range.
// With a language set the excerpt renders as a code block.
type Include struct {
	node.Base
	path  string
	start int
	end   int
	lang  string
}

func NewInclude(path string, opts ...node.Option) *Include {
	i := &Include{path: path}
	i.Init(i, "include", opts...)
	return i
}

// Lines restricts the include to start..end; zero leaves that side open.
func (i *Include) Lines(start, end int) *Include {
	i.start, i.end = start, end
	return i
}

// AsCode renders the excerpt as a fenced block in lang.
func (i *Include) AsCode(lang string) *Include {
	i.lang = lang
	return i
}

func (i *Include) Path() string { return i.path }

// Content reads the target on every call. A missing file renders inline error
// text, or fails the build when the render is strict.
func (i *Include) Content(ctx context.Context) (node.ContentResult, error) {
	// #nosec G304 -- include paths come from the build script author.
	data, err := os.ReadFile(i.path)
	if errors.Is(err, fs.ErrNotExist) {
		return i.missing(ctx)
	}
	if err != nil {
		return node.ContentResult{}, derrors.FileSystemError("cannot read include").
			WithCause(err).
			AtPath(i.path).
			Build()
	}

	text := selectLines(string(data), i.start, i.end)
	if i.lang != "" {
		return node.NewContentResult(fence(text, i.lang, "", false), codeResources(i.OwnResources())), nil
	}
	return node.NewContentResult(text, i.OwnResources()), nil
}

func (i *Include) missing(ctx context.Context) (node.ContentResult, error) {
	b := derrors.MissingFileError("include target does not exist").AtPath(i.path)
	if node.Strict(ctx) {
		return node.ContentResult{}, b.Fatal().Build()
	}
	err := b.Build()
	observability.WarnContext(ctx, "Include target missing", logfields.Path(i.path), logfields.Node(i.Name()))
	node.RecordFailure(ctx, node.Failure{Kind: i.Kind(), Name: i.Name(), Err: err})

	cr, _ := node.NewErrorNode("missing include "+i.path, true).Content(ctx)
	return cr, nil
}

func selectLines(text string, start, end int) string {
	if start <= 0 && end <= 0 {
		return strings.TrimRight(text, "\n")
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	from := max(start, 1) - 1
	to := len(lines)
	if end > 0 {
		to = min(end, len(lines))
	}
	if from >= to {
		return ""
	}
	return strings.Join(lines[from:to], "\n")
}
