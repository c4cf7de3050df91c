package node

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// Process renders n and runs its processor chain. Errors are returned as-is.
func Process(ctx context.Context, n Node) (ContentResult, error) {
	raw, err := n.Content(ctx)
	if err != nil {
		return ContentResult{}, err
	}
	return ApplyChain(ctx, n, raw)
}

// ToMarkdown returns the processed markdown of n.
func ToMarkdown(ctx context.Context, n Node) (string, error) {
	cr, err := Process(ctx, n)
	if err != nil {
		return "", err
	}
	return cr.markdown, nil
}

// Embed is Process for a node being embedded in a parent. A failing node is
// replaced by an error node so the rest of the tree still renders; fatal
// classified errors and context cancellation are returned instead.
func Embed(ctx context.Context, n Node) (cr ContentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			cr, err = recoverNode(ctx, n, fmt.Errorf("panic: %v", r))
		}
	}()

	cr, err = Process(ctx, n)
	if err == nil {
		return cr, nil
	}
	return recoverNode(ctx, n, err)
}

func recoverNode(ctx context.Context, n Node, cause error) (ContentResult, error) {
	if derrors.IsFatal(cause) || ctx.Err() != nil {
		return ContentResult{}, cause
	}

	b := n.base()
	renderErr := derrors.NodeRenderError(fmt.Sprintf("%s node failed to render", b.kind)).
		WithCause(cause).
		ForNode(b.kind, b.name).
		Build()
	observability.ErrorContext(ctx, "Node render failed",
		logfields.Kind(b.kind),
		logfields.Node(b.name),
		logfields.Error(cause))
	RecordFailure(ctx, Failure{Kind: b.kind, Name: b.name, Err: renderErr})

	errNode := NewErrorNode(cause.Error(), false)
	raw, _ := errNode.Content(ctx)
	return owned(Indent(raw.markdown, b.indent), raw.resources), nil
}

// JoinChildren embeds children in list order, joins their markdown with sep
// and merges own plus every child's resources. Markdown and resources come
// from the same pass so no child renders twice.
func JoinChildren(ctx context.Context, children []Node, sep string, own *resources.Resources) (ContentResult, error) {
	res := own.Clone()
	parts := make([]string, 0, len(children))
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return ContentResult{}, err
		}
		cr, err := Embed(ctx, child)
		if err != nil {
			return ContentResult{}, err
		}
		MergeResources(ctx, res, cr.resources)
		if cr.markdown != "" {
			parts = append(parts, cr.markdown)
		}
	}
	return owned(strings.Join(parts, sep), res), nil
}

// MergeResources merges src into dst and logs overwritten extension options.
func MergeResources(ctx context.Context, dst, src *resources.Resources) {
	for _, c := range dst.Merge(src) {
		observability.WarnContext(ctx, "Extension option overwritten",
			logfields.Extension(c.Extension),
			slog.String("key", c.Key),
			slog.Any("old", resources.Serializable(c.Old)),
			slog.Any("new", resources.Serializable(c.New)))
	}
}
