// Package nodes holds the concrete node variants and registers them as kinds
// usable from templates and tree scripts.
package nodes

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// Text is literal markdown. With templating enabled the text is expanded
// through the node's own Environment and the nodes it constructs become the
// Text's children.
type Text struct {
	node.Base
	text     string
	template bool
	envOpts  []templating.Option

	mu  sync.Mutex
	env *templating.Environment
}

func NewText(text string, opts ...node.Option) *Text {
	t := &Text{text: text}
	t.Init(t, "text", opts...)
	return t
}

// EnableTemplate turns on template expansion with the given environment options.
func (t *Text) EnableTemplate(opts ...templating.Option) *Text {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.template = true
	t.envOpts = append(t.envOpts, opts...)
	t.env = nil
	return t
}

func (t *Text) Text() string     { return t.text }
func (t *Text) SetText(s string) { t.text = s }
func (t *Text) IsTemplate() bool { return t.template }

// Environment returns the node's template environment, creating it on first use.
func (t *Text) Environment() *templating.Environment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.env == nil {
		t.env = templating.New(t, t.envOpts...)
	}
	return t.env
}

func (t *Text) Content(ctx context.Context) (node.ContentResult, error) {
	own := t.OwnResources()
	if !t.template {
		return node.NewContentResult(t.text, own), nil
	}
	var env *templating.Environment
	if templating.Detached(ctx) {
		// Embedded by ref from elsewhere: expand without an owner so the
		// page that holds t keeps its environment and children to itself.
		t.mu.Lock()
		env = templating.New(nil, t.envOpts...)
		t.mu.Unlock()
	} else {
		env = t.Environment()
	}
	cr, err := env.RenderStringContext(ctx, t.text)
	if err != nil {
		return node.ContentResult{}, err
	}
	node.MergeResources(ctx, own, cr.Resources())
	return node.NewContentResult(cr.Markdown(), own), nil
}
