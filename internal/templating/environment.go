// Package templating expands text/template sources bound to a node. Every
// registered node kind is exposed as a template function; calling it builds a
// typed node, parents it to the owning node and embeds its rendering in place.
package templating

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"text/template"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// ErrEnvironmentBusy is returned when an Environment is used by two render
// calls at once. Accumulators are per call and cannot be shared.
var ErrEnvironmentBusy = errors.New("templating: environment already rendering")

// Environment expands templates on behalf of one owning node.
type Environment struct {
	owner  node.Node
	loader Loader
	kinds  *node.Kinds
	vars   map[string]any
	base   context.Context

	busy     atomic.Bool
	rendered []node.Node
	children []node.Node
}

// Option configures an Environment.
type Option func(*Environment)

func WithLoader(l Loader) Option { return func(e *Environment) { e.loader = l } }

func WithKinds(k *node.Kinds) Option { return func(e *Environment) { e.kinds = k } }

// WithVars sets the data templates are executed against.
func WithVars(vars map[string]any) Option {
	return func(e *Environment) { e.vars = maps.Clone(vars) }
}

// WithBaseContext sets the context whose values (strict mode, registry, log
// fields) the synchronous entry points carry over. Cancellation is not inherited.
func WithBaseContext(ctx context.Context) Option {
	return func(e *Environment) { e.base = ctx }
}

// New binds an environment to owner. Owner may be nil for detached rendering,
// in which case constructed nodes stay unparented.
func New(owner node.Node, opts ...Option) *Environment {
	e := &Environment{owner: owner, base: context.Background()}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = MapLoader{}
	}
	if e.kinds == nil {
		e.kinds = node.NewKinds()
	}
	return e
}

func (e *Environment) Owner() node.Node { return e.owner }

// RenderedNodes lists every node instantiated during the last call.
func (e *Environment) RenderedNodes() []node.Node { return append([]node.Node(nil), e.rendered...) }

// RenderedChildren lists the nodes of the last call whose parent is the owner.
func (e *Environment) RenderedChildren() []node.Node { return append([]node.Node(nil), e.children...) }

// RenderStringContext expands tpl and returns its markdown together with the
// resources of every node embedded along the way.
func (e *Environment) RenderStringContext(ctx context.Context, tpl string) (node.ContentResult, error) {
	return e.render(ctx, "inline", tpl)
}

// RenderTemplateContext loads name through the loader chain and expands it.
func (e *Environment) RenderTemplateContext(ctx context.Context, name string) (node.ContentResult, error) {
	src, err := e.loader.Load(ctx, name)
	if err != nil {
		return node.ContentResult{}, err
	}
	return e.render(ctx, name, src)
}

// RenderString is the synchronous form of RenderStringContext. It runs the
// render on its own goroutine with a fresh context derived from the base
// context, so it is safe to call from code that is itself inside a render.
func (e *Environment) RenderString(tpl string) (node.ContentResult, error) {
	return e.bridge(func(ctx context.Context) (node.ContentResult, error) {
		return e.RenderStringContext(ctx, tpl)
	})
}

// RenderTemplate is the synchronous form of RenderTemplateContext.
func (e *Environment) RenderTemplate(name string) (node.ContentResult, error) {
	return e.bridge(func(ctx context.Context) (node.ContentResult, error) {
		return e.RenderTemplateContext(ctx, name)
	})
}

type bridgeResult struct {
	cr  node.ContentResult
	err error
}

func (e *Environment) bridge(fn func(context.Context) (node.ContentResult, error)) (node.ContentResult, error) {
	ctx := context.WithoutCancel(e.base)
	done := make(chan bridgeResult, 1)
	go func() {
		cr, err := fn(ctx)
		done <- bridgeResult{cr: cr, err: err}
	}()
	r := <-done
	return r.cr, r.err
}

func (e *Environment) render(ctx context.Context, name, src string) (node.ContentResult, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return node.ContentResult{}, ErrEnvironmentBusy
	}
	defer e.busy.Store(false)

	e.reset()
	call := &renderCall{env: e, ctx: ctx, name: name, res: resources.New()}

	var buf bytes.Buffer
	err := call.execute(&buf, name, src)
	if err == nil {
		err = call.fatal
	}
	if err != nil {
		e.release()
		return node.ContentResult{}, err
	}

	for _, n := range e.rendered {
		if e.owner != nil && n.Parent() == e.owner {
			e.children = append(e.children, n)
		}
	}
	return node.NewContentResult(buf.String(), call.res), nil
}

// release detaches every node a failed call parented to the owner.
func (e *Environment) release() {
	for _, n := range e.rendered {
		if e.owner != nil && n.Parent() == e.owner {
			node.Detach(n)
		}
	}
}

// reset drops the accumulators and releases the children adopted last time.
func (e *Environment) reset() {
	for _, n := range e.children {
		if n.Parent() == e.owner {
			node.Detach(n)
		}
	}
	e.rendered = nil
	e.children = nil
}

func (c *renderCall) execute(buf *bytes.Buffer, name, src string) error {
	tpl, err := template.New(name).Funcs(c.funcs()).Parse(src)
	if err != nil {
		return derrors.TemplateExpansionError("cannot parse template").
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	data := maps.Clone(c.env.vars)
	if data == nil {
		data = map[string]any{}
	}
	if err := tpl.Execute(buf, data); err != nil {
		if c.fatal != nil {
			return c.fatal
		}
		return derrors.TemplateExpansionError("cannot execute template").
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	return nil
}
