package templating

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// maxPartialDepth bounds recursive partial expansion.
const maxPartialDepth = 16

// renderCall is the state of one render: resources collected from embedded
// instances and the first fatal error raised while embedding.
type renderCall struct {
	env   *Environment
	ctx   context.Context
	name  string
	res   *resources.Resources
	fatal error
	depth int
}

// Instance is what a kind function returns inside a template. Printing it
// embeds the node; passing it to another kind function hands over the node.
type Instance struct {
	call *renderCall
	node node.Node
	done bool
	out  string
}

// Node returns the constructed node.
func (i *Instance) Node() node.Node { return i.node }

// String embeds the node once and caches the markdown; its resources join
// the render call's resources on first use.
func (i *Instance) String() string {
	if i.done {
		return i.out
	}
	i.done = true
	i.out = i.call.embed(i.call.ctx, i.node)
	return i.out
}

// embed renders n under ctx and merges its resources into the call.
func (c *renderCall) embed(ctx context.Context, n node.Node) string {
	cr, err := node.Embed(ctx, n)
	if err != nil {
		if c.fatal == nil {
			c.fatal = err
		}
		return inlineError(c.ctx, err.Error())
	}
	node.MergeResources(c.ctx, c.res, cr.Resources())
	return cr.Markdown()
}

func inlineError(ctx context.Context, msg string) string {
	cr, _ := node.NewErrorNode(msg, true).Content(ctx)
	return cr.Markdown()
}

func (c *renderCall) funcs() template.FuncMap {
	titler := cases.Title(language.Und)
	funcs := template.FuncMap{
		"dict":    dict,
		"items":   func(values ...any) []any { return values },
		"title":   func(v any) string { return titler.String(text(v)) },
		"upper":   func(v any) string { return strings.ToUpper(text(v)) },
		"lower":   func(v any) string { return strings.ToLower(text(v)) },
		"indent":  func(width int, v any) string { return node.Indent(text(v), strings.Repeat(" ", width)) },
		"default": defaultValue,
		"partial": c.partial,
		"ref":     c.ref,
	}
	for _, kind := range c.env.kinds.Names() {
		funcs[kind] = c.kindFunc(kind)
	}
	return funcs
}

func (c *renderCall) kindFunc(kind string) func(...any) *Instance {
	return func(values ...any) *Instance {
		unwrapped := unwrapAll(values)
		args := node.NewArgs(unwrapped...)
		n, err := c.env.kinds.Build(kind, args)
		// Node arguments belong to the new node or to nobody. A constructor
		// that failed or ignored them leaves them on the owner.
		c.release(unwrapped)
		if err == nil && c.env.owner != nil {
			err = node.SetParent(n, c.env.owner)
		}
		if err != nil {
			return c.failed(kind, args, err)
		}
		c.env.rendered = append(c.env.rendered, n)
		return &Instance{call: c, node: n}
	}
}

// release detaches node arguments still parented to the owner.
func (c *renderCall) release(values []any) {
	for _, v := range values {
		switch t := v.(type) {
		case node.Node:
			if c.env.owner != nil && t.Parent() == c.env.owner {
				node.Detach(t)
			}
		case []any:
			c.release(t)
		case map[string]any:
			for _, item := range t {
				c.release([]any{item})
			}
		}
	}
}

// failed logs a construction failure and stands in an inline error node.
func (c *renderCall) failed(kind string, args node.Args, err error) *Instance {
	expErr := derrors.TemplateExpansionError(fmt.Sprintf("%s construction failed", kind)).
		WithCause(err).
		WithContext("kind", kind).
		WithContext("template", c.name).
		Build()
	observability.ErrorContext(c.ctx, "Template node construction failed",
		logfields.Kind(kind),
		logfields.Template(c.name),
		logfields.Args(describeArgs(args)),
		logfields.Error(err))
	node.RecordFailure(c.ctx, node.Failure{Kind: kind, Err: expErr})

	return &Instance{call: c, node: node.NewErrorNode(fmt.Sprintf("%s: %v", kind, err), true)}
}

// partial renders another loaded template inline, sharing this call's
// accumulators and resources. A missing partial renders as inline error
// text, or fails the render in strict mode.
func (c *renderCall) partial(name string, data ...any) (string, error) {
	if c.depth >= maxPartialDepth {
		return "", fmt.Errorf("partial %q: nesting deeper than %d", name, maxPartialDepth)
	}
	src, err := c.env.loader.Load(c.ctx, name)
	if err != nil {
		if node.Strict(c.ctx) && derrors.HasCategory(err, derrors.CategoryNotFound) {
			fatal := derrors.MissingFileError("partial template not found").
				WithCause(err).
				WithContext("template", name).
				Fatal().
				Build()
			if c.fatal == nil {
				c.fatal = fatal
			}
			return "", fatal
		}
		return inlineError(c.ctx, err.Error()), nil
	}
	tpl, err := template.New(name).Funcs(c.funcs()).Parse(src)
	if err != nil {
		return "", err
	}
	var dot any = c.env.vars
	if len(data) > 0 {
		dot = data[0]
	}
	c.depth++
	defer func() { c.depth-- }()
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, dot); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ref embeds a registered node by name without reparenting it. The node
// usually lives on another page, so it is rendered detached: template texts
// expand through a throwaway environment and leave their own state alone.
func (c *renderCall) ref(name string) string {
	reg := node.RegistryFrom(c.ctx)
	if reg == nil {
		return inlineError(c.ctx, "ref "+name+": no registry in scope")
	}
	n, ok := reg.Lookup(name)
	if !ok {
		return inlineError(c.ctx, "ref "+name+": unknown node")
	}
	if detachedDepth(c.ctx) >= maxRefDepth {
		return inlineError(c.ctx, fmt.Sprintf("ref %s: nesting deeper than %d", name, maxRefDepth))
	}
	return c.embed(WithDetached(c.ctx), n)
}

func unwrapAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = unwrap(v)
	}
	return out
}

func unwrap(v any) any {
	switch t := v.(type) {
	case *Instance:
		return t.node
	case []any:
		return unwrapAll(t)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = unwrap(item)
		}
		return m
	default:
		return v
	}
}

func describeArgs(a node.Args) map[string]any {
	pos := make([]string, len(a.Positional))
	for i, v := range a.Positional {
		if n, ok := v.(node.Node); ok {
			pos[i] = "<" + n.Kind() + " node>"
			continue
		}
		pos[i] = fmt.Sprintf("%v", v)
	}
	return map[string]any{"positional": pos, "named": a.Named}
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func defaultValue(def, v any) any {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		if t == "" {
			return def
		}
	case bool:
		if !t {
			return def
		}
	case int:
		if t == 0 {
			return def
		}
	}
	return v
}
