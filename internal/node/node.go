// Package node defines the tree every documentation build renders: the Node
// contract, the Base every variant embeds, the generic Container composite, the
// fixed processor chain and the build-scoped registries.
//
// Ownership runs downward only. A node owns its ordered children; the parent
// link is a plain back-pointer that never appears in an owned list, so
// reparenting cannot build an ownership cycle.
package node

import (
	"context"
	"slices"

	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// Node is the capability set shared by every variant.
//
// Content returns the raw rendering of the node itself. Callers that embed a
// node use Process or Embed, which add the processor chain on top.
type Node interface {
	Kind() string
	Header() string
	Name() string
	Parent() Node
	Children() []Node
	Content(ctx context.Context) (ContentResult, error)

	base() *Base
}

// StaticFile is a file attachment copied verbatim into the output tree.
// Either Source (a path on disk) or Data is set.
type StaticFile struct {
	Target string `json:"target" yaml:"target"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Data   []byte `json:"-" yaml:"-"`
}

// Base carries the state common to all nodes. Variants embed it and call Init
// from their constructor.
type Base struct {
	self     Node
	kind     string
	header   string
	name     string
	parent   Node
	children []Node

	indent      string
	shift       int
	classes     []string
	annotations *Annotations
	own         *resources.Resources
	static      []StaticFile

	pendingParent Node
}

func (b *Base) base() *Base { return b }

// Option configures a Base during Init.
type Option func(*Base)

func WithHeader(h string) Option { return func(b *Base) { b.header = h } }

// WithName sets the build-unique name used by the registry and the ref helper.
func WithName(n string) Option { return func(b *Base) { b.name = n } }

// WithIndent sets the prefix the chain adds to every non-blank line.
func WithIndent(prefix string) Option { return func(b *Base) { b.indent = prefix } }

func WithShift(delta int) Option { return func(b *Base) { b.shift = delta } }

func WithCSSClass(classes ...string) Option {
	return func(b *Base) { b.classes = appendClasses(b.classes, classes...) }
}

// WithParent attaches the node to parent once Init has finished.
func WithParent(parent Node) Option { return func(b *Base) { b.pendingParent = parent } }

func WithResources(r *resources.Resources) Option {
	return func(b *Base) { b.AddResources(r) }
}

// Init binds the Base to the variant that embeds it. self must be the outer
// pointer, e.g. t.Init(t, "text", opts...).
func (b *Base) Init(self Node, kind string, opts ...Option) {
	b.self = self
	b.kind = kind
	for _, opt := range opts {
		opt(b)
	}
	if p := b.pendingParent; p != nil {
		b.pendingParent = nil
		// A fresh node has no descendants, so attaching cannot form a cycle.
		_ = SetParent(self, p)
	}
}

func (b *Base) Kind() string     { return b.kind }
func (b *Base) Header() string   { return b.header }
func (b *Base) Name() string     { return b.name }
func (b *Base) Parent() Node     { return b.parent }
func (b *Base) Indent() string   { return b.indent }
func (b *Base) Shift() int       { return b.shift }
func (b *Base) Children() []Node { return slices.Clone(b.children) }

// Self returns the variant that embeds this Base.
func (b *Base) Self() Node { return b.self }

func (b *Base) SetHeader(h string)      { b.header = h }
func (b *Base) SetName(n string)        { b.name = n }
func (b *Base) SetIndent(prefix string) { b.indent = prefix }
func (b *Base) SetShift(delta int)      { b.shift = delta }

func (b *Base) AddCSSClass(classes ...string) {
	b.classes = appendClasses(b.classes, classes...)
}

func (b *Base) CSSClasses() []string { return slices.Clone(b.classes) }

// Annotate sets annotation num to n, replacing any previous entry.
func (b *Base) Annotate(num int, n Node) {
	if b.annotations == nil {
		b.annotations = NewAnnotations()
	}
	b.annotations.Set(num, n)
}

// Annotations returns the collection, or nil if the node has none.
func (b *Base) Annotations() *Annotations { return b.annotations }

// AddResources declares resources the node itself requires.
func (b *Base) AddResources(r *resources.Resources) {
	if r.IsEmpty() {
		return
	}
	if b.own == nil {
		b.own = resources.New()
	}
	b.own.Merge(r)
}

// OwnResources returns a copy of the node's declared resources, never nil.
func (b *Base) OwnResources() *resources.Resources {
	return b.own.Clone()
}

// AttachStatic registers a file to copy next to the rendered output.
func (b *Base) AttachStatic(files ...StaticFile) {
	b.static = append(b.static, files...)
}

func (b *Base) StaticFiles() []StaticFile { return slices.Clone(b.static) }

func appendClasses(dst []string, classes ...string) []string {
	for _, c := range classes {
		if c != "" && !slices.Contains(dst, c) {
			dst = append(dst, c)
		}
	}
	return dst
}

// BaseOf exposes the Base behind any node.
func BaseOf(n Node) *Base {
	if n == nil {
		return nil
	}
	return n.base()
}
