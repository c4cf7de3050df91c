package nav

import (
	"context"
	"maps"
	"path"
	"slices"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// Page is an ordered list of content nodes that maps to one output file.
type Page struct {
	node.Container
	title    string
	filename string
	metadata map[string]any
}

func NewPage(title string, opts ...node.Option) *Page {
	p := &Page{title: title}
	p.Init(p, "page", opts...)
	return p
}

func (p *Page) Title() string { return p.title }

func (p *Page) SetTitle(title string) *Page {
	p.title = title
	return p
}

// SetFilename overrides the slug-derived file name. ".md" is appended when missing.
func (p *Page) SetFilename(name string) *Page {
	if name != "" && path.Ext(name) == "" {
		name += ".md"
	}
	p.filename = name
	return p
}

func (p *Page) Filename() string {
	if p.filename != "" {
		return p.filename
	}
	return Slug(p.title) + ".md"
}

// SetMeta sets a sidecar metadata field.
func (p *Page) SetMeta(key string, value any) *Page {
	if p.metadata == nil {
		p.metadata = make(map[string]any)
	}
	p.metadata[key] = value
	return p
}

func (p *Page) Metadata() map[string]any { return maps.Clone(p.metadata) }

// ResolvedPath joins the sections of every ancestor Nav, root first, with the
// file name. It is recomputed on every call since pages can be reparented.
func (p *Page) ResolvedPath() (string, error) {
	sections, ok := navSections(p)
	if !ok {
		return "", derrors.PathResolutionError("page is not attached to a navigation tree").
			WithContext("title", p.title).
			WithContext("filename", p.Filename()).
			Build()
	}
	return path.Join(append(sections, p.Filename())...), nil
}

// VirtualFiles renders the page and maps its resolved path to the markdown.
func (p *Page) VirtualFiles(ctx context.Context) (map[string]string, error) {
	target, err := p.ResolvedPath()
	if err != nil {
		return nil, err
	}
	md, err := node.ToMarkdown(ctx, p)
	if err != nil {
		return nil, err
	}
	return map[string]string{target: md}, nil
}

// navSections collects the non-empty sections of the Nav ancestors of n in
// root-to-leaf order. ok is false when n has no Nav ancestor.
func navSections(n node.Node) ([]string, bool) {
	var sections []string
	found := false
	for a := range node.OfType[*Nav](node.Ancestors(n)) {
		found = true
		if a.section != "" {
			sections = append(sections, a.section)
		}
	}
	slices.Reverse(sections)
	return sections, found
}
