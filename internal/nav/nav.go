// Package nav models the navigation tree: Navs group pages and sub-navs under
// a section, Pages map to output files. Output paths are derived from the
// tree on demand, never stored.
package nav

import (
	"context"
	"maps"
	"path"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// SummaryFile is the literate-nav file a Nav renders to.
const SummaryFile = "SUMMARY.md"

// Nav is a navigational grouping. Its children are the optional index page
// followed by entries in the order they were added or assigned.
type Nav struct {
	node.Container
	section  string
	title    string
	index    *Page
	metadata map[string]any
	summary  bool
}

// New returns a nav for section; the root nav normally uses "".
func New(section string, opts ...node.Option) *Nav {
	n := &Nav{section: strings.Trim(section, "/")}
	n.Init(n, "nav", opts...)
	return n
}

func (n *Nav) Section() string { return n.section }

// Title falls back to the title-cased section.
func (n *Nav) Title() string {
	if n.title != "" {
		return n.title
	}
	return titleFromSection(n.section)
}

func (n *Nav) SetTitle(title string) *Nav {
	n.title = title
	return n
}

// EnableSummary makes the builder emit this nav's SUMMARY.md.
func (n *Nav) EnableSummary(on bool) *Nav {
	n.summary = on
	return n
}

func (n *Nav) SummaryEnabled() bool { return n.summary }

// SetMeta sets metadata inherited by every page and nav below this one.
func (n *Nav) SetMeta(key string, value any) *Nav {
	if n.metadata == nil {
		n.metadata = make(map[string]any)
	}
	n.metadata[key] = value
	return n
}

func (n *Nav) Metadata() map[string]any { return maps.Clone(n.metadata) }

// key identifies an entry inside its nav: the file name of a page or the
// section of a sub-nav.
func key(item node.Node) (string, error) {
	switch v := item.(type) {
	case *Page:
		return v.Filename(), nil
	case *Nav:
		return v.section + "/", nil
	default:
		return "", derrors.ValidationError("navigation entries must be pages or navs").
			WithContext("kind", item.Kind()).
			Build()
	}
}

// Add appends a page or sub-nav. Entry keys must be unique within the nav.
func (n *Nav) Add(items ...node.Node) error {
	for _, item := range items {
		k, err := key(item)
		if err != nil {
			return err
		}
		if existing := n.entry(k); existing != nil && existing != item {
			return derrors.ValidationError("duplicate navigation entry").
				WithContext("entry", k).
				WithContext("section", n.section).
				Build()
		}
		if err := n.Append(item); err != nil {
			return err
		}
	}
	return nil
}

// Assign places item under the sub-nav path, creating missing sub-navs.
func (n *Nav) Assign(sections []string, item node.Node) error {
	target := n
	for _, s := range sections {
		target = target.SubNav(s)
	}
	return target.Add(item)
}

// SubNav returns the direct sub-nav for section, creating it if needed.
func (n *Nav) SubNav(section string) *Nav {
	section = strings.Trim(section, "/")
	if existing, ok := n.entry(section + "/").(*Nav); ok {
		return existing
	}
	sub := New(section)
	// A fresh nav cannot be an ancestor of n.
	_ = n.Append(sub)
	return sub
}

// SetIndex makes page the nav's index, listed before every entry.
func (n *Nav) SetIndex(page *Page) error {
	if n.index != nil && n.index != page && n.index.Parent() == n {
		node.Detach(n.index)
	}
	if page.filename == "" {
		page.SetFilename("index.md")
	}
	if err := n.Insert(0, page); err != nil {
		return err
	}
	n.index = page
	return nil
}

// Index returns the index page while it is still attached here.
func (n *Nav) Index() *Page {
	if n.index != nil && n.index.Parent() != n {
		n.index = nil
	}
	return n.index
}

// Children lists the index page first, then entries in insertion order.
func (n *Nav) Children() []node.Node {
	children := n.Container.Children()
	idx := n.Index()
	if idx == nil || (len(children) > 0 && children[0] == idx) {
		return children
	}
	out := make([]node.Node, 0, len(children))
	out = append(out, idx)
	for _, c := range children {
		if c != idx {
			out = append(out, c)
		}
	}
	return out
}

// Entry is one listing line of a nav.
type Entry struct {
	Key  string
	Node node.Node
}

// Entries returns the nav's pages and sub-navs without the index page.
func (n *Nav) Entries() []Entry {
	var out []Entry
	idx := n.Index()
	for _, c := range n.Children() {
		if c == node.Node(idx) {
			continue
		}
		if k, err := key(c); err == nil {
			out = append(out, Entry{Key: k, Node: c})
		}
	}
	return out
}

// Pages returns direct pages, index first.
func (n *Nav) Pages() []*Page {
	var out []*Page
	for _, c := range n.Children() {
		if p, ok := c.(*Page); ok {
			out = append(out, p)
		}
	}
	return out
}

// Navs returns direct sub-navs.
func (n *Nav) Navs() []*Nav {
	var out []*Nav
	for _, c := range n.Children() {
		if sub, ok := c.(*Nav); ok {
			out = append(out, sub)
		}
	}
	return out
}

func (n *Nav) entry(k string) node.Node {
	for _, c := range n.Container.Children() {
		if ck, err := key(c); err == nil && ck == k {
			return c
		}
	}
	return nil
}

// Dir returns the nav's output directory.
func (n *Nav) Dir() string {
	sections, _ := navSections(n)
	if n.section != "" {
		sections = append(sections, n.section)
	}
	return path.Join(sections...)
}

// ResolvedPath is the nav's SUMMARY.md location.
func (n *Nav) ResolvedPath() (string, error) {
	return path.Join(n.Dir(), SummaryFile), nil
}

// Content renders the literate-nav listing of this nav and everything below.
func (n *Nav) Content(context.Context) (node.ContentResult, error) {
	var lines []string
	n.listing(&lines, "", "", true)
	return node.NewContentResult(strings.Join(lines, "\n"), n.OwnResources()), nil
}

// listing appends one line per entry. A sub-nav line links its index page
// when it has one, and its own entries follow one level deeper.
func (n *Nav) listing(lines *[]string, prefix, rel string, withIndex bool) {
	idx := n.Index()
	for _, c := range n.Children() {
		switch v := c.(type) {
		case *Page:
			if v == idx && !withIndex {
				continue
			}
			*lines = append(*lines, prefix+"* ["+v.Title()+"]("+path.Join(rel, v.Filename())+")")
		case *Nav:
			sub := path.Join(rel, v.section)
			if subIdx := v.Index(); subIdx != nil {
				*lines = append(*lines, prefix+"* ["+v.Title()+"]("+path.Join(sub, subIdx.Filename())+")")
			} else {
				*lines = append(*lines, prefix+"* "+v.Title())
			}
			v.listing(lines, prefix+"    ", sub, false)
		}
	}
}
