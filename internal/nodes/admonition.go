package nodes

import (
	"context"
	"strconv"

	"git.home.luguber.info/inful/docnodes/internal/node"
)

const (
	extAdmonition = "admonition"
	extDetails    = "pymdownx.details"
)

// Admonition renders its children inside a callout block.
type Admonition struct {
	node.Container
	typ         string
	title       string
	collapsible bool
	open        bool
}

func NewAdmonition(typ, title string, opts ...node.Option) *Admonition {
	a := &Admonition{typ: typ, title: title}
	a.Init(a, "admonition", opts...)
	return a
}

// Collapsible renders the block as a details element, expanded when open.
func (a *Admonition) Collapsible(open bool) *Admonition {
	a.collapsible = true
	a.open = open
	return a
}

func (a *Admonition) Type() string  { return a.typ }
func (a *Admonition) Title() string { return a.title }

func (a *Admonition) Content(ctx context.Context) (node.ContentResult, error) {
	body, err := node.JoinChildren(ctx, a.Children(), a.Separator(), a.OwnResources())
	if err != nil {
		return node.ContentResult{}, err
	}

	marker := "!!!"
	res := body.Resources().AddExtension(extAdmonition, nil)
	if a.collapsible {
		marker = "???"
		if a.open {
			marker = "???+"
		}
		res.AddExtension(extDetails, nil)
	}

	line := marker + " " + a.typ
	if a.title != "" {
		line += " " + strconv.Quote(a.title)
	}
	md := line
	if body.Markdown() != "" {
		md += "\n\n" + node.Indent(body.Markdown(), "    ")
	}
	return node.NewContentResult(md, res), nil
}
