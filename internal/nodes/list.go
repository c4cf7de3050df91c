package nodes

import (
	"context"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/node"
)

// List renders its children as bullet or numbered items.
type List struct {
	node.Container
	ordered      bool
	shortenAfter int
}

// NewList wraps each item; strings become Text children.
func NewList(items []any, opts ...node.Option) (*List, error) {
	l := &List{}
	l.Init(l, "list", opts...)
	for _, item := range items {
		if err := l.AddItem(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// AddItem appends a node, or a Text node for any other value.
func (l *List) AddItem(item any) error {
	if n, ok := item.(node.Node); ok {
		return l.Append(n)
	}
	return l.Append(NewText(toText(item)))
}

func (l *List) SetOrdered(ordered bool) *List {
	l.ordered = ordered
	return l
}

// ShortenAfter keeps the first n items and replaces the rest with one literal
// "..." item. The item carries the list's own marker ("* ..." or "3. ..."),
// since a bare "..." line would continue the previous item instead of
// starting a new one. Zero disables shortening.
func (l *List) ShortenAfter(n int) *List {
	l.shortenAfter = n
	return l
}

func (l *List) Content(ctx context.Context) (node.ContentResult, error) {
	children := l.Children()
	truncated := false
	if l.shortenAfter > 0 && len(children) > l.shortenAfter {
		children = children[:l.shortenAfter]
		truncated = true
	}

	res := l.OwnResources()
	lines := make([]string, 0, len(children)+1)
	for i, child := range children {
		cr, err := node.Embed(ctx, child)
		if err != nil {
			return node.ContentResult{}, err
		}
		node.MergeResources(ctx, res, cr.Resources())
		lines = append(lines, listItem(l.marker(i), cr.Markdown()))
	}
	if truncated {
		lines = append(lines, l.marker(len(children))+" ...")
	}
	return node.NewContentResult(strings.Join(lines, "\n"), res), nil
}

func (l *List) marker(i int) string {
	if l.ordered {
		return strconv.Itoa(i+1) + "."
	}
	return "*"
}

// listItem puts the first line after the marker and indents the rest to the
// item's content column.
func listItem(marker, body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	out := marker + " " + lines[0]
	if len(lines) > 1 {
		out += "\n" + node.Indent(strings.Join(lines[1:], "\n"), "    ")
	}
	return out
}
