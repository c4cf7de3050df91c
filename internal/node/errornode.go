package node

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// ErrorNode is the visible stand-in for a node that failed to render.
type ErrorNode struct {
	Base
	message string
	inline  bool
}

// NewErrorNode builds a block (failure admonition) or inline error marker.
func NewErrorNode(message string, inline bool, opts ...Option) *ErrorNode {
	e := &ErrorNode{message: message, inline: inline}
	e.Init(e, "error", opts...)
	return e
}

func (e *ErrorNode) Message() string { return e.message }

func (e *ErrorNode) Content(context.Context) (ContentResult, error) {
	if e.inline {
		return Markdown("**Error:** " + strings.Join(strings.Fields(e.message), " ")), nil
	}
	body := Indent(strings.TrimRight(e.message, "\n"), "    ")
	res := resources.New().AddExtension("admonition", nil)
	return owned("!!! failure \"Error\"\n\n"+body, res), nil
}
