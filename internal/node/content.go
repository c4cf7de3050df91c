package node

import (
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// ContentResult is the immutable {markdown, resources} pair a node produces.
// Markdown and resources always come from the same render pass.
type ContentResult struct {
	markdown  string
	resources *resources.Resources
}

// NewContentResult copies res so later changes by the caller do not leak in.
func NewContentResult(markdown string, res *resources.Resources) ContentResult {
	return ContentResult{markdown: markdown, resources: res.Clone()}
}

// Markdown returns a result that carries no resources.
func Markdown(markdown string) ContentResult {
	return ContentResult{markdown: markdown}
}

// owned wraps res without copying; callers must not touch res afterwards.
func owned(markdown string, res *resources.Resources) ContentResult {
	return ContentResult{markdown: markdown, resources: res}
}

func (c ContentResult) Markdown() string { return c.markdown }

// Resources returns a copy of the result's resources, never nil.
func (c ContentResult) Resources() *resources.Resources { return c.resources.Clone() }

// HasResources reports whether any resource is attached.
func (c ContentResult) HasResources() bool { return !c.resources.IsEmpty() }

// Equal compares markdown and resources.
func (c ContentResult) Equal(other ContentResult) bool {
	return c.markdown == other.markdown && c.resources.Equal(other.resources)
}
