package node

import (
	"context"
)

// DefaultSeparator joins rendered children of a Container.
const DefaultSeparator = "\n\n"

// Container is the generic composite: an ordered child list rendered in list
// order and joined with a separator.
type Container struct {
	Base
	sep *string
}

// NewContainer returns a standalone container node.
func NewContainer(opts ...Option) *Container {
	c := &Container{}
	c.Init(c, "container", opts...)
	return c
}

// Separator returns the join string, DefaultSeparator unless overridden.
func (c *Container) Separator() string {
	if c.sep == nil {
		return DefaultSeparator
	}
	return *c.sep
}

func (c *Container) SetSeparator(sep string) { c.sep = &sep }

// Append reparents each child to this container, in order.
func (c *Container) Append(children ...Node) error {
	for _, child := range children {
		if err := attach(child, c.self, -1); err != nil {
			return err
		}
	}
	return nil
}

// Insert reparents child to position i (clamped to the list end).
func (c *Container) Insert(i int, child Node) error {
	if child != nil && child.Parent() == c.self {
		Detach(child)
	}
	return attach(child, c.self, i)
}

// Remove detaches child if this container owns it.
func (c *Container) Remove(child Node) bool {
	if child == nil || child.Parent() != c.self {
		return false
	}
	Detach(child)
	return true
}

func (c *Container) Len() int { return len(c.children) }

// Content embeds every child in order and merges their resources with the
// container's own.
func (c *Container) Content(ctx context.Context) (ContentResult, error) {
	return JoinChildren(ctx, c.Children(), c.Separator(), c.own)
}
