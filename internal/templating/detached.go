package templating

import "context"

// maxRefDepth bounds ref chains, including a node that refs itself.
const maxRefDepth = 16

type detachedKey struct{}

// WithDetached marks ctx as embedding a node outside its own page. Nodes
// rendered under it must not touch their own environment or adopt children,
// since the owning page may be rendering them on another worker.
func WithDetached(ctx context.Context) context.Context {
	return context.WithValue(ctx, detachedKey{}, detachedDepth(ctx)+1)
}

// Detached reports whether ctx comes from WithDetached.
func Detached(ctx context.Context) bool { return detachedDepth(ctx) > 0 }

func detachedDepth(ctx context.Context) int {
	d, _ := ctx.Value(detachedKey{}).(int)
	return d
}
