package node

import (
	"errors"
	"iter"
	"slices"
)

// ErrCycle is returned when a reparent would make a node its own ancestor.
var ErrCycle = errors.New("node: reparent would create a cycle")

// SetParent moves child under parent. The child leaves its old parent's list
// and joins the end of the new one exactly once. A nil parent detaches it.
func SetParent(child, parent Node) error {
	return attach(child, parent, -1)
}

// Detach removes n from its parent.
func Detach(n Node) {
	_ = attach(n, nil, -1)
}

func attach(child, parent Node, at int) error {
	if child == nil {
		return nil
	}
	if parent != nil && (parent == child || IsAncestor(child, parent)) {
		return ErrCycle
	}
	cb := child.base()
	if old := cb.parent; old != nil {
		ob := old.base()
		if i := slices.Index(ob.children, child); i >= 0 {
			ob.children = slices.Delete(ob.children, i, i+1)
		}
	}
	cb.parent = parent
	if parent == nil {
		return nil
	}
	pb := parent.base()
	if at < 0 || at >= len(pb.children) {
		pb.children = append(pb.children, child)
	} else {
		pb.children = slices.Insert(pb.children, at, child)
	}
	return nil
}

// IsAncestor reports whether a is a strict ancestor of n.
func IsAncestor(a, n Node) bool {
	for p := range Ancestors(n) {
		if p == a {
			return true
		}
	}
	return false
}

// Ancestors yields the parent chain from n's parent up to the root.
func Ancestors(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n == nil {
			return
		}
		for p := n.Parent(); p != nil; p = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}
}

// Descendants yields every node below n in pre-order, n excluded.
func Descendants(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n == nil {
			return
		}
		walkChildren(n, yield)
	}
}

func walkChildren(n Node, yield func(Node) bool) bool {
	for _, c := range n.base().children {
		if !yield(c) || !walkChildren(c, yield) {
			return false
		}
	}
	return true
}

// Walk visits n and its subtree in pre-order. Returning false from fn skips
// the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Siblings returns the other children of n's parent in list order.
func Siblings(n Node) []Node {
	if n == nil || n.Parent() == nil {
		return nil
	}
	var out []Node
	for _, c := range n.Parent().base().children {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

// Depth is the number of ancestors; a root has depth 0.
func Depth(n Node) int {
	d := 0
	for range Ancestors(n) {
		d++
	}
	return d
}

// Root returns the topmost ancestor, or n itself.
func Root(n Node) Node {
	root := n
	for p := range Ancestors(n) {
		root = p
	}
	return root
}

// OfType filters a node sequence down to one variant type.
func OfType[T Node](seq iter.Seq[Node]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range seq {
			if t, ok := n.(T); ok && !yield(t) {
				return
			}
		}
	}
}

// NearestAncestor returns the closest ancestor of type T.
func NearestAncestor[T Node](n Node) (T, bool) {
	for p := range OfType[T](Ancestors(n)) {
		return p, true
	}
	var zero T
	return zero, false
}
