package node

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(list []Node, n Node) int {
	c := 0
	for _, item := range list {
		if item == n {
			c++
		}
	}
	return c
}

func TestSetParentKeepsChildListsConsistent(t *testing.T) {
	a := NewContainer()
	b := NewContainer()
	child := newStub("x")

	require.NoError(t, a.Append(child))
	require.NoError(t, a.Append(child))
	assert.Equal(t, 1, count(a.Children(), child))
	assert.Equal(t, Node(a), child.Parent())

	require.NoError(t, SetParent(child, b))
	assert.Equal(t, 0, count(a.Children(), child))
	assert.Equal(t, 1, count(b.Children(), child))
	assert.Equal(t, Node(b), child.Parent())

	Detach(child)
	assert.Nil(t, child.Parent())
	assert.Zero(t, b.Len())
}

func TestEveryParentedNodeAppearsOnce(t *testing.T) {
	root := NewContainer()
	mid := NewContainer(WithParent(root))
	leaves := []*stub{newStub("1", WithParent(mid)), newStub("2", WithParent(root)), newStub("3", WithParent(mid))}
	require.NoError(t, SetParent(leaves[1], mid))
	require.NoError(t, root.Insert(0, leaves[2]))

	Walk(root, func(n Node) bool {
		if p := n.Parent(); p != nil {
			assert.Equal(t, 1, count(p.Children(), n))
		}
		return true
	})
	assert.Equal(t, []Node{leaves[2], mid}, root.Children())
}

func TestSetParentRejectsCycles(t *testing.T) {
	root := NewContainer()
	mid := NewContainer(WithParent(root))

	assert.ErrorIs(t, SetParent(root, mid), ErrCycle)
	assert.ErrorIs(t, SetParent(mid, mid), ErrCycle)
	assert.Equal(t, Node(root), mid.Parent())
}

func TestStructuralQueries(t *testing.T) {
	root := NewContainer()
	a := NewContainer(WithParent(root))
	a1 := newStub("a1", WithParent(a))
	a2 := newStub("a2", WithParent(a))
	b := newStub("b", WithParent(root))

	assert.Equal(t, []Node{a, a1, a2, b}, slices.Collect(Descendants(root)))
	assert.Equal(t, []Node{a, root}, slices.Collect(Ancestors(a2)))
	assert.Equal(t, []Node{a1}, Siblings(a2))
	assert.Equal(t, 2, Depth(a1))
	assert.Equal(t, 0, Depth(root))
	assert.Equal(t, Node(root), Root(a2))
	assert.True(t, IsAncestor(root, a1))
	assert.False(t, IsAncestor(a1, root))

	stubs := slices.Collect(OfType[*stub](Descendants(root)))
	assert.Len(t, stubs, 3)

	near, ok := NearestAncestor[*Container](a1)
	require.True(t, ok)
	assert.Same(t, a, near)

	var visited []Node
	Walk(root, func(n Node) bool {
		visited = append(visited, n)
		return n != a
	})
	assert.Equal(t, []Node{root, a, b}, visited)
}

func TestContainerRemove(t *testing.T) {
	c := NewContainer()
	other := NewContainer()
	s := newStub("x", WithParent(c))

	assert.False(t, other.Remove(s))
	assert.True(t, c.Remove(s))
	assert.Zero(t, c.Len())
}
