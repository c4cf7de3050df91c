package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	a := newStub("a", WithName("alpha"))

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(a), "re-registering the same node is a no-op")
	assert.Error(t, r.Register(newStub("b", WithName("alpha"))))
	assert.Error(t, r.Register(newStub("c")))

	r.Freeze()
	assert.True(t, r.Frozen())
	err := r.Register(newStub("d", WithName("delta")))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryBuild))

	got, ok := r.Lookup("alpha")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []string{"alpha"}, r.Names())

	ctx := WithRegistry(context.Background(), r)
	assert.Same(t, r, RegistryFrom(ctx))
	assert.Nil(t, RegistryFrom(context.Background()))
}

func TestStrictFlag(t *testing.T) {
	assert.False(t, Strict(context.Background()))
	assert.True(t, Strict(WithStrict(context.Background(), true)))
}

func TestNewArgsSplitsTrailingMap(t *testing.T) {
	args := NewArgs("a", 2, map[string]any{"header": "H"})
	assert.Equal(t, []any{"a", 2}, args.Positional)
	assert.Equal(t, "H", args.NamedString("header", ""))

	s, err := args.String(0)
	require.NoError(t, err)
	assert.Equal(t, "a", s)
	n, err := args.Int(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = args.String(5)
	assert.Error(t, err)
	assert.Equal(t, 7, args.NamedInt("missing", 7))
}

func TestArgsConversions(t *testing.T) {
	args := Args{
		Positional: []any{[]any{"x", "y"}, "true", 3.0},
		Named:      map[string]any{"css": "a b", "list": []string{"c"}},
	}
	list, err := args.Strings(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, list)
	b, err := args.Bool(1)
	require.NoError(t, err)
	assert.True(t, b)
	i, err := args.Int(2)
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	assert.Equal(t, []string{"a", "b"}, args.NamedStrings("css"))
	assert.Equal(t, []string{"c"}, args.NamedStrings("list"))
	_, err = args.Node(0)
	assert.Error(t, err)
}

func TestKindsBuild(t *testing.T) {
	k := NewKinds()
	require.NoError(t, k.Register("stub", func(a Args) (Node, error) {
		text, err := a.String(0)
		if err != nil {
			return nil, err
		}
		return newStub(text), nil
	}))
	require.NoError(t, k.Register("explode", func(Args) (Node, error) { panic("no") }))
	require.NoError(t, k.Register("fail", func(Args) (Node, error) { return nil, errors.New("nope") }))
	assert.Error(t, k.Register("stub", nil))
	assert.Equal(t, []string{"explode", "fail", "stub"}, k.Names())

	n, err := k.Build("stub", NewArgs("hi", map[string]any{"header": "H", "css": []any{"x"}, "shift": 1, "indent": 2, "name": "n1"}))
	require.NoError(t, err)
	b := BaseOf(n)
	assert.Equal(t, "H", b.Header())
	assert.Equal(t, []string{"x"}, b.CSSClasses())
	assert.Equal(t, 1, b.Shift())
	assert.Equal(t, "  ", b.Indent())
	assert.Equal(t, "n1", b.Name())

	for _, kind := range []string{"explode", "fail", "unknown"} {
		_, err := k.Build(kind, NewArgs())
		require.Error(t, err, kind)
		assert.True(t, derrors.HasCategory(err, derrors.CategoryTemplate), kind)
	}
}
