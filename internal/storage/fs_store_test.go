package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFSStorePutAndGet(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	data := []byte("# Hello\n")
	hash, err := store.Put(ctx, &Object{
		Type:     ObjectTypePage,
		Data:     data,
		Metadata: Metadata{Custom: map[string]string{"path": "a.md"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Hash(data), hash)
	assert.FileExists(t, store.objectPath(hash))

	got, err := store.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, ObjectTypePage, got.Type)
	assert.Equal(t, int64(len(data)), got.Size)
	assert.Equal(t, "a.md", got.Metadata.Custom["path"])
}

func TestFSStoreDeduplicates(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	h1, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("same")})
	require.NoError(t, err)
	h2, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("same")})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	got, err := store.Get(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Metadata.RefCount)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFSStoreRejectsWrongDeclaredHash(t *testing.T) {
	store := newStore(t)
	_, err := store.Put(t.Context(), &Object{Hash: Hash([]byte("x")), Data: []byte("y")})
	require.Error(t, err)
}

func TestFSStoreNotFound(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	tests := []string{"nonexistent", "../../etc/passwd", Hash([]byte("never stored"))}
	for _, hash := range tests {
		t.Run(hash, func(t *testing.T) {
			exists, err := store.Exists(ctx, hash)
			require.NoError(t, err)
			assert.False(t, exists)

			_, err = store.Get(ctx, hash)
			assert.True(t, IsNotFound(err))
			assert.True(t, IsNotFound(store.Delete(ctx, hash)))
		})
	}
}

func TestFSStoreListByType(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	page, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("page")})
	require.NoError(t, err)
	_, err = store.Put(ctx, &Object{Type: ObjectTypeSidecar, Data: []byte("title: x\n")})
	require.NoError(t, err)

	pages, err := store.List(ctx, ObjectTypePage)
	require.NoError(t, err)
	assert.Equal(t, []string{page}, pages)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFSStoreBuildRefsAndGC(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	kept, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("kept")})
	require.NoError(t, err)
	orphan, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("orphan")})
	require.NoError(t, err)

	entries := []RefEntry{{Path: "z/b.md", Hash: kept}, {Path: "a.md", Hash: kept}}
	require.NoError(t, store.SetBuildRef(ctx, "build-1", entries))

	got, err := store.BuildRef(ctx, "build-1")
	require.NoError(t, err)
	assert.Equal(t, []RefEntry{{Path: "a.md", Hash: kept}, {Path: "z/b.md", Hash: kept}}, got)

	missing, err := store.BuildRef(ctx, "build-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.Error(t, store.SetBuildRef(ctx, "../escape", entries))

	removed, err := store.GC(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = store.Exists(ctx, kept)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFSStoreCheckout(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	a, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("A")})
	require.NoError(t, err)
	b, err := store.Put(ctx, &Object{Type: ObjectTypePage, Data: []byte("B")})
	require.NoError(t, err)
	require.NoError(t, store.SetBuildRef(ctx, "b1", []RefEntry{{Path: "a.md", Hash: a}, {Path: "guide/deep/b.md", Hash: b}}))

	dir := t.TempDir()
	require.NoError(t, store.Checkout(ctx, "b1", dir))

	data, err := os.ReadFile(filepath.Join(dir, "guide", "deep", "b.md"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))

	require.NoError(t, store.SetBuildRef(ctx, "evil", []RefEntry{{Path: "../outside.md", Hash: a}}))
	require.Error(t, store.Checkout(ctx, "evil", dir))
	require.Error(t, store.Checkout(ctx, "unknown", dir))
}
