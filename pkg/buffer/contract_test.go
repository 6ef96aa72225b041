package buffer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend shares.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("Write and Read", func(t *testing.T) {
		name := TreeName("scene")
		require.NoError(t, store.Write(ctx, name, []byte("/opt/hs/hsViewer /data/a.umesh")))

		got, err := store.Read(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "/opt/hs/hsViewer /data/a.umesh", string(got))
	})

	t.Run("Write replaces whole content", func(t *testing.T) {
		name := NodeName("scene")
		require.NoError(t, store.Write(ctx, name, []byte("--camera 0.0 0.0 5.0 0.0 0.0 0.0 0.0 1.0 0.0 -fovy 60.0")))
		require.NoError(t, store.Write(ctx, name, []byte("-xf /tf/a.xf")))

		got, err := store.Read(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "-xf /tf/a.xf", string(got))
	})

	t.Run("Read missing", func(t *testing.T) {
		_, err := store.Read(ctx, "missing"+TreeSuffix)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		name := TreeName("gone")
		require.NoError(t, store.Write(ctx, name, []byte("x")))
		require.NoError(t, store.Delete(ctx, name))

		_, err := store.Read(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, store.Delete(ctx, name), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, TreeName("b"), []byte("b")))
		require.NoError(t, store.Write(ctx, TreeName("a"), []byte("a")))

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, TreeName("a"))
		assert.Contains(t, names, TreeName("b"))
		assert.IsNonDecreasing(t, names)
	})

	t.Run("Invalid name", func(t *testing.T) {
		assert.Error(t, store.Write(ctx, "../escape.cmd", []byte("x")))
		assert.Error(t, store.Write(ctx, "", []byte("x")))
	})
}
