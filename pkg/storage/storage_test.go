package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contestkit/pkg/storage"
)

func newFileStorage(t *testing.T) *storage.FileStorage {
	t.Helper()
	s, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStorage_Contract(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage { return storage.NewMemoryStorage() },
		"file":   func(t *testing.T) storage.Storage { return newFileStorage(t) },
	}

	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)

			t.Run("read missing namespace", func(t *testing.T) {
				v, ok, err := s.Read(ctx, "missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, v)
			})

			t.Run("write then read", func(t *testing.T) {
				require.NoError(t, s.Write(ctx, "auth-storage", `{"token":"a"}`))
				v, ok, err := s.Read(ctx, "auth-storage")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `{"token":"a"}`, v)
			})

			t.Run("overwrite", func(t *testing.T) {
				require.NoError(t, s.Write(ctx, "auth-storage", "b"))
				v, _, err := s.Read(ctx, "auth-storage")
				require.NoError(t, err)
				assert.Equal(t, "b", v)
			})

			t.Run("remove", func(t *testing.T) {
				require.NoError(t, s.Remove(ctx, "auth-storage"))
				_, ok, err := s.Read(ctx, "auth-storage")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("remove missing is not an error", func(t *testing.T) {
				assert.NoError(t, s.Remove(ctx, "never-written"))
			})

			t.Run("empty namespace", func(t *testing.T) {
				_, _, err := s.Read(ctx, "")
				assert.ErrorIs(t, err, storage.ErrEmptyNamespace)
				assert.ErrorIs(t, s.Write(ctx, "", "x"), storage.ErrEmptyNamespace)
				assert.ErrorIs(t, s.Remove(ctx, ""), storage.ErrEmptyNamespace)
			})
		})
	}
}

func TestFileStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("namespace with separators stays inside directory", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(dir)
		require.NoError(t, err)

		require.NoError(t, s.Write(ctx, "../escape/ns", "v"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.NotContains(t, entries[0].Name(), "/")

		v, ok, err := s.Read(ctx, "../escape/ns")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("values survive a new instance", func(t *testing.T) {
		dir := t.TempDir()
		s1, err := storage.NewFileStorage(dir)
		require.NoError(t, err)
		require.NoError(t, s1.Write(ctx, "auth-storage", "persisted"))

		s2, err := storage.NewFileStorage(dir)
		require.NoError(t, err)
		v, ok, err := s2.Read(ctx, "auth-storage")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "persisted", v)
	})

	t.Run("files are private", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(dir)
		require.NoError(t, err)
		require.NoError(t, s.Write(ctx, "auth-storage", "secret"))

		info, err := os.Stat(filepath.Join(dir, "auth-storage.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("empty directory is unavailable", func(t *testing.T) {
		_, err := storage.NewFileStorage("")
		assert.ErrorIs(t, err, storage.ErrUnavailable)
	})

	t.Run("concurrent writers leave a complete value", func(t *testing.T) {
		s := newFileStorage(t)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Write(ctx, "ns", string(rune('a'+i)))
			}(i)
		}
		wg.Wait()

		v, ok, err := s.Read(ctx, "ns")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, v, 1)
	})
}

func TestUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := storage.Unavailable{}

	_, ok, err := s.Read(ctx, "ns")
	assert.False(t, ok)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, s.Write(ctx, "ns", "v"), storage.ErrUnavailable)
	assert.ErrorIs(t, s.Remove(ctx, "ns"), storage.ErrUnavailable)
}

func TestProbeAndFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("healthy storage is kept", func(t *testing.T) {
		s := storage.NewMemoryStorage()
		assert.NoError(t, storage.Probe(ctx, s))
		assert.Same(t, s, storage.Fallback(ctx, s, nil))
		assert.Equal(t, 0, s.Len(), "probe must clean up after itself")
	})

	t.Run("unavailable storage falls back to memory", func(t *testing.T) {
		assert.ErrorIs(t, storage.Probe(ctx, storage.Unavailable{}), storage.ErrUnavailable)

		s := storage.Fallback(ctx, storage.Unavailable{}, nil)
		_, isMemory := s.(*storage.MemoryStorage)
		assert.True(t, isMemory)
	})

	t.Run("nil storage falls back to memory", func(t *testing.T) {
		s := storage.Fallback(ctx, nil, nil)
		require.NotNil(t, s)
		require.NoError(t, s.Write(ctx, "ns", "v"))
	})
}
