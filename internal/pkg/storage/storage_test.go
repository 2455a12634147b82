package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]BlobStorage {
	t.Helper()
	local, err := NewLocalStorage(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	bolt, err := NewBoltStorage(filepath.Join(t.TempDir(), "db", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })
	return map[string]BlobStorage{"local": local, "bolt": bolt}
}

func read(t *testing.T, s BlobStorage, key string) string {
	t.Helper()
	rc, err := s.Download(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestBlobStorage_RoundTripAndReplace(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key, err := s.Upload(ctx, strings.NewReader("v1"), "performance/k3.json", "application/json")
			require.NoError(t, err)
			assert.Equal(t, "performance/k3.json", key)
			assert.Equal(t, "v1", read(t, s, key))

			_, err = s.Upload(ctx, strings.NewReader("v2"), key, "application/json")
			require.NoError(t, err)
			assert.Equal(t, "v2", read(t, s, key))

			ok, err := s.Exists(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, s.Delete(ctx, key))
			require.NoError(t, s.Delete(ctx, key))

			ok, err = s.Exists(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = s.Download(ctx, key)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobStorage_RejectsEmptyKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Upload(context.Background(), strings.NewReader("x"), "/", "")
			assert.Error(t, err)
		})
	}
}

func TestLocalStorage_TraversalStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	key, err := s.Upload(context.Background(), strings.NewReader("x"), "../../escape.json", "")
	require.NoError(t, err)
	assert.Equal(t, "escape.json", key)
	_, err = os.Stat(filepath.Join(base, "escape.json"))
	assert.NoError(t, err)
}

func TestLocalStorage_LeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.Upload(context.Background(), strings.NewReader("data"), "m/model.json", "")
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(base, "m"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.json", entries[0].Name())
}
