package appdata

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/chatbridge/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Output: io.Discard,
	})
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), NewLocalFileProvider(), testLogger())
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir("chatbridge")
	require.NoError(t, err)
	assert.Equal(t, "chatbridge", filepath.Base(dir))
	assert.True(t, filepath.IsAbs(dir))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on an existing directory.
	assert.NoError(t, EnsureDir(dir))
}

func TestManagerExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		m := newTestManager(t)
		path := filepath.Join(t.TempDir(), "backup.json")
		payload := []byte(`{"conversations":[]}`)

		require.NoError(t, m.Export(ctx, path, payload))

		got, err := m.Import(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("export creates parent directories", func(t *testing.T) {
		m := newTestManager(t)
		path := filepath.Join(t.TempDir(), "deep", "nested", "backup.json")

		require.NoError(t, m.Export(ctx, path, []byte("data")))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("import of missing file fails with context", func(t *testing.T) {
		m := newTestManager(t)
		path := filepath.Join(t.TempDir(), "does-not-exist.json")

		_, err := m.Import(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to import data")
	})

	t.Run("export to unwritable path fails with context", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root can write anywhere")
		}
		m := newTestManager(t)
		dir := t.TempDir()
		require.NoError(t, os.Chmod(dir, 0o500))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

		err := m.Export(ctx, filepath.Join(dir, "sub", "backup.json"), []byte("data"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to export data")
	})
}

func TestLocalFileProviderExists(t *testing.T) {
	p := NewLocalFileProvider()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "f.txt")

	ok, err := p.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Write(ctx, path, []byte("x")))

	ok, err = p.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerDir(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, NewLocalFileProvider(), testLogger())
	assert.Equal(t, dir, m.Dir())
}
