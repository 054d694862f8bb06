package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvisten/autosave/store"
)

type doc struct {
	Theme string `yaml:"theme"`
	Size  int    `yaml:"size"`
}

func tempStore(t *testing.T) *Store[doc] {
	t.Helper()
	return New[doc](filepath.Join(t.TempDir(), "state.yaml"))
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := tempStore(t)
	_, _, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Exists())
}

func TestStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	saved, err := s.Save(ctx, doc{Theme: "dark", Size: 14}, store.Meta{})
	require.NoError(t, err)
	require.NotEmpty(t, saved.SnapshotID)
	assert.True(t, s.Exists())

	got, meta, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc{Theme: "dark", Size: 14}, got)
	assert.Equal(t, saved.SnapshotID, meta.SnapshotID)
}

func TestStore_SaveCreatesParentDirectories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.yaml")
	s := New[doc](path)

	_, err := s.Save(ctx, doc{Theme: "light"}, store.Meta{})
	require.NoError(t, err)
	assert.True(t, s.Exists())
}

func TestStore_SaveLeavesNoTempFilesBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New[doc](filepath.Join(dir, "state.yaml"))

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, doc{Size: i}, store.Meta{})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the document itself should remain")
	assert.Equal(t, "state.yaml", entries[0].Name())
}

func TestStore_LoadRejectsCorruptDocument(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("\tnot: valid: yaml: {"), 0o644))

	_, _, _, err := s.Load(context.Background())
	require.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	require.NoError(t, s.Clear(), "clearing a missing document is not an error")

	_, err := s.Save(ctx, doc{Theme: "dark"}, store.Meta{})
	require.NoError(t, err)
	require.NoError(t, s.Clear())
	assert.False(t, s.Exists())
}
