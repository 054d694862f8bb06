package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvisten/autosave/store"
)

type doc struct {
	Theme string `json:"theme"`
	Size  int    `json:"size"`
}

func tempStore(t *testing.T, key string) *Store[doc] {
	t.Helper()
	s, err := Open[doc](filepath.Join(t.TempDir(), "state.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s1, err := Open[doc](path, "settings")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open[doc](path, "settings")
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestStore_LoadEmptyDatabase(t *testing.T) {
	s := tempStore(t, "settings")
	_, _, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveThenLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t, "settings")

	_, err := s.Save(ctx, doc{Theme: "light", Size: 12}, store.Meta{})
	require.NoError(t, err)
	latest, err := s.Save(ctx, doc{Theme: "dark", Size: 14}, store.Meta{})
	require.NoError(t, err)

	got, meta, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc{Theme: "dark", Size: 14}, got, "load returns the newest snapshot")
	assert.Equal(t, latest.SnapshotID, meta.SnapshotID)
	assert.Equal(t, latest.SavedAt.UTC(), meta.SavedAt.UTC())
}

func TestStore_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t, "settings")

	var ids []string
	for i := 0; i < 3; i++ {
		meta, err := s.Save(ctx, doc{Size: i}, store.Meta{})
		require.NoError(t, err)
		ids = append(ids, meta.SnapshotID)
	}

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ids[2], history[0].SnapshotID)
	assert.Equal(t, ids[0], history[2].SnapshotID)

	limited, err := s.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	a, err := Open[doc](path, "a")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Save(ctx, doc{Theme: "dark"}, store.Meta{})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open[doc](path, "b")
	require.NoError(t, err)
	defer b.Close()

	_, _, ok, err := b.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "documents under other keys must not leak")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open[doc](path, "settings")
	require.NoError(t, err)
	_, err = s.Save(ctx, doc{Theme: "dark"}, store.Meta{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open[doc](path, "settings")
	require.NoError(t, err)
	defer reopened.Close()

	got, _, ok, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dark", got.Theme)
}
