package etag

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

var (
	_ download.ETagStore = (*SidecarStore)(nil)
	_ download.ETagStore = (*XattrStore)(nil)
	_ download.ETagStore = (*SQLiteStore)(nil)
)

func exerciseStore(t *testing.T, store download.ETagStore, dir string) {
	t.Helper()
	dest := filepath.Join(dir, "tile.png")
	require.NoError(t, os.WriteFile(dest, []byte("png"), 0o644))

	got, err := store.Get(dest)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(dest, `"v1"`))
	got, err = store.Get(dest)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, got)

	require.NoError(t, store.Set(dest, `W/"v2"`))
	got, err = store.Get(dest)
	require.NoError(t, err)
	assert.Equal(t, `W/"v2"`, got)

	require.NoError(t, store.Delete(dest))
	got, err = store.Get(dest)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(dest))

	got, err = store.Get(filepath.Join(dir, "missing.png"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSidecarStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSidecarStore()
	exerciseStore(t, store, dir)

	dest := filepath.Join(dir, "a.png")
	require.NoError(t, store.Set(dest, `"x"`))
	info, err := os.Stat(dest + SidecarSuffix)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o007)
}

func TestXattrStore(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	store := NewXattrStore()
	if err := store.Set(marker, "x"); err != nil {
		t.Skipf("filesystem does not support user xattrs: %v", err)
	}
	exerciseStore(t, store, dir)
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state", "etags.db")
	store, err := OpenSQLiteStore(dbPath)
	require.NoError(t, err)
	exerciseStore(t, store, dir)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fsutil.FileModeSecure), info.Mode().Perm())

	// Values survive reopening.
	dest := filepath.Join(dir, "tile.png")
	require.NoError(t, store.Set(dest, `"persisted"`))
	require.NoError(t, store.Close())

	store, err = OpenSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(dest)
	require.NoError(t, err)
	assert.Equal(t, `"persisted"`, got)
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	dir := t.TempDir()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p := filepath.Join(dir, string(rune('a'+n)))
			assert.NoError(t, store.Set(p, p))
			got, err := store.Get(p)
			assert.NoError(t, err)
			assert.Equal(t, p, got)
		}(i)
	}
	wg.Wait()
}
