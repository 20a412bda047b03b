package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalBlobStore {
	t.Helper()
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)

	name, size, err := store.Save(strings.NewReader("%PDF-1.4 test"))
	require.NoError(t, err)
	require.Equal(t, int64(13), size)
	require.True(t, strings.HasSuffix(name, ".pdf"))
	require.NotContains(t, name, "/")

	rc, err := store.Open(name)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 test", string(data))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	store := newTestStore(t)

	first, _, err := store.Save(strings.NewReader("a"))
	require.NoError(t, err)
	second, _, err := store.Save(strings.NewReader("a"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	name, _, err := store.Save(strings.NewReader("content"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	_, err = os.Stat(filepath.Join(store.Dir(), name))
	require.True(t, os.IsNotExist(err))

	// Removing again is not an error.
	require.NoError(t, store.Remove(name))
}

func TestOpenMissingBlob(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Open("doesnotexist.pdf")
	require.True(t, os.IsNotExist(err))
}

func TestRejectsTraversalNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "../escape.pdf", "a/b.pdf", `a\b.pdf`, ".hidden"} {
		_, err := store.Open(name)
		require.ErrorIs(t, err, ErrInvalidName, "open %q", name)
		require.ErrorIs(t, store.Remove(name), ErrInvalidName, "remove %q", name)
	}
}
