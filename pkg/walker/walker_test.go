package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
}

func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, file), []byte("x"), 0600))
	}
}

func drain(t *testing.T, w *Walker) []*FolderVisit {
	t.Helper()
	visits := []*FolderVisit{}
	for {
		visit, err := w.Next(context.Background())
		if err == ErrDone {
			return visits
		}
		require.NoError(t, err)
		visits = append(visits, visit)
	}
}

func TestWalker_BreadthFirstOrder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "b/deep", "a", "c")

	w := New(root, nil)
	visits := drain(t, w)

	paths := make([]string, 0, len(visits))
	for _, visit := range visits {
		rel, err := filepath.Rel(root, visit.Path)
		require.NoError(t, err)
		paths = append(paths, rel)
	}

	// All depth-1 folders come before any depth-2 folder, siblings in name
	// order.
	assert.Equal(t, []string{".", "a", "b", "c", filepath.Join("b", "deep")}, paths)
}

func TestWalker_FilesFilteredAndSorted(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.mp4", "a.mp4", "notes.txt", "._b.mp4")

	include := func(name string) bool {
		return filepath.Ext(name) == ".mp4"
	}

	w := New(root, include)
	visits := drain(t, w)

	require.Len(t, visits, 1)
	assert.Equal(t, []string{"a.mp4", "b.mp4"}, visits[0].Files)
}

func TestWalker_SkipsHiddenFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "._trash/inner", "keep")

	w := New(root, nil)
	visits := drain(t, w)

	for _, visit := range visits {
		assert.NotContains(t, visit.Path, "._trash")
	}
}

func TestWalker_SkipsVanishedFolder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "gone", "stays")

	w := New(root, nil)

	// Root first.
	_, err := w.Next(context.Background())
	require.NoError(t, err)

	// Remove a queued folder before it gets dequeued.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "gone")))

	visit, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "stays"), visit.Path)

	_, err = w.Next(context.Background())
	assert.Equal(t, ErrDone, err)
}

func TestWalker_LateChildDiscovery(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "parent")

	w := New(root, nil)

	// Visit the root; "parent" is now queued but not yet read.
	_, err := w.Next(context.Background())
	require.NoError(t, err)

	// A folder created under a queued parent mid-walk still gets visited.
	mkdirs(t, root, "parent/late")

	visit, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "parent"), visit.Path)

	visit, err = w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "parent", "late"), visit.Path)
}

func TestWalker_SymlinkCycleVisitedOnce(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "real")
	err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	w := New(root, nil)
	visits := drain(t, w)

	// Root plus exactly one of real/alias.
	assert.Len(t, visits, 2)
}

func TestWalker_Cancellation(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a", "b")

	ctx, cancel := context.WithCancel(context.Background())

	w := New(root, nil)
	_, err := w.Next(ctx)
	require.NoError(t, err)

	cancel()

	_, err = w.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalker_HiddenRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "._root")
	require.NoError(t, os.Mkdir(root, 0755))

	w := New(root, nil)
	visits := drain(t, w)
	assert.Empty(t, visits)
}
