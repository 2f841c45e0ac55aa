package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfdex/shelfdex/internal/testgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_VisitsMatchingFilesSorted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sf := testgen.CreateSubDir(t, root, "sf")
	prose := testgen.CreateSubDir(t, root, "prose")

	testgen.WriteFile(t, root, "zeta.fb2", []byte("x"))
	testgen.WriteFile(t, sf, "dune.epub", []byte("x"))
	testgen.WriteFile(t, sf, "notes.txt", []byte("x"))
	testgen.WriteFile(t, prose, "война.fb2", []byte("x"))

	w := NewWalker([]string{root}, []string{"fb2", "epub"})

	var visited []string
	err := w.Walk(context.Background(), func(f File) error {
		visited = append(visited, filepath.Join(f.RelDir, f.Filename))
		return nil
	}, func(path string, err error) {
		t.Fatalf("unexpected walk error at %s: %v", path, err)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"zeta.fb2",
		filepath.Join("prose", "война.fb2"),
		filepath.Join("sf", "dune.epub"),
	}, visited)
}

func TestWalk_MultipleRoots(t *testing.T) {
	t.Parallel()

	root1 := t.TempDir()
	root2 := t.TempDir()
	testgen.WriteFile(t, root1, "a.fb2", []byte("x"))
	testgen.WriteFile(t, root2, "b.fb2", []byte("x"))

	w := NewWalker([]string{root1, root2}, []string{"fb2"})

	var roots []string
	err := w.Walk(context.Background(), func(f File) error {
		roots = append(roots, f.Root)
		return nil
	}, func(string, error) {})
	require.NoError(t, err)

	assert.Equal(t, []string{root1, root2}, roots)
}

func TestWalk_FileFields(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sf := testgen.CreateSubDir(t, root, "sf")
	path := testgen.WriteFile(t, sf, "dune.FB2", []byte("contents"))

	w := NewWalker([]string{root}, []string{".fb2"})

	var files []File
	err := w.Walk(context.Background(), func(f File) error {
		files = append(files, f)
		return nil
	}, func(string, error) {})
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, path, f.AbsPath())
	assert.Equal(t, "fb2", f.Ext)
	assert.Equal(t, int64(8), f.Size)
	assert.NotEmpty(t, f.Fingerprint)
	assert.Equal(t, filepath.Join(filepath.Base(root), "sf"), filepath.FromSlash(f.VirtualPath()))
}

func TestWalk_SkipsSymlinkedDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	testgen.WriteFile(t, outside, "hidden.fb2", []byte("x"))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	testgen.WriteFile(t, root, "real.fb2", []byte("x"))

	w := NewWalker([]string{root}, []string{"fb2"})

	var visited []string
	err := w.Walk(context.Background(), func(f File) error {
		visited = append(visited, f.Filename)
		return nil
	}, func(string, error) {})
	require.NoError(t, err)

	assert.Equal(t, []string{"real.fb2"}, visited)
}

func TestWalk_ReportsUnreadableRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testgen.WriteFile(t, root, "a.fb2", []byte("x"))
	missing := filepath.Join(root, "does-not-exist-root")

	w := NewWalker([]string{missing, root}, []string{"fb2"})

	var visited []string
	var failed []string
	err := w.Walk(context.Background(), func(f File) error {
		visited = append(visited, f.Filename)
		return nil
	}, func(path string, err error) {
		failed = append(failed, path)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.fb2"}, visited)
	assert.Equal(t, []string{missing}, failed)
}

func TestWalk_ContextCancellation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testgen.WriteFile(t, root, "a.fb2", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker([]string{root}, []string{"fb2"})
	err := w.Walk(ctx, func(File) error {
		t.Fatal("should not visit files after cancellation")
		return nil
	}, func(string, error) {})
	require.ErrorIs(t, err, context.Canceled)
}
