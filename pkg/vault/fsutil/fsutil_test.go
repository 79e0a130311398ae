package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.uasset"))
	writeFile(t, filepath.Join(root, "a", "deep", "c.uasset"))
	writeFile(t, filepath.Join(root, "a", "c.uexp"))

	files, errs, err := FindFiles(context.Background(), root, func(name string) bool {
		return strings.HasSuffix(name, ".uasset")
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "deep", "c.uasset"),
		filepath.Join(root, "b.uasset"),
	}, files)
}

func TestFindFiles_MissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := FindFiles(context.Background(), filepath.Join(t.TempDir(), "nope"), func(string) bool { return true })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindFiles_FileRoot(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "f.txt")
	writeFile(t, file)

	_, _, err := FindFiles(context.Background(), file, func(string) bool { return true })
	assert.Error(t, err)
}

func TestFindFiles_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x.uasset"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := FindFiles(ctx, root, func(string) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExistsAndIsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	writeFile(t, file)

	assert.True(t, Exists(file))
	assert.False(t, IsDir(file))
	assert.True(t, IsDir(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}

func TestDirSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.uasset"))
	writeFile(t, filepath.Join(root, "sub", "b.uexp"))

	size, err := DirSize(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	_, err = DirSize(context.Background(), filepath.Join(root, "missing"))
	assert.Error(t, err)
}
