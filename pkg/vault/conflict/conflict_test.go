package conflict

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestExportConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := types.DefaultFileSet()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		got, err := ExportConflicts(ctx, filepath.Join(t.TempDir(), "nope"), fs)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("only sidecar", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		touch(t, filepath.Join(root, "Hero_StaticMesh_1.json"))
		got, err := ExportConflicts(ctx, root, fs)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("nested primary", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		touch(t, filepath.Join(root, "Chars", "Hero.uasset"))
		got, err := ExportConflicts(ctx, root, fs)
		require.NoError(t, err)
		assert.True(t, got)
	})
}

func TestImportConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := types.DefaultFileSet()

	src := t.TempDir()
	dst := t.TempDir()
	touch(t, filepath.Join(src, "Chars", "Hero.uasset"))
	touch(t, filepath.Join(src, "Chars", "Villain.uasset"))
	touch(t, filepath.Join(src, "Crate.uasset"))
	touch(t, filepath.Join(dst, "Chars", "Hero.uasset"))
	touch(t, filepath.Join(dst, "Villain.uasset"))

	got, err := ImportConflicts(ctx, src, dst, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero.uasset"}, got)
}

func TestImportConflicts_NoneIsEmptyNotError(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	touch(t, filepath.Join(src, "Crate.uasset"))

	got, err := ImportConflicts(context.Background(), src, t.TempDir(), types.DefaultFileSet())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestImportConflicts_CannotDetermine(t *testing.T) {
	t.Parallel()

	existing := t.TempDir()
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := ImportConflicts(context.Background(), missing, existing, types.DefaultFileSet())
	assert.ErrorIs(t, err, ErrCannotDetermine)

	_, err = ImportConflicts(context.Background(), existing, missing, types.DefaultFileSet())
	assert.ErrorIs(t, err, ErrCannotDetermine)
}
