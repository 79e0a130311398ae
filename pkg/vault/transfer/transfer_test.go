package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func failingCopy(string, string) (int64, error) {
	return 0, errors.New("primary copy failed")
}

func TestPlanExport(t *testing.T) {
	t.Parallel()

	content := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(content, "Chars", "Hero.uasset"), "hero")
	writeFile(t, filepath.Join(content, "Chars", "Hero.uexp"), "hero-exp")
	writeFile(t, filepath.Join(content, "Mats", "HeroMat.uasset"), "mat")

	ids := []types.PackageID{"/Game/Chars/Hero", "/Game/Mats/HeroMat", "/Game/Missing", "/Script/Engine"}
	plan, skips := PlanExport(content, types.DefaultMount, types.DefaultFileSet(), ids, dest)

	require.Len(t, plan.Items, 2)
	assert.Equal(t, filepath.Join(dest, "Chars", "Hero.uasset"), plan.Items[0].Primary.Dest)
	require.Len(t, plan.Items[0].Auxiliary, 1)
	assert.Equal(t, filepath.Join(dest, "Chars", "Hero.uexp"), plan.Items[0].Auxiliary[0].Dest)
	assert.Empty(t, plan.Items[1].Auxiliary)
	assert.Equal(t, 3, plan.Files())

	require.Len(t, skips, 2)
	assert.Equal(t, types.PackageID("/Game/Missing"), skips[0].ID)
	assert.Equal(t, types.PackageID("/Script/Engine"), skips[1].ID)
}

func TestPlanImport(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "Chars", "Hero.uasset"), "hero")
	writeFile(t, filepath.Join(src, "Chars", "Hero.ubulk"), "bulk")
	writeFile(t, filepath.Join(src, "Hero_StaticMesh_ABC.json"), "{}")
	writeFile(t, filepath.Join(src, "Orphan.uexp"), "orphan")

	plan, err := PlanImport(context.Background(), src, dest, types.DefaultFileSet())
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)
	assert.Equal(t, filepath.Join(dest, "Chars", "Hero.uasset"), plan.Items[0].Primary.Dest)
	require.Len(t, plan.Items[0].Auxiliary, 1)
	assert.Equal(t, filepath.Join(dest, "Chars", "Hero.ubulk"), plan.Items[0].Auxiliary[0].Dest)
}

func TestPlanImport_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := PlanImport(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), types.DefaultFileSet())
	assert.Error(t, err)
}

func TestExecute_CopiesFiles(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "a")
	writeFile(t, filepath.Join(src, "A.uexp"), "ax")

	plan, err := PlanImport(context.Background(), src, filepath.Join(dest, "nested"), types.DefaultFileSet())
	require.NoError(t, err)

	res, err := NewEngine().Execute(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Copied, 2)
	assert.Equal(t, int64(3), res.Bytes)
	assert.Equal(t, "a", readFile(t, filepath.Join(dest, "nested", "A.uasset")))
	assert.Equal(t, "ax", readFile(t, filepath.Join(dest, "nested", "A.uexp")))
}

func TestExecute_SkipExistingWithoutForce(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "new")
	writeFile(t, filepath.Join(src, "A.uexp"), "new-exp")
	writeFile(t, filepath.Join(src, "B.uasset"), "b")
	writeFile(t, filepath.Join(dest, "A.uasset"), "old")

	plan, err := PlanImport(context.Background(), src, dest, types.DefaultFileSet())
	require.NoError(t, err)

	var replaced []string
	res, err := NewEngine().Execute(context.Background(), plan, Options{
		OnReplace: func(d string) { replaced = append(replaced, d) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dest, "B.uasset")}, res.Copied)
	assert.ElementsMatch(t, []string{filepath.Join(dest, "A.uasset"), filepath.Join(dest, "A.uexp")}, res.Skipped)
	assert.Empty(t, replaced)
	assert.Equal(t, "old", readFile(t, filepath.Join(dest, "A.uasset")))
	assert.NoFileExists(t, filepath.Join(dest, "A.uexp"))
}

func TestExecute_ForceOverwritesAndNotifies(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "new")
	writeFile(t, filepath.Join(dest, "A.uasset"), "old")

	plan, err := PlanImport(context.Background(), src, dest, types.DefaultFileSet())
	require.NoError(t, err)

	var replaced []string
	res, err := NewEngine().Execute(context.Background(), plan, Options{
		Force:     true,
		OnReplace: func(d string) { replaced = append(replaced, d) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dest, "A.uasset")}, replaced)
	assert.Equal(t, replaced, res.Replaced)
	assert.Equal(t, "new", readFile(t, filepath.Join(dest, "A.uasset")))
}

func TestExecute_FallbackUnderForce(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "payload")
	writeFile(t, filepath.Join(dest, "A.uasset"), "old")
	require.NoError(t, os.Chmod(filepath.Join(dest, "A.uasset"), 0o444))

	plan, err := PlanImport(context.Background(), src, dest, types.DefaultFileSet())
	require.NoError(t, err)

	res, err := NewEngine(WithCopyFunc(failingCopy)).Execute(context.Background(), plan, Options{Force: true})
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Copied, 1)
	assert.Equal(t, "payload", readFile(t, filepath.Join(dest, "A.uasset")))
}

func TestExecute_NoFallbackWithoutForce(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "payload")
	writeFile(t, filepath.Join(src, "A.uexp"), "exp")

	plan, err := PlanImport(context.Background(), src, dest, types.DefaultFileSet())
	require.NoError(t, err)

	res, err := NewEngine(WithCopyFunc(failingCopy)).Execute(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Copied)
	require.Len(t, res.Failures, 1)
	assert.False(t, res.Failures[0].Fallback)
	assert.NoFileExists(t, filepath.Join(dest, "A.uasset"))
}

func TestExecute_FallbackFailureIsDistinct(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	plan := Plan{Items: []Item{{Primary: Copy{
		Source: filepath.Join(t.TempDir(), "gone.uasset"),
		Dest:   filepath.Join(dest, "gone.uasset"),
	}}}}

	res, err := NewEngine(WithCopyFunc(failingCopy)).Execute(context.Background(), plan, Options{Force: true})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.True(t, res.Failures[0].Fallback)
	assert.Empty(t, res.Copied)
}

func TestExecute_DirectoryCreationIsFatal(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "not a dir")
	writeFile(t, filepath.Join(src, "Sub", "A.uasset"), "a")
	writeFile(t, filepath.Join(src, "Sub", "B.uasset"), "b")

	plan, err := PlanImport(context.Background(), src, blocker, types.DefaultFileSet())
	require.NoError(t, err)

	res, err := NewEngine().Execute(context.Background(), plan, Options{})
	require.Error(t, err)
	assert.Empty(t, res.Copied)
}

func TestExecute_Cancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "A.uasset"), "a")
	plan, err := PlanImport(context.Background(), src, t.TempDir(), types.DefaultFileSet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewEngine().Execute(ctx, plan, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRawCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "bytes")

	n, err := RawCopy(src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "bytes", readFile(t, dst))
}

func TestStreamCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "A.uasset")
	dst := filepath.Join(dir, "out", "A.uasset")
	writeFile(t, src, "payload")
	writeFile(t, dst, "old")

	n, err := StreamCopy(src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "payload", readFile(t, dst))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestStreamCopy_FailureKeepsDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(src, 0o755))
	out := filepath.Join(dir, "out")
	dst := filepath.Join(out, "A.uasset")
	writeFile(t, dst, "old")

	_, err := StreamCopy(src, dst)
	require.Error(t, err)
	assert.Equal(t, "old", readFile(t, dst))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed after failure")
}
