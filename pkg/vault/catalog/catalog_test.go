package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/vault/pkg/vault/descriptor"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCatalog writes three valid sidecars and one malformed one.
func setupTestCatalog(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	write := func(name string, c types.Category, version string) {
		pkg := layout.BuildPackageRoot(root, c, "", name, version)
		require.NoError(t, os.MkdirAll(pkg, 0o755))
		rel, err := layout.RelativeExportPath(root, pkg)
		require.NoError(t, err)
		_, err = descriptor.Write(types.Descriptor{
			Name:               name,
			Category:           c,
			Version:            version,
			RelativeExportPath: rel,
		}, pkg, time.Now())
		require.NoError(t, err)
	}

	write("Zeppelin", types.CategoryStaticMesh, "1.0")
	write("Hero", types.CategoryStaticMesh, "1.0")
	write("Door", types.CategoryBlueprint, "2.0")

	bad := filepath.Join(root, "Texture", "Broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "Broken_Texture_1.json"), []byte("{oops"), 0o644))

	// Files directly in the root are not sidecars.
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.json"), []byte(`{"Name":"NotAPackage"}`), 0o644))

	return root
}

func TestScanAll(t *testing.T) {
	t.Parallel()

	root := setupTestCatalog(t)

	records, scanErrs, err := ScanAll(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	require.Len(t, scanErrs, 1)
	assert.Contains(t, scanErrs[0].Path, "Broken_Texture_1.json")

	for _, r := range records {
		assert.NotEqual(t, "NotAPackage", r.Descriptor.Name)
		assert.Equal(t, filepath.Dir(r.SidecarPath), r.PackageRoot)
	}
}

func TestScanAll_EmptyAndMissing(t *testing.T) {
	t.Parallel()

	records, scanErrs, err := ScanAll(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, scanErrs)

	_, _, err = ScanAll(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFilterAndSort(t *testing.T) {
	t.Parallel()

	root := setupTestCatalog(t)
	records, _, err := ScanAll(context.Background(), root)
	require.NoError(t, err)

	all := FilterAndSort(records, types.CategoryAll)
	require.Len(t, all, 3)
	assert.Equal(t, "Door", all[0].Descriptor.Name)
	assert.Equal(t, "Hero", all[1].Descriptor.Name)
	assert.Equal(t, "Zeppelin", all[2].Descriptor.Name)

	meshes := FilterAndSort(records, types.CategoryStaticMesh)
	require.Len(t, meshes, 2)
	assert.Equal(t, "Hero", meshes[0].Descriptor.Name)

	sounds := FilterAndSort(records, types.CategorySound)
	assert.NotNil(t, sounds)
	assert.Empty(t, sounds)
}

func TestFilterAndSort_StableAndCaseSensitive(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Descriptor: types.Descriptor{Name: "b", Category: types.CategoryLevel}, SidecarPath: "1"},
		{Descriptor: types.Descriptor{Name: "A", Category: types.CategoryLevel}, SidecarPath: "2"},
		{Descriptor: types.Descriptor{Name: "b", Category: types.CategoryLevel}, SidecarPath: "3"},
	}

	got := FilterAndSort(records, types.CategoryLevel)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].SidecarPath)
	assert.Equal(t, "1", got[1].SidecarPath)
	assert.Equal(t, "3", got[2].SidecarPath)

	// Input order is untouched.
	assert.Equal(t, "1", records[0].SidecarPath)
}

func TestLookupAndCounts(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Descriptor: types.Descriptor{Name: "Hero", Category: types.CategoryStaticMesh, RelativeExportPath: "StaticMesh/Hero/1.0"}},
		{Descriptor: types.Descriptor{Name: "Door", Category: types.CategoryBlueprint, RelativeExportPath: "Blueprint/Door"}},
	}

	assert.Len(t, Lookup(records, "Hero"), 1)
	assert.Len(t, Lookup(records, "Blueprint/Door"), 1)
	assert.Empty(t, Lookup(records, "Nope"))

	counts := Counts(records)
	assert.Equal(t, 1, counts[types.CategoryStaticMesh])
	assert.Equal(t, 1, counts[types.CategoryBlueprint])
}

func TestIsPackageRoot(t *testing.T) {
	t.Parallel()

	root := setupTestCatalog(t)

	records, _, err := ScanAll(context.Background(), root)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	assert.True(t, IsPackageRoot(records[0].PackageRoot))
	assert.False(t, IsPackageRoot(filepath.Join(root, "StaticMesh")))
	assert.False(t, IsPackageRoot(filepath.Dir(records[0].PackageRoot)))
	assert.False(t, IsPackageRoot(filepath.Join(root, "missing")))
}
