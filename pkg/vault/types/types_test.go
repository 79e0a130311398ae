package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Category
	}{
		{"StaticMesh", CategoryStaticMesh},
		{"static mesh", CategoryStaticMesh},
		{"Static Mesh", CategoryStaticMesh},
		{"EAssetType::StaticMesh", CategoryStaticMesh},
		{"eassettype::blueprint", CategoryBlueprint},
		{"MATERIAL", CategoryMaterial},
		{"  Sound ", CategorySound},
		{"All", CategoryAll},
		{"Skeleton", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCategory(tt.input))
		})
	}
}

func TestParseCategoryStrict_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseCategoryStrict("Skeleton")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategory_Names(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "StaticMesh", CategoryStaticMesh.String())
	assert.Equal(t, "Static Mesh", CategoryStaticMesh.DisplayName())
	assert.Equal(t, "Other", Category(42).String())
	assert.False(t, CategoryAll.Storable())
	assert.True(t, CategoryOther.Storable())
	assert.False(t, Category(-1).Storable())
}

func TestCategory_TextRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range AllCategories() {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var got Category
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, c, got)
	}
}

func TestCategoryByIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, MaxCategoryIndex())
	assert.Equal(t, CategoryTexture, CategoryByIndex(4))
	assert.Equal(t, CategoryOther, CategoryByIndex(-1))
	assert.Equal(t, CategoryOther, CategoryByIndex(99))
	assert.Len(t, AllCategories(), 8)
}

func TestPackageID_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hero", PackageID("/Game/Chars/Hero").Name())
	assert.Equal(t, "Hero", PackageID("/Game/Chars/Hero/").Name())
}

func TestFileSet(t *testing.T) {
	t.Parallel()

	fs := DefaultFileSet()
	assert.True(t, fs.IsPrimary("Hero.uasset"))
	assert.True(t, fs.IsPrimary("Hero.UASSET"))
	assert.False(t, fs.IsPrimary("Hero.uexp"))

	assert.Equal(t, []string{
		"/c/Hero.uexp",
		"/c/Hero.ubulk",
		"/c/Hero.umap",
	}, fs.Companions("/c/Hero.uasset"))
}

func TestExportOptions_Descriptor(t *testing.T) {
	t.Parallel()

	opts := ExportOptions{
		Name:     "Hero",
		Category: CategoryStaticMesh,
		Version:  "1.0",
		Tags:     []string{"char"},
	}

	d := opts.Descriptor()
	assert.Equal(t, "Hero", d.Name)
	assert.Equal(t, CategoryStaticMesh, d.Category)
	assert.Equal(t, []string{"char"}, d.Tags)

	// Descriptor tags must not alias the options slice.
	d.Tags[0] = "changed"
	assert.Equal(t, "char", opts.Tags[0])
}

func TestSizeHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "0 B", FormatSize(-5))

	n, err := ParseSize("10MiB")
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), n)

	_, err = ParseSize("lots")
	assert.Error(t, err)
}
