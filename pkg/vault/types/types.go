// Package types provides the shared data structures for the vault asset
// packaging engine: categories, package descriptors, export options and the
// payload naming convention.
package types

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Category classifies an exported package. All is a query-only wildcard and
// never appears in a stored descriptor.
type Category int

// Known categories, in display order.
const (
	CategoryAll Category = iota
	CategoryBlueprint
	CategoryMaterial
	CategoryLevel
	CategoryTexture
	CategoryStaticMesh
	CategorySound
	CategoryOther
)

// ErrUnknownCategory is returned by ParseCategoryStrict for unrecognized names.
var ErrUnknownCategory = errors.New("unknown category")

var categoryNames = [...]string{
	CategoryAll:        "All",
	CategoryBlueprint:  "Blueprint",
	CategoryMaterial:   "Material",
	CategoryLevel:      "Level",
	CategoryTexture:    "Texture",
	CategoryStaticMesh: "StaticMesh",
	CategorySound:      "Sound",
	CategoryOther:      "Other",
}

var categoryDisplayNames = [...]string{
	CategoryAll:        "All",
	CategoryBlueprint:  "Blueprint",
	CategoryMaterial:   "Material",
	CategoryLevel:      "Level",
	CategoryTexture:    "Texture",
	CategoryStaticMesh: "Static Mesh",
	CategorySound:      "Sound",
	CategoryOther:      "Other",
}

// legacyCategoryPrefix is accepted in front of category names read from
// older descriptors.
const legacyCategoryPrefix = "EAssetType::"

// String returns the canonical name used in storage paths and descriptors.
func (c Category) String() string {
	if c < CategoryAll || int(c) >= len(categoryNames) {
		return categoryNames[CategoryOther]
	}
	return categoryNames[c]
}

// DisplayName returns the human-readable name (e.g. "Static Mesh").
func (c Category) DisplayName() string {
	if c < CategoryAll || int(c) >= len(categoryDisplayNames) {
		return categoryDisplayNames[CategoryOther]
	}
	return categoryDisplayNames[c]
}

// Storable reports whether the category may be recorded in a descriptor.
func (c Category) Storable() bool {
	return c > CategoryAll && c <= CategoryOther
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// CategoryOther.
func (c *Category) UnmarshalText(text []byte) error {
	*c = ParseCategory(string(text))
	return nil
}

// ParseCategory parses a category name case-insensitively. It accepts the
// canonical and display forms as well as the legacy "EAssetType::" prefix.
// Unrecognized names map to CategoryOther.
func ParseCategory(s string) Category {
	c, err := ParseCategoryStrict(s)
	if err != nil {
		return CategoryOther
	}
	return c
}

// ParseCategoryStrict is like ParseCategory but reports unrecognized names.
func ParseCategoryStrict(s string) (Category, error) {
	name := strings.TrimSpace(s)
	if len(name) >= len(legacyCategoryPrefix) && strings.EqualFold(name[:len(legacyCategoryPrefix)], legacyCategoryPrefix) {
		name = name[len(legacyCategoryPrefix):]
	}
	for i := range categoryNames {
		if strings.EqualFold(name, categoryNames[i]) || strings.EqualFold(name, categoryDisplayNames[i]) {
			return Category(i), nil
		}
	}
	return CategoryOther, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// AllCategories returns every category including the All wildcard.
func AllCategories() []Category {
	out := make([]Category, 0, len(categoryNames))
	for i := range categoryNames {
		out = append(out, Category(i))
	}
	return out
}

// MaxCategoryIndex returns the highest valid category index.
func MaxCategoryIndex() int {
	return len(categoryNames) - 1
}

// CategoryByIndex returns the category at the given index, or CategoryOther
// when the index is out of range.
func CategoryByIndex(i int) Category {
	if i < 0 || i > MaxCategoryIndex() {
		return CategoryOther
	}
	return Category(i)
}

// PackageID names an item in the project namespace, e.g. "/Game/Chars/Hero".
type PackageID string

// Name returns the last path element of the id.
func (id PackageID) Name() string {
	return path.Base(strings.TrimRight(string(id), "/"))
}

// Descriptor is the metadata record stored alongside an exported package.
type Descriptor struct {
	Name               string
	Category           Category
	Description        string
	EngineVersion      string
	Version            string
	VersionComment     string
	CustomFolder       string
	RelativeExportPath string
	Tags               []string
	ExportedItemNames  []string
}

// DefaultVersion is recorded when a descriptor carries no version.
const DefaultVersion = "1.0"

// ExportOptions holds the user-supplied metadata for an export.
type ExportOptions struct {
	Name           string
	Category       Category
	Description    string
	EngineVersion  string
	Version        string
	VersionComment string
	CustomFolder   string
	Tags           []string
}

// Descriptor builds the descriptor fields carried over from the options.
func (o ExportOptions) Descriptor() Descriptor {
	tags := make([]string, len(o.Tags))
	copy(tags, o.Tags)
	return Descriptor{
		Name:           o.Name,
		Category:       o.Category,
		Description:    o.Description,
		EngineVersion:  o.EngineVersion,
		Version:        o.Version,
		VersionComment: o.VersionComment,
		CustomFolder:   o.CustomFolder,
		Tags:           tags,
	}
}

// FileSet describes the payload naming convention: one primary file per item
// plus optional auxiliary files sharing its base name.
type FileSet struct {
	Primary   string
	Auxiliary []string
}

// DefaultFileSet returns the standard payload convention.
func DefaultFileSet() FileSet {
	return FileSet{
		Primary:   ".uasset",
		Auxiliary: []string{".uexp", ".ubulk", ".umap"},
	}
}

// IsPrimary reports whether name carries the primary extension.
func (fs FileSet) IsPrimary(name string) bool {
	return strings.EqualFold(filepath.Ext(name), fs.Primary)
}

// Companions returns the auxiliary file paths that belong to primaryPath.
func (fs FileSet) Companions(primaryPath string) []string {
	base := strings.TrimSuffix(primaryPath, filepath.Ext(primaryPath))
	out := make([]string, 0, len(fs.Auxiliary))
	for _, ext := range fs.Auxiliary {
		out = append(out, base+ext)
	}
	return out
}

// Mount is the project namespace prefix mapped onto the content root.
type Mount string

// DefaultMount is the namespace prefix for project content.
const DefaultMount Mount = "/Game/"

// FormatSize formats a byte count as a human-readable string (e.g. "1.5 GiB").
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize parses a human-readable size such as "10MiB" or "1G".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
