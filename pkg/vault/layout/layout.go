// Package layout builds and validates the filesystem paths used by the vault:
// package roots inside a storage root, payload paths inside a project content
// root, and user-supplied subfolders.
package layout

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ErrTraversal is returned when a user-supplied relative path would escape
// its base directory.
var ErrTraversal = errors.New("path escapes its base directory")

// ErrNotPackagePath is returned for a relative export path that names no
// folder below the storage root, such as "" or ".".
var ErrNotPackagePath = errors.New("not a package path")

// ContentDisplayRoot is the display prefix for project content locations.
const ContentDisplayRoot = "/Content"

// BuildPackageRoot returns storageRoot/category/[customFolder/]name/[version].
// Empty optional segments are omitted.
func BuildPackageRoot(storageRoot string, category types.Category, customFolder, name, version string) string {
	segments := []string{storageRoot, category.String()}
	if customFolder != "" {
		segments = append(segments, filepath.FromSlash(customFolder))
	}
	segments = append(segments, name)
	if version != "" {
		segments = append(segments, version)
	}
	return filepath.Join(segments...)
}

// PackageRootFor is BuildPackageRoot for a set of export options.
func PackageRootFor(storageRoot string, opts types.ExportOptions) string {
	return BuildPackageRoot(storageRoot, opts.Category, opts.CustomFolder, opts.Name, opts.Version)
}

// RelativeExportPath returns packageRoot relative to storageRoot in slash form.
func RelativeExportPath(storageRoot, packageRoot string) (string, error) {
	rel, err := filepath.Rel(storageRoot, packageRoot)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %q: %w", packageRoot, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrTraversal, packageRoot)
	}
	return filepath.ToSlash(rel), nil
}

// ResolveRecorded joins a recorded relative export path back onto a storage
// root.
func ResolveRecorded(storageRoot, relativeExportPath string) (string, error) {
	if err := ValidateSubfolder(relativeExportPath); err != nil {
		return "", err
	}
	if path.Clean(strings.ReplaceAll(relativeExportPath, `\`, "/")) == "." {
		return "", fmt.Errorf("%w: %q", ErrNotPackagePath, relativeExportPath)
	}
	return filepath.Join(storageRoot, filepath.FromSlash(relativeExportPath)), nil
}

// ValidateSubfolder rejects absolute paths and any ".." element, with either
// separator style. The empty string is valid and means "no subfolder".
func ValidateSubfolder(sub string) error {
	if sub == "" {
		return nil
	}
	if filepath.IsAbs(sub) || strings.HasPrefix(sub, "/") || strings.HasPrefix(sub, `\`) || hasVolume(sub) {
		return fmt.Errorf("%w: %q is absolute", ErrTraversal, sub)
	}
	for _, elem := range strings.FieldsFunc(sub, isSeparator) {
		if elem == ".." {
			return fmt.Errorf("%w: %q", ErrTraversal, sub)
		}
	}
	return nil
}

// ContentTarget returns the import destination for an optional subfolder of
// the content root.
func ContentTarget(contentRoot, sub string) (string, error) {
	if err := ValidateSubfolder(sub); err != nil {
		return "", err
	}
	if sub == "" {
		return contentRoot, nil
	}
	return filepath.Join(contentRoot, filepath.FromSlash(strings.ReplaceAll(sub, `\`, "/"))), nil
}

// ContentDisplayPath returns "/Content" or "/Content/<sub>" for messages.
func ContentDisplayPath(sub string) string {
	sub = strings.Trim(strings.ReplaceAll(sub, `\`, "/"), "/")
	if sub == "" {
		return ContentDisplayRoot
	}
	return ContentDisplayRoot + "/" + sub
}

// PayloadPath maps a package id under mount onto a file below contentRoot
// with the given extension. It returns false for ids outside the mount.
func PayloadPath(contentRoot string, mount types.Mount, id types.PackageID, ext string) (string, bool) {
	prefix := string(mount)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	s := string(id)
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(s, prefix)
	if rel == "" || ValidateSubfolder(rel) != nil {
		return "", false
	}
	return filepath.Join(contentRoot, filepath.FromSlash(rel)) + ext, true
}

// PackageIDFor maps a payload file below contentRoot back to its package id.
func PackageIDFor(contentRoot string, mount types.Mount, file string) (types.PackageID, bool) {
	rel, err := filepath.Rel(contentRoot, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	prefix := strings.TrimSuffix(string(mount), "/")
	return types.PackageID(prefix + "/" + rel), true
}

// SanitizeFileName replaces characters that are invalid in file names on
// common filesystems with '_'.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), ". ")
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// hasVolume reports a Windows drive prefix such as "C:".
func hasVolume(p string) bool {
	return len(p) >= 2 && p[1] == ':' && unicode.IsLetter(rune(p[0]))
}
