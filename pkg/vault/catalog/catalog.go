// Package catalog enumerates exported packages by scanning a storage root for
// descriptor sidecars.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jamesainslie/vault/pkg/vault/descriptor"
	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// Record is one parsed sidecar.
type Record struct {
	Descriptor  types.Descriptor
	SidecarPath string
	PackageRoot string
}

// ScanError records a sidecar or directory that could not be read.
type ScanError struct {
	Path  string
	Error string
}

// IsPackageRoot reports whether dir directly holds a descriptor sidecar.
func IsPackageRoot(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(entries, func(e os.DirEntry) bool {
		return !e.IsDir() && descriptor.IsSidecar(e.Name())
	})
}

// ScanAll parses every sidecar in the directories below root. Files directly
// inside root are not considered. A sidecar that fails to parse is reported
// and excluded without affecting the others. Nothing is cached between calls.
func ScanAll(ctx context.Context, root string) ([]Record, []ScanError, error) {
	logger := logging.Get("catalog")

	files, walkErrs, err := fsutil.FindFiles(ctx, root, descriptor.IsSidecar)
	if err != nil {
		return nil, nil, err
	}

	var scanErrs []ScanError
	for _, we := range walkErrs {
		scanErrs = append(scanErrs, ScanError{Path: we.Path, Error: we.Error})
	}

	cleanRoot := filepath.Clean(root)
	records := []Record{}
	for _, path := range files {
		dir := filepath.Dir(path)
		if dir == cleanRoot {
			continue
		}

		d, err := descriptor.Read(path)
		if err != nil {
			logger.Warn("skipping unreadable descriptor", "path", path, "error", err)
			scanErrs = append(scanErrs, ScanError{Path: path, Error: err.Error()})
			continue
		}
		records = append(records, Record{Descriptor: d, SidecarPath: path, PackageRoot: dir})
	}

	logger.Debug("catalog scanned", "root", root, "records", len(records), "errors", len(scanErrs))
	return records, scanErrs, nil
}

// FilterAndSort keeps the records of the given category (all of them for
// CategoryAll) ordered by name. Records with equal names keep their relative
// order. The input slice is not modified.
func FilterAndSort(records []Record, category types.Category) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if category == types.CategoryAll || r.Descriptor.Category == category {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return strings.Compare(a.Descriptor.Name, b.Descriptor.Name)
	})
	return out
}

// Lookup returns records whose name or relative export path equals query.
func Lookup(records []Record, query string) []Record {
	var out []Record
	for _, r := range records {
		if r.Descriptor.Name == query || r.Descriptor.RelativeExportPath == query {
			out = append(out, r)
		}
	}
	return out
}

// Counts returns the number of records per category.
func Counts(records []Record) map[types.Category]int {
	counts := make(map[types.Category]int)
	for _, r := range records {
		counts[r.Descriptor.Category]++
	}
	return counts
}
