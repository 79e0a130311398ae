// Package conflict provides the read-only pre-flight checks run before an
// export or import.
package conflict

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ErrCannotDetermine is returned when an import conflict check cannot run
// because the source or destination directory is missing. It is not the same
// as "no conflicts".
var ErrCannotDetermine = errors.New("cannot determine conflicts")

// ExportConflicts reports whether any primary payload already exists below
// destRoot. A missing destRoot has no conflicts.
func ExportConflicts(ctx context.Context, destRoot string, fileSet types.FileSet) (bool, error) {
	if !fsutil.IsDir(destRoot) {
		return false, nil
	}
	files, _, err := fsutil.FindFiles(ctx, destRoot, fileSet.IsPrimary)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// ImportConflicts returns the base names of primary payloads below
// sourceRoot whose relative-path destination below destRoot already exists.
func ImportConflicts(ctx context.Context, sourceRoot, destRoot string, fileSet types.FileSet) ([]string, error) {
	if !fsutil.IsDir(sourceRoot) || !fsutil.IsDir(destRoot) {
		return nil, ErrCannotDetermine
	}

	primaries, _, err := fsutil.FindFiles(ctx, sourceRoot, fileSet.IsPrimary)
	if err != nil {
		return nil, err
	}

	conflicts := []string{}
	for _, primary := range primaries {
		rel, err := filepath.Rel(sourceRoot, primary)
		if err != nil {
			continue
		}
		if fsutil.Exists(filepath.Join(destRoot, rel)) {
			conflicts = append(conflicts, filepath.Base(primary))
		}
	}
	return conflicts, nil
}
