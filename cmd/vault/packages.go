package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/layout"
)

// resolvePackage maps a command line package argument to its relative export
// path. The argument is either a relative export path below the storage root
// or a package name known to the catalog.
func resolvePackage(ctx context.Context, s *session, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("package cannot be empty")
	}

	dir, pathErr := layout.ResolveRecorded(s.cfg.StorageRoot, query)
	if pathErr == nil && catalog.IsPackageRoot(dir) {
		return query, nil
	}

	records, _, err := s.manager.ScanCatalog(ctx, s.cfg.StorageRoot)
	if err != nil {
		return "", fmt.Errorf("failed to scan catalog: %w", err)
	}

	matches := catalog.Lookup(records, query)
	switch len(matches) {
	case 0:
		if pathErr != nil {
			return "", pathErr
		}
		if fsutil.IsDir(dir) {
			return "", fmt.Errorf("%s is not a package folder", query)
		}
		// Let the operation report the missing folder.
		return query, nil
	case 1:
		printVerbose("Resolved %q to %s", query, matches[0].Descriptor.RelativeExportPath)
		return matches[0].Descriptor.RelativeExportPath, nil
	default:
		var paths []string
		for _, m := range matches {
			paths = append(paths, m.Descriptor.RelativeExportPath)
		}
		return "", fmt.Errorf("%q matches %d packages, use one of:\n  %s", query, len(matches), strings.Join(paths, "\n  "))
	}
}
