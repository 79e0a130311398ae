package manager

import (
	"context"
	"errors"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/conflict"
	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/trash"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// CheckExportConflict reports whether the package root that opts would export
// to already holds primary payloads, and returns that root.
func (m *Manager) CheckExportConflict(ctx context.Context, exportRoot string, opts types.ExportOptions) (bool, string, error) {
	if err := ValidateExport(exportRoot, opts); err != nil {
		return false, "", err
	}
	resolved := layout.PackageRootFor(exportRoot, opts)
	exists, err := conflict.ExportConflicts(ctx, resolved, m.cfg.FileSet)
	if err != nil {
		return false, resolved, err
	}
	logger.Debug("export conflict check", "root", resolved, "conflict", exists)
	return exists, resolved, nil
}

// CheckImportConflict returns the primary payload names of the package at
// relativePath that already exist at their import destination. It returns
// conflict.ErrCannotDetermine when the package or target folder is missing.
func (m *Manager) CheckImportConflict(ctx context.Context, exportRoot, relativePath, targetSubfolder string) (bool, []string, error) {
	source, err := layout.ResolveRecorded(exportRoot, relativePath)
	if err != nil {
		return false, nil, err
	}
	target, err := layout.ContentTarget(m.host.ProjectContentRoot(), targetSubfolder)
	if err != nil {
		return false, nil, err
	}

	names, err := conflict.ImportConflicts(ctx, source, target, m.cfg.FileSet)
	if err != nil {
		if errors.Is(err, conflict.ErrCannotDetermine) {
			logger.Warn("import conflict check skipped", "source", source, "target", target)
		}
		return false, nil, err
	}
	return len(names) > 0, names, nil
}

// ScanCatalog lists every package described below exportRoot.
func (m *Manager) ScanCatalog(ctx context.Context, exportRoot string) ([]catalog.Record, []catalog.ScanError, error) {
	return catalog.ScanAll(ctx, exportRoot)
}

// Delete removes a package directory. A directory that does not exist is
// already deleted.
func (m *Manager) Delete(packageRoot string) error {
	if packageRoot == "" {
		logger.Error("delete failed: package root is empty")
		return trash.ErrEmptyPath
	}

	entry := &history.Entry{Operation: history.OpDelete, Target: packageRoot}
	if err := m.remove(packageRoot); err != nil {
		logger.Error("delete failed", "path", packageRoot, "error", err)
		entry.Message = err.Error()
		m.record(entry)
		return err
	}

	logger.Info("package deleted", "path", packageRoot)
	entry.Success = true
	m.record(entry)
	return nil
}
