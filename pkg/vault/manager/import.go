package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/transfer"
)

// ImportReport describes an import attempt.
type ImportReport struct {
	Source   string
	Target   string
	Copied   []string
	Skipped  []string
	Replaced []string
	Failures []transfer.Failure
	Bytes    int64

	// Rescanned lists the directories handed to the host for re-indexing.
	Rescanned []string
}

// Import copies the package recorded at relativePath below exportRoot into
// the project content root, optionally below targetSubfolder. Existing files
// are skipped unless force is set. The import succeeds when at least one file
// was copied.
func (m *Manager) Import(ctx context.Context, exportRoot, relativePath, targetSubfolder string, force bool) (*ImportReport, error) {
	log := logger.With("package", relativePath, "into", layout.ContentDisplayPath(targetSubfolder))

	if err := layout.ValidateSubfolder(targetSubfolder); err != nil {
		m.importFailed(relativePath, "", "Error: Invalid target subfolder path.", err)
		return nil, err
	}

	source, err := layout.ResolveRecorded(exportRoot, relativePath)
	if err != nil {
		m.importFailed(relativePath, "", "Error: Invalid package path.", err)
		return nil, err
	}
	if !fsutil.IsDir(source) {
		err := fmt.Errorf("%w: %s", ErrSourceNotFound, source)
		m.importFailed(relativePath, "", "Error: Source folder not found.", err)
		return nil, err
	}

	target, err := layout.ContentTarget(m.host.ProjectContentRoot(), targetSubfolder)
	if err != nil {
		m.importFailed(relativePath, "", "Error: Invalid target subfolder path.", err)
		return nil, err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		err = fmt.Errorf("failed to create target directory: %w", err)
		m.importFailed(relativePath, target, "Import failed: "+err.Error(), err)
		return nil, err
	}

	plan, err := transfer.PlanImport(ctx, source, target, m.cfg.FileSet)
	if err != nil {
		m.importFailed(relativePath, target, "Import failed: "+err.Error(), err)
		return nil, err
	}
	log.Debug("import planned", "source", source, "target", target, "items", len(plan.Items), "files", plan.Files())

	res, err := m.engine.Execute(ctx, plan, transfer.Options{
		Force:     force,
		OnReplace: m.host.NotifyReplaced,
	})
	report := &ImportReport{Source: source, Target: target}
	if res != nil {
		report.Copied = res.Copied
		report.Skipped = res.Skipped
		report.Replaced = res.Replaced
		report.Failures = res.Failures
		report.Bytes = res.Bytes
	}
	if err != nil {
		m.importFailed(relativePath, target, "Import failed: "+err.Error(), err)
		return report, err
	}

	if len(report.Copied) == 0 {
		m.importFailed(relativePath, target, "Import failed: No files copied.", ErrNoFilesCopied)
		return report, ErrNoFilesCopied
	}

	report.Rescanned = m.rescanDirs(report.Copied)
	if len(report.Rescanned) > 0 {
		m.host.RescanPaths(report.Rescanned)
	}

	log.Info("import complete", "copied", len(report.Copied), "skipped", len(report.Skipped),
		"replaced", len(report.Replaced), "failed", len(report.Failures))

	m.record(&history.Entry{
		Operation:          history.OpImport,
		RelativeExportPath: relativePath,
		Source:             source,
		Target:             target,
		Success:            true,
		Files:              fileRecords(report.Copied),
		Summary: history.Summary{
			Skipped: int64(len(report.Skipped)),
			Failed:  int64(len(report.Failures)),
		},
	})
	m.notify(importMessage(len(report.Copied), targetSubfolder), true)
	return report, nil
}

// rescanDirs returns the unique directories holding copied primaries.
func (m *Manager) rescanDirs(copied []string) []string {
	var dirs []string
	for _, f := range copied {
		if !m.cfg.FileSet.IsPrimary(f) {
			continue
		}
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func importMessage(n int, targetSubfolder string) string {
	display := layout.ContentDisplayPath(targetSubfolder)
	if n == 1 {
		return "1 file imported to " + display
	}
	return fmt.Sprintf("%d files imported to %s", n, display)
}

func (m *Manager) importFailed(relativePath, target, message string, err error) {
	logger.Error("import failed", "package", relativePath, "target", target, "error", err)
	m.record(&history.Entry{
		Operation:          history.OpImport,
		RelativeExportPath: relativePath,
		Target:             target,
		Success:            false,
		Message:            err.Error(),
	})
	m.notify(message, false)
}
