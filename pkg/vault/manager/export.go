package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/vault/pkg/vault/descriptor"
	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/transfer"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ExportReport describes a completed export.
type ExportReport struct {
	PackageRoot string
	SidecarPath string
	Descriptor  types.Descriptor

	// Resolved is every package id reached from the exported items.
	Resolved []types.PackageID

	// Skipped lists resolved ids that had no payload to copy.
	Skipped []transfer.Skip

	Transfer *transfer.Result
}

// Export copies item and its hard dependencies into the package root derived
// from opts below exportRoot and writes the package descriptor.
func (m *Manager) Export(ctx context.Context, item types.PackageID, exportRoot string, opts types.ExportOptions) (*ExportReport, error) {
	return m.export(ctx, []types.PackageID{item}, exportRoot, opts, false)
}

// ExportMany exports several items into one package. An item that cannot be
// resolved is logged and skipped; the descriptor is written once.
func (m *Manager) ExportMany(ctx context.Context, items []types.PackageID, exportRoot string, opts types.ExportOptions) (*ExportReport, error) {
	if len(items) == 0 {
		err := fmt.Errorf("%w: no items provided", ErrInvalidOptions)
		m.exportFailed(opts, "", err)
		return nil, err
	}
	return m.export(ctx, items, exportRoot, opts, true)
}

func (m *Manager) export(ctx context.Context, items []types.PackageID, exportRoot string, opts types.ExportOptions, tolerant bool) (*ExportReport, error) {
	if err := ValidateExport(exportRoot, opts); err != nil {
		m.exportFailed(opts, "", err)
		return nil, err
	}
	if !m.registry.IsIndexReady() {
		m.exportFailed(opts, "", resolver.ErrIndexNotReady)
		return nil, resolver.ErrIndexNotReady
	}

	packageRoot := layout.PackageRootFor(exportRoot, opts)
	log := logger.With("package", opts.Name, "root", packageRoot)

	resolved := make(resolver.Set)
	var roots []types.PackageID
	for _, item := range items {
		set, err := resolver.Resolve(ctx, m.registry, item)
		if err != nil {
			if tolerant && !errors.Is(err, context.Canceled) && !errors.Is(err, resolver.ErrIndexNotReady) {
				log.Warn("failed to resolve item, skipping", "item", item, "error", err)
				continue
			}
			m.exportFailed(opts, "", err)
			return nil, err
		}
		roots = append(roots, item)
		for id := range set {
			resolved[id] = struct{}{}
		}
	}

	report := &ExportReport{PackageRoot: packageRoot, Resolved: resolved.Sorted()}

	contentRoot := m.host.ProjectContentRoot()
	plan, skips := transfer.PlanExport(contentRoot, m.cfg.Mount, m.cfg.FileSet, report.Resolved, packageRoot)
	report.Skipped = skips

	if err := checkRoots(roots, skips, tolerant); err != nil {
		m.exportFailed(opts, "", err)
		return nil, err
	}

	if err := os.MkdirAll(packageRoot, 0o755); err != nil {
		err = fmt.Errorf("failed to create package directory: %w", err)
		m.exportFailed(opts, packageRoot, err)
		return nil, err
	}

	// The package root is versioned, so re-exporting a version replaces it.
	res, err := m.engine.Execute(ctx, plan, transfer.Options{Force: true})
	report.Transfer = res
	if err != nil {
		m.exportFailed(opts, packageRoot, err)
		return report, err
	}
	log.Info("payload copied", "resolved", len(report.Resolved), "copied", len(res.Copied),
		"skipped", len(skips), "failed", len(res.Failures))

	d, err := m.buildDescriptor(ctx, exportRoot, packageRoot, opts)
	if err != nil {
		m.exportFailed(opts, packageRoot, err)
		return report, err
	}

	sidecar, err := descriptor.Write(d, packageRoot, m.now())
	if err != nil {
		m.exportFailed(opts, packageRoot, err)
		return report, err
	}
	removeStaleSidecars(packageRoot, sidecar)

	report.SidecarPath = sidecar
	report.Descriptor = d

	m.record(&history.Entry{
		Operation:          history.OpExport,
		Package:            d.Name,
		Category:           d.Category.String(),
		Version:            d.Version,
		RelativeExportPath: d.RelativeExportPath,
		Target:             packageRoot,
		Success:            true,
		Files:              fileRecords(res.Copied),
		Summary: history.Summary{
			Skipped: int64(len(skips)),
			Failed:  int64(len(res.Failures)),
		},
	})
	m.notify(fmt.Sprintf("Exported %s to %s", d.Name, d.RelativeExportPath), true)
	return report, nil
}

// checkRoots fails when a requested item has no payload of its own. A
// tolerant export only fails when no requested item is left.
func checkRoots(roots []types.PackageID, skips []transfer.Skip, tolerant bool) error {
	reasons := make(map[types.PackageID]string, len(skips))
	for _, s := range skips {
		reasons[s.ID] = s.Reason
	}

	kept := 0
	for _, root := range roots {
		reason, skipped := reasons[root]
		if !skipped {
			kept++
			continue
		}
		err := fmt.Errorf("%w: %s: %s", ErrItemNotFound, root, reason)
		if !tolerant {
			return err
		}
		logger.Warn("item has no payload, skipping", "item", root, "reason", reason)
	}
	if kept == 0 {
		return fmt.Errorf("%w: none of the requested items could be exported", ErrItemNotFound)
	}
	return nil
}

// buildDescriptor fills the descriptor for a package whose payload has been
// copied. Exported item names are taken from the primaries now on disk.
func (m *Manager) buildDescriptor(ctx context.Context, exportRoot, packageRoot string, opts types.ExportOptions) (types.Descriptor, error) {
	d := opts.Descriptor()
	if d.EngineVersion == "" {
		d.EngineVersion = m.cfg.EngineVersion
	}

	rel, err := layout.RelativeExportPath(exportRoot, packageRoot)
	if err != nil {
		return d, err
	}
	d.RelativeExportPath = rel

	primaries, _, err := fsutil.FindFiles(ctx, packageRoot, m.cfg.FileSet.IsPrimary)
	if err != nil {
		return d, fmt.Errorf("failed to list exported items: %w", err)
	}
	names := make([]string, 0, len(primaries))
	for _, p := range primaries {
		base := filepath.Base(p)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	d.ExportedItemNames = descriptor.NormalizeNames(names)
	return d, nil
}

// removeStaleSidecars deletes descriptors left in packageRoot by an earlier
// export of the same version.
func removeStaleSidecars(packageRoot, keep string) {
	entries, err := os.ReadDir(packageRoot)
	if err != nil {
		return
	}
	for _, e := range entries {
		path := filepath.Join(packageRoot, e.Name())
		if e.IsDir() || !descriptor.IsSidecar(e.Name()) || path == keep {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale descriptor", "path", path, "error", err)
		}
	}
}

func (m *Manager) exportFailed(opts types.ExportOptions, packageRoot string, err error) {
	logger.Error("export failed", "package", opts.Name, "root", packageRoot, "error", err)
	m.record(&history.Entry{
		Operation: history.OpExport,
		Package:   opts.Name,
		Category:  opts.Category.String(),
		Version:   opts.Version,
		Target:    packageRoot,
		Success:   false,
		Message:   err.Error(),
	})
	m.notify("Export failed: "+err.Error(), false)
}

// ValidateExport checks the export root and the options that shape the
// package root.
func ValidateExport(exportRoot string, opts types.ExportOptions) error {
	if exportRoot == "" {
		return fmt.Errorf("%w: export root is required", ErrInvalidOptions)
	}
	if err := validateSegment("name", opts.Name, true); err != nil {
		return err
	}
	if !opts.Category.Storable() {
		return fmt.Errorf("%w: category %q cannot be exported", ErrInvalidOptions, opts.Category)
	}
	if err := layout.ValidateSubfolder(opts.CustomFolder); err != nil {
		return fmt.Errorf("%w: custom folder: %w", ErrInvalidOptions, err)
	}
	return validateSegment("version", opts.Version, false)
}

// validateSegment checks a value that becomes exactly one path element.
func validateSegment(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%w: %s is required", ErrInvalidOptions, field)
		}
		return nil
	}
	if value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%w: %s %q must be a single path element", ErrInvalidOptions, field, value)
	}
	return nil
}
