// Package transfer plans and executes payload copies between a project
// content root and a package root, in either direction.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var logger = logging.Get("transfer")

// Copy is a single source to destination file mapping.
type Copy struct {
	Source string
	Dest   string
}

// Item is one primary payload file and the auxiliary files that travel
// with it.
type Item struct {
	Primary   Copy
	Auxiliary []Copy
}

// Plan is an ordered list of items to transfer.
type Plan struct {
	Items []Item
}

// Files returns the number of files in the plan.
func (p Plan) Files() int {
	n := 0
	for _, it := range p.Items {
		n += 1 + len(it.Auxiliary)
	}
	return n
}

// Skip explains why a package id contributed nothing to an export plan.
type Skip struct {
	ID     types.PackageID
	Reason string
}

// PlanExport maps each package id onto its payload files below contentRoot
// and their destinations below destRoot. Ids without a primary payload on
// disk are reported as skips.
func PlanExport(contentRoot string, mount types.Mount, fileSet types.FileSet, ids []types.PackageID, destRoot string) (Plan, []Skip) {
	var (
		plan  Plan
		skips []Skip
	)

	for _, id := range ids {
		primary, ok := layout.PayloadPath(contentRoot, mount, id, fileSet.Primary)
		if !ok {
			skips = append(skips, Skip{ID: id, Reason: "outside project mount"})
			continue
		}
		if !fsutil.Exists(primary) {
			logger.Warn("payload not found, skipping", "id", id, "path", primary)
			skips = append(skips, Skip{ID: id, Reason: "payload not found"})
			continue
		}

		item, err := itemFor(primary, contentRoot, destRoot, fileSet)
		if err != nil {
			skips = append(skips, Skip{ID: id, Reason: err.Error()})
			continue
		}
		plan.Items = append(plan.Items, item)
	}

	return plan, skips
}

// PlanImport maps every primary payload below sourceRoot, plus its existing
// auxiliary files, onto the same relative paths below destRoot.
func PlanImport(ctx context.Context, sourceRoot, destRoot string, fileSet types.FileSet) (Plan, error) {
	primaries, walkErrs, err := fsutil.FindFiles(ctx, sourceRoot, fileSet.IsPrimary)
	if err != nil {
		return Plan{}, err
	}
	for _, we := range walkErrs {
		logger.Warn("unreadable entry in package", "path", we.Path, "error", we.Error)
	}

	var plan Plan
	for _, primary := range primaries {
		item, err := itemFor(primary, sourceRoot, destRoot, fileSet)
		if err != nil {
			return Plan{}, err
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

func itemFor(primary, fromRoot, toRoot string, fileSet types.FileSet) (Item, error) {
	dest, err := rebase(primary, fromRoot, toRoot)
	if err != nil {
		return Item{}, err
	}

	item := Item{Primary: Copy{Source: primary, Dest: dest}}
	for _, aux := range fileSet.Companions(primary) {
		if !fsutil.Exists(aux) {
			continue
		}
		auxDest, err := rebase(aux, fromRoot, toRoot)
		if err != nil {
			return Item{}, err
		}
		item.Auxiliary = append(item.Auxiliary, Copy{Source: aux, Dest: auxDest})
	}
	return item, nil
}

// rebase maps path below fromRoot onto the same relative path below toRoot.
func rebase(path, fromRoot, toRoot string) (string, error) {
	rel, err := filepath.Rel(fromRoot, path)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %q: %w", path, err)
	}
	if err := layout.ValidateSubfolder(filepath.ToSlash(rel)); err != nil {
		return "", err
	}
	return filepath.Join(toRoot, rel), nil
}

// CopyFunc copies src to dst and returns the number of bytes written.
type CopyFunc func(src, dst string) (int64, error)

// Options controls Execute.
type Options struct {
	// Force overwrites existing destination files and enables the raw-bytes
	// fallback when the primary copy fails.
	Force bool

	// OnReplace is called once per item, before an existing destination
	// primary is overwritten.
	OnReplace func(dest string)
}

// Failure records a file that could not be copied.
type Failure struct {
	Source   string
	Dest     string
	Err      error
	Fallback bool
}

// Result summarizes an executed plan.
type Result struct {
	Copied   []string
	Skipped  []string
	Replaced []string
	Failures []Failure
	Bytes    int64
}

// Engine executes transfer plans.
type Engine struct {
	copy CopyFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithCopyFunc replaces the primary copy strategy.
func WithCopyFunc(fn CopyFunc) Option {
	return func(e *Engine) {
		e.copy = fn
	}
}

// NewEngine returns an Engine using a streaming copy by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{copy: StreamCopy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the plan. A directory that cannot be created aborts the run
// with an error; per-file copy problems are collected in the result.
func (e *Engine) Execute(ctx context.Context, plan Plan, opts Options) (*Result, error) {
	res := &Result{}

	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := os.MkdirAll(filepath.Dir(item.Primary.Dest), 0o755); err != nil {
			return res, fmt.Errorf("failed to create directory for %q: %w", item.Primary.Dest, err)
		}

		exists := fsutil.Exists(item.Primary.Dest)
		if exists && !opts.Force {
			logger.Debug("destination exists, skipping", "dest", item.Primary.Dest)
			res.Skipped = append(res.Skipped, item.Primary.Dest)
			for _, aux := range item.Auxiliary {
				res.Skipped = append(res.Skipped, aux.Dest)
			}
			continue
		}

		if exists {
			if opts.OnReplace != nil {
				opts.OnReplace(item.Primary.Dest)
			}
			res.Replaced = append(res.Replaced, item.Primary.Dest)
		}

		if !e.transfer(item.Primary, opts.Force, res) {
			continue
		}

		for _, aux := range item.Auxiliary {
			if !opts.Force && fsutil.Exists(aux.Dest) {
				res.Skipped = append(res.Skipped, aux.Dest)
				continue
			}
			e.transfer(aux, opts.Force, res)
		}
	}

	return res, nil
}

// transfer copies one file, falling back to a raw read and write when force
// is set. It reports whether the file landed.
func (e *Engine) transfer(c Copy, force bool, res *Result) bool {
	n, err := e.copy(c.Source, c.Dest)
	if err == nil {
		res.Copied = append(res.Copied, c.Dest)
		res.Bytes += n
		return true
	}

	if !force {
		logger.Warn("copy failed", "source", c.Source, "dest", c.Dest, "error", err)
		res.Failures = append(res.Failures, Failure{Source: c.Source, Dest: c.Dest, Err: err})
		return false
	}

	logger.Debug("copy failed, trying raw fallback", "source", c.Source, "error", err)
	n, ferr := RawCopy(c.Source, c.Dest)
	if ferr != nil {
		logger.Error("fallback copy failed", "source", c.Source, "dest", c.Dest, "error", ferr)
		res.Failures = append(res.Failures, Failure{Source: c.Source, Dest: c.Dest, Err: ferr, Fallback: true})
		return false
	}

	res.Copied = append(res.Copied, c.Dest)
	res.Bytes += n
	return true
}

// StreamCopy copies src into a temporary file next to dst and renames it into
// place, so a failed copy leaves any existing dst untouched.
func StreamCopy(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, in)
	if err == nil {
		err = tmp.Chmod(info.Mode().Perm())
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpPath, dst)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return n, nil
}

// RawCopy reads all of src and writes it to dst, first making an existing
// read-only dst writable.
func RawCopy(src, dst string) (int64, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read %q: %w", src, err)
	}
	if err := ensureWritable(dst); err != nil {
		return 0, fmt.Errorf("failed to make %q writable: %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %q: %w", dst, err)
	}
	return int64(len(data)), nil
}
