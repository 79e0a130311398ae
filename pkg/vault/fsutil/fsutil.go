// Package fsutil holds the directory walking and small file helpers shared
// by the vault packages.
package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// WalkError records a path that could not be read during a walk.
type WalkError struct {
	Path  string
	Error string
}

// FindFiles returns every regular file below root whose base name satisfies
// match, in lexical order. Unreadable entries are reported, not fatal. A
// missing root is an error.
func FindFiles(ctx context.Context, root string, match func(name string) bool) ([]string, []WalkError, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot walk %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("cannot walk %q: not a directory", root)
	}

	var (
		mu     sync.Mutex
		files  []string
		errs   []WalkError
		conf   = fastwalk.Config{Follow: false, NumWorkers: 1}
		cancel = ctx.Done()
	)

	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-cancel:
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			mu.Lock()
			errs = append(errs, WalkError{Path: path, Error: walkErr.Error()})
			mu.Unlock()
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !match(d.Name()) {
			return nil
		}

		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, fastwalk.SkipDir) {
		return nil, errs, walkErr
	}

	slices.Sort(files)
	return files, errs, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DirSize returns the total size of the regular files below root.
func DirSize(ctx context.Context, root string) (int64, error) {
	files, _, err := FindFiles(ctx, root, func(string) bool { return true })
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		if info, err := os.Lstat(f); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}
