// Package trash removes package directories, moving them to the system
// trash where one is available and deleting them permanently otherwise.
package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jamesainslie/vault/pkg/vault/logging"
)

// commandTimeout bounds each external trash command.
const commandTimeout = 30 * time.Second

// ErrEmptyPath is returned when asked to remove the empty path.
var ErrEmptyPath = errors.New("path cannot be empty")

// Remover removes a directory tree.
type Remover func(path string) error

// Remove removes path using the system trash, or permanently when permanent
// is set. A path that does not exist is already removed and is not an error.
func Remove(path string, permanent bool) error {
	if path == "" {
		return ErrEmptyPath
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("cannot remove %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	if permanent {
		return Delete(absPath)
	}
	return MoveToTrash(absPath)
}

// MoveToTrash moves an existing path to the system trash. On macOS it asks
// Finder; on Linux it tries gio and then trash-put. It deletes permanently
// when no trash is available.
func MoveToTrash(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		if run("osascript", "-e", script) == nil {
			return nil
		}
	case "linux":
		if run("gio", "trash", path) == nil {
			return nil
		}
		if run("trash-put", path) == nil {
			return nil
		}
	}

	logging.Get("trash").Debug("no system trash available, deleting", "path", path)
	return Delete(path)
}

// Delete permanently removes path and everything below it.
func Delete(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

func run(name string, args ...string) error {
	bin, err := exec.LookPath(name)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, bin, args...).Run()
}
