//go:build unix

package transfer

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// ensureWritable adds the owner write bit to an existing file that the
// process cannot write.
func ensureWritable(path string) error {
	err := unix.Access(path, unix.W_OK)
	if err == nil || errors.Is(err, unix.ENOENT) {
		return nil
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return statErr
	}
	return os.Chmod(path, info.Mode().Perm()|0o200)
}
