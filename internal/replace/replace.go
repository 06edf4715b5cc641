// Package replace performs the atomic two-step swap that puts an encoded
// temp output in place of its source (spec.md §4.10). No step in here
// yields to the scheduler: a replacement runs to completion or to rollback
// without interruption, since a cancellation mid-swap could otherwise leave
// both S and its backup in an ambiguous state.
package replace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrCrossDevice signals a rename crossed filesystem boundaries; callers
// fall back to copy-then-unlink automatically, this is exported only so
// tests can assert on the path taken.
var ErrCrossDevice = errors.New("cross-device rename")

// now is overridable in tests so the backup suffix is deterministic.
var now = time.Now

// Result records what happened to the backup after a swap.
type Result struct {
	BackupPath    string
	BackupDeleted bool
}

// Swap replaces sourcePath with tempOutputPath:
//  1. rename sourcePath -> sourcePath.orig.<epoch>
//  2. rename tempOutputPath -> sourcePath
//
// If step 1 fails with a cross-device error, copy-then-unlink is used
// instead, with byte-count verification before the unlink. The same
// fallback applies to step 2. If step 2 fails after step 1 succeeded, the
// backup is renamed back over sourcePath before returning an error — the
// original is never left missing.
func Swap(sourcePath, tempOutputPath string, keepOriginal bool) (*Result, error) {
	backupPath := fmt.Sprintf("%s.orig.%d", sourcePath, now().Unix())

	if err := moveWithFallback(sourcePath, backupPath); err != nil {
		return nil, fmt.Errorf("replace: backup source: %w", err)
	}

	if err := moveWithFallback(tempOutputPath, sourcePath); err != nil {
		if rollbackErr := moveWithFallback(backupPath, sourcePath); rollbackErr != nil {
			return nil, fmt.Errorf("replace: install output failed (%v) AND rollback failed (%v); backup left at %s", err, rollbackErr, backupPath)
		}
		return nil, fmt.Errorf("replace: install output failed, rolled back: %w", err)
	}

	result := &Result{BackupPath: backupPath}
	if !keepOriginal {
		if err := os.Remove(backupPath); err != nil {
			return result, fmt.Errorf("replace: swap succeeded but removing backup failed: %w", err)
		}
		result.BackupDeleted = true
	}
	return result, nil
}

// moveWithFallback renames src to dst, falling back to copy-then-unlink
// (with byte-count verification) when the rename crosses a filesystem
// boundary.
func moveWithFallback(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	return copyThenUnlink(src, dst)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

func copyThenUnlink(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat source: %v", ErrCrossDevice, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open source: %v", ErrCrossDevice, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create dest: %v", ErrCrossDevice, err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: copy: %v", ErrCrossDevice, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("%w: close dest: %v", ErrCrossDevice, err)
	}

	if written != srcInfo.Size() {
		os.Remove(dst)
		return fmt.Errorf("%w: byte count mismatch: copied %d, source is %d", ErrCrossDevice, written, srcInfo.Size())
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("%w: unlink source after verified copy: %v", ErrCrossDevice, err)
	}
	return nil
}

// BackupGlob returns the glob pattern matching every backup left behind for
// sourcePath, for callers that want to sweep stale backups.
func BackupGlob(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), filepath.Base(sourcePath)+".orig.*")
}
