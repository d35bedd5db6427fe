// Package fsutil provides the filesystem primitives the downloader relies on:
// directory creation, atomic replacement and timestamp handling.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureFileDir creates the parent directory of filePath if it doesn't exist.
func EnsureFileDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), DirModeDefault)
}

// EnsureStateDir is EnsureFileDir for configuration and metadata files.
func EnsureStateDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), DirModeSecure)
}

// ReplaceFile atomically replaces dst with src using rename. Both paths must
// be on the same filesystem; readers of dst see either the old or the new
// file, never a mix. There is no copy fallback.
func ReplaceFile(src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("source and destination paths cannot be empty")
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return nil
}

// Touch sets the access and modification time of path to t.
func Touch(path string, t time.Time) error {
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("failed to touch %s: %w", path, err)
	}
	return nil
}

// RemoveIfExists removes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Stat returns file info for path, reporting a missing file as (nil, nil).
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}
