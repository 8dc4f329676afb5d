// Package filex holds filesystem helpers shared by the sync engine: content
// hashing, atomic replacement of save files, and directory management.
package filex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// HashFile returns the hex-encoded SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex-encoded SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// EnsureDir creates dir (and parents) if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// TempFileNear creates a temp file in the same directory as dst so that a
// later rename stays on one filesystem and is atomic.
func TempFileNear(dst string) (*os.File, error) {
	dir := filepath.Dir(dst)
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return nil, fmt.Errorf("create temp near %s: %w", dst, err)
	}
	return f, nil
}

// ReplaceFile atomically moves src over dst. Callers are expected to have
// fully written and closed src first. On failure src is removed.
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		_ = os.Remove(src)
		return fmt.Errorf("rename %s -> %s: %w", src, dst, err)
	}
	return nil
}
