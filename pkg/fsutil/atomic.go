package fsutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileMode is used when a write is given mode 0.
const DefaultFileMode os.FileMode = 0o644

// WriteAtomic replaces path with content. The bytes go to a temp file in the
// same directory which is synced and renamed over path, so readers see the
// old file or the new one and never a partial write.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if mode == 0 {
		mode = DefaultFileMode
	}

	tmpPath, err := writeTemp(path, content, mode)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// writeTemp leaves nothing behind on failure.
func writeTemp(path string, content []byte, mode os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	err = errors.Join(
		writeAll(tmp, content),
		tmp.Sync(),
		tmp.Close(),
		os.Chmod(tmp.Name(), mode),
	)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file for %s: %w", path, err)
	}
	return tmp.Name(), nil
}

func writeAll(f *os.File, content []byte) error {
	_, err := f.Write(content)
	return err
}

// WriteAtomicIfChanged is WriteAtomic that skips the write when path already
// holds content. It reports whether it wrote.
func WriteAtomicIfChanged(ctx context.Context, path string, content []byte, mode os.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if err := WriteAtomic(ctx, path, content, mode); err != nil {
		return false, err
	}
	return true, nil
}
