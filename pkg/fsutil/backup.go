package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupMode says where the previous output is kept before it is replaced.
type BackupMode string

const (
	BackupModeSidecar BackupMode = "sidecar"
	BackupModeNone    BackupMode = "none"
)

// BackupSuffix names a sidecar backup: report.pdf -> report.pdf.bak.
const BackupSuffix = ".bak"

type BackupConfig struct {
	Enabled bool
	Mode    BackupMode
}

// BackupPath is where the backup of path lives, or "" for BackupModeNone.
// Unknown modes fall back to a sidecar.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// CreateBackup copies the output at path aside before it is overwritten,
// replacing any older backup. A missing output is not an error; the bool
// reports whether a copy was made.
func CreateBackup(ctx context.Context, path string, cfg BackupConfig) (bool, error) {
	backupPath := BackupPath(path, cfg.Mode)
	if !cfg.Enabled || backupPath == "" {
		return false, nil
	}

	copied, err := copyAtomic(ctx, path, backupPath)
	if err != nil {
		return false, fmt.Errorf("back up %s: %w", path, err)
	}
	return copied, nil
}

// RestoreBackup moves the backup of path back over it. It reports false when
// no backup exists.
func RestoreBackup(ctx context.Context, path string, mode BackupMode) (bool, error) {
	backupPath := BackupPath(path, mode)
	if backupPath == "" {
		return false, nil
	}

	copied, err := copyAtomic(ctx, backupPath, path)
	if err != nil || !copied {
		if err != nil {
			err = fmt.Errorf("restore %s: %w", path, err)
		}
		return false, err
	}

	if err := os.Remove(backupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, fmt.Errorf("remove backup: %w", err)
	}
	return true, nil
}

// copyAtomic copies src over dst keeping src's permissions. It returns
// false without error when src does not exist.
func copyAtomic(ctx context.Context, src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	if err := WriteAtomic(ctx, dst, content, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
