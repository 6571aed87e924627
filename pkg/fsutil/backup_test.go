package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdconvert/pkg/fsutil"
)

func TestBackupPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "out.docx.bak", fsutil.BackupPath("out.docx", fsutil.BackupModeSidecar))
	assert.Equal(t, "", fsutil.BackupPath("out.docx", fsutil.BackupModeNone))
	assert.Equal(t, "out.docx.bak", fsutil.BackupPath("out.docx", "unknown"))
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	enabled := fsutil.BackupConfig{Enabled: true, Mode: fsutil.BackupModeSidecar}

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.docx")
		require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

		created, err := fsutil.CreateBackup(ctx, path, fsutil.BackupConfig{Mode: fsutil.BackupModeSidecar})
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("missing output", func(t *testing.T) {
		t.Parallel()

		created, err := fsutil.CreateBackup(ctx, filepath.Join(t.TempDir(), "out.docx"), enabled)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("overwrites previous backup", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.docx")
		require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
		_, err := fsutil.CreateBackup(ctx, path, enabled)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
		created, err := fsutil.CreateBackup(ctx, path, enabled)
		require.NoError(t, err)
		assert.True(t, created)

		got, err := os.ReadFile(path + fsutil.BackupSuffix)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(got))
	})
}

func TestRestoreBackup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.pdf")

	restored, err := fsutil.RestoreBackup(ctx, path, fsutil.BackupModeSidecar)
	require.NoError(t, err)
	assert.False(t, restored)

	require.NoError(t, os.WriteFile(path+fsutil.BackupSuffix, []byte("good"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("truncat"), 0o644))

	restored, err = fsutil.RestoreBackup(ctx, path, fsutil.BackupModeSidecar)
	require.NoError(t, err)
	assert.True(t, restored)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "good", string(got))
	assert.NoFileExists(t, path+fsutil.BackupSuffix)
}
