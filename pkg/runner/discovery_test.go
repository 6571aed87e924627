package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdconvert/pkg/fsutil"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# x\n"), 0o644))
	}
}

func args(inputs []Input) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, filepath.ToSlash(in.Arg))
	}
	return out
}

func TestResolve_KeepsArgumentOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "b.md", "a.md", "notes.txt")

	inputs, err := Resolve(context.Background(), Options{
		Paths:      []string{"b.md", "a.md", "notes.txt", "./b.md"},
		WorkingDir: dir,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.md", "a.md", "notes.txt"}, args(inputs))
	assert.Equal(t, filepath.Join(dir, "b.md"), inputs[0].Path)
	for _, in := range inputs {
		assert.NoError(t, in.Err)
	}
}

func TestResolve_MissingIsPerInput(t *testing.T) {
	t.Parallel()

	inputs, err := Resolve(context.Background(), Options{
		Paths:      []string{"GONE.md"},
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.ErrorIs(t, inputs[0].Err, fsutil.ErrNotFound)
}

func TestResolve_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir,
		"docs/b.md",
		"docs/a.markdown",
		"docs/image.png",
		"docs/.hidden.md",
		"docs/.cache/c.md",
		"docs/drafts/wip.md",
		"docs/sub/CHANGELOG.md",
		"docs/sub/d.MD",
	)

	inputs, err := Resolve(context.Background(), Options{
		Paths:        []string{"docs"},
		WorkingDir:   dir,
		ExcludeGlobs: []string{"docs/drafts/**", "CHANGELOG.md"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/a.markdown", "docs/b.md", "docs/sub/d.MD"}, args(inputs))
}

func TestResolve_BadExclude(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), Options{
		Paths:        []string{"."},
		WorkingDir:   t.TempDir(),
		ExcludeGlobs: []string{"[a-"},
	})
	require.Error(t, err)
}

func TestExcluded(t *testing.T) {
	t.Parallel()

	globs, err := compileGlobs([]string{"vendor/**", "*.tmp.md"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"vendor", true},
		{"vendor/x/readme.md", true},
		{"docs/notes.tmp.md", true},
		{"docs/vendor.md", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, excluded(tt.path, globs), tt.path)
	}
}
