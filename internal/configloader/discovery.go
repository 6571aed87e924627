package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yaklabco/mdconvert/pkg/fsutil"
)

const appName = "mdconvert"

// ConfigPaths are the config files found for one run. Empty fields mean no
// file at that layer.
type ConfigPaths struct {
	System   string // /etc/mdconvert/config.yaml
	User     string // $XDG_CONFIG_HOME/mdconvert/config.yaml
	Project  string // nearest .mdconvert.yml above the working directory
	Explicit string // --config
}

// ProjectConfigFiles are tried in each directory of the upward search, first
// match wins. The YAML decoder also reads the JSON form.
//
//nolint:gochecknoglobals // read-only
var ProjectConfigFiles = []string{
	".mdconvert.yml",
	".mdconvert.yaml",
	"mdconvert.yml",
	"mdconvert.yaml",
	".mdconvert.json",
}

//nolint:gochecknoglobals // read-only
var (
	dirConfigFiles = []string{"config.yaml", "config.yml"}
	vcsRootMarkers = []string{".git", ".hg", ".svn"}
)

// DiscoverPaths locates the system, user and project config files for a run
// in workDir.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover config: %w", err)
	}

	project, err := FindProjectConfig(ctx, workDir)
	if err != nil {
		return nil, err
	}

	return &ConfigPaths{
		System:  firstFile(systemConfigDir(), dirConfigFiles),
		User:    firstFile(UserConfigDir(), dirConfigFiles),
		Project: project,
	}, nil
}

func systemConfigDir() string {
	if runtime.GOOS != "windows" {
		return filepath.Join("/etc", appName)
	}
	if dir := os.Getenv("ProgramData"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(`C:\ProgramData`, appName)
}

// UserConfigDir follows XDG: $XDG_CONFIG_HOME/mdconvert, else
// ~/.config/mdconvert. It is "" when no home directory is known.
func UserConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// FindProjectConfig walks from startDir (the working directory when empty)
// towards the root and returns the first project config it sees. The walk
// ends without a result at a VCS root or the home directory.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		startDir = wd
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}
	home, _ := os.UserHomeDir()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("find project config: %w", err)
		}
		if path := firstFile(dir, ProjectConfigFiles); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir || dir == home || isVCSRoot(dir) {
			return "", nil
		}
		dir = parent
	}
}

// firstFile returns the first of names that is a regular file in dir.
func firstFile(dir string, names []string) string {
	if dir == "" {
		return ""
	}
	for _, name := range names {
		if path := filepath.Join(dir, name); fsutil.Exists(path) {
			return path
		}
	}
	return ""
}

func isVCSRoot(dir string) bool {
	for _, marker := range vcsRootMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
