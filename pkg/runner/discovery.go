package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/mdconvert/pkg/fsutil"
)

// Input is one resolved conversion input.
type Input struct {
	// Path is the absolute, cleaned file path.
	Path string

	// Arg is the path as the user or configuration gave it.
	Arg string

	// Err is set when the input cannot be converted, for example because it
	// does not exist. It is reported for that input only.
	Err error
}

// Resolve turns opts.Paths (or the configured inputs) into a list of inputs.
// Files keep the order they were given in; a directory expands in place to
// its Markdown files, sorted. Duplicates are dropped. A missing path is
// returned as an Input with Err set rather than failing the whole run.
func Resolve(ctx context.Context, opts Options) ([]Input, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	excludes, err := compileGlobs(opts.ExcludeGlobs)
	if err != nil {
		return nil, err
	}

	extensions := opts.effectiveExtensions()
	seen := make(map[string]struct{})
	var inputs []Input

	add := func(in Input) {
		if _, ok := seen[in.Path]; ok {
			return
		}
		seen[in.Path] = struct{}{}
		inputs = append(inputs, in)
	}

	for _, arg := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve cancelled: %w", err)
		}

		absPath := arg
		if !filepath.IsAbs(arg) {
			absPath = filepath.Join(workDir, arg)
		}
		absPath = filepath.Clean(absPath)

		info, statErr := os.Stat(absPath)
		switch {
		case os.IsNotExist(statErr):
			add(Input{Path: absPath, Arg: arg, Err: fmt.Errorf("%w: %s", fsutil.ErrNotFound, arg)})
		case statErr != nil:
			add(Input{Path: absPath, Arg: arg, Err: fmt.Errorf("stat %s: %w", arg, statErr)})
		case info.IsDir():
			files, err := walkDirectory(ctx, absPath, workDir, extensions, excludes)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				rel, relErr := filepath.Rel(workDir, f)
				if relErr != nil {
					rel = f
				}
				add(Input{Path: f, Arg: rel})
			}
		default:
			// An explicit file is converted whatever its extension.
			add(Input{Path: absPath, Arg: arg})
		}
	}

	return inputs, nil
}

func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// walkDirectory returns the Markdown files under root, sorted. Hidden entries
// and directory symlinks are skipped.
func walkDirectory(
	ctx context.Context,
	root string,
	workDir string,
	extensions []string,
	excludes []glob.Glob,
) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		relPath, relErr := filepath.Rel(workDir, path)
		if relErr != nil {
			relPath = path
		}

		if path != root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if path != root && excluded(relPath, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil || info.IsDir() {
				return nil //nolint:nilerr // broken links and directory links are skipped
			}
		}

		if hasMatchingExtension(path, extensions) && !excluded(relPath, excludes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func hasMatchingExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// excluded matches the slash-separated relative path, and the base name so
// that "CHANGELOG.md" excludes it at any depth.
func excluded(relPath string, excludes []glob.Glob) bool {
	relPath = filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, g := range excludes {
		if g.Match(relPath) || g.Match(base) || g.Match(relPath+"/") {
			return true
		}
	}
	return false
}
