// Package reporter prints conversion results.
package reporter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yaklabco/mdconvert/pkg/runner"
)

// Reporter formats and writes conversion results.
type Reporter interface {
	// Progress is called as each input starts converting.
	Progress(path string)

	// Report writes formatted output for the given result.
	// It returns the number of inputs that were not fully converted and any
	// write error.
	Report(ctx context.Context, result *runner.Result) (int, error)
}

// New creates a Reporter for the specified options.
//
//nolint:ireturn // format is chosen at runtime
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatJSON:
		return NewJSONReporter(opts), nil
	case FormatText:
		return NewTextReporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// relPath shortens path against workDir when it lies inside it.
func relPath(workDir, path string) string {
	if workDir == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil || filepath.IsAbs(rel) || len(rel) >= 2 && rel[:2] == ".." {
		return path
	}
	return rel
}
