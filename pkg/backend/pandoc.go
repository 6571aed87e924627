package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaklabco/mdconvert/internal/logging"
)

// NamePandoc is the external pandoc backend.
const NamePandoc = "pandoc"

// DefaultPandocTimeout bounds a single pandoc run.
const DefaultPandocTimeout = 2 * time.Minute

// CommandFunc runs an external command and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// PandocOptions configures the pandoc backend.
type PandocOptions struct {
	// Path is the executable name or path.
	Path string

	// TOC adds a table of contents.
	TOC bool

	// ExtraArgs are appended to every invocation.
	ExtraArgs []string

	// Timeout bounds each run; zero uses DefaultPandocTimeout.
	Timeout time.Duration
}

// Pandoc converts by running the pandoc executable.
type Pandoc struct {
	opts  PandocOptions
	avail Availability
	run   CommandFunc
}

// NewPandoc creates the pandoc backend.
func NewPandoc(opts PandocOptions, avail Availability) *Pandoc {
	if opts.Path == "" {
		opts.Path = NamePandoc
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPandocTimeout
	}
	return &Pandoc{opts: opts, avail: avail, run: runCommand}
}

// WithCommand replaces the command runner.
func (p *Pandoc) WithCommand(fn CommandFunc) *Pandoc {
	p.run = fn
	return p
}

// Name implements Backend.
func (p *Pandoc) Name() string { return NamePandoc }

// Check implements Backend. PDF output also needs a PDF engine.
func (p *Pandoc) Check(format Format) error {
	if !p.avail.Has(p.opts.Path) {
		return unavailable("%s not found on PATH", p.opts.Path)
	}
	if format == FormatPDF && p.avail.PDFEngine() == "" {
		return unavailable("pandoc needs a PDF engine (one of %s)", strings.Join(PDFEngines, ", "))
	}
	return nil
}

// Attempt implements Backend. Pandoc writes to a partial file that replaces
// the output only on success.
func (p *Pandoc) Attempt(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	partial := partialPath(job.Output)
	args := p.Args(job, partial)

	exe := p.avail.Path(p.opts.Path)
	if exe == "" {
		exe = p.opts.Path
	}

	logging.FromContext(ctx).Debug("running pandoc",
		logging.FieldTool, exe,
		logging.FieldArgs, strings.Join(args, " "))

	out, err := p.run(ctx, exe, args...)
	if err != nil {
		_ = os.Remove(partial)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("pandoc timed out after %s: %w", p.opts.Timeout, err)
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("pandoc: %w: %s", err, msg)
		}
		return fmt.Errorf("pandoc: %w", err)
	}

	if err := os.Rename(partial, job.Output); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("move pandoc output: %w", err)
	}
	return nil
}

// Args builds the pandoc command line for job writing to output.
func (p *Pandoc) Args(job Job, output string) []string {
	args := []string{job.Source.Path, "--from", "markdown", "--output", output, "--standalone"}
	if p.opts.TOC {
		args = append(args, "--toc")
	}
	switch job.Format {
	case FormatDOCX:
		args = append(args, "--to", "docx")
	case FormatPDF:
		if engine := p.avail.PDFEngine(); engine != "" {
			args = append(args, "--pdf-engine="+engine)
		}
	}
	return append(args, p.opts.ExtraArgs...)
}

// partialPath keeps the output extension so pandoc can infer the writer.
func partialPath(output string) string {
	dir, base := filepath.Split(output)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // the executable and arguments come from configuration
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
