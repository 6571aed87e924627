package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/fsutil"
	"github.com/yaklabco/mdconvert/pkg/source"
)

// Runner drives the backend chain of each format over a list of inputs.
type Runner struct {
	// Chains holds one chain per output format.
	Chains map[backend.Format]*backend.Chain
}

// New creates a Runner from prepared chains.
func New(chains map[backend.Format]*backend.Chain) *Runner {
	return &Runner{Chains: chains}
}

// NewFromConfig builds the chain of every configured format. avail is the
// tool probe taken once at startup.
func NewFromConfig(cfg *config.Config, avail backend.Availability) (*Runner, error) {
	settings := SettingsFromConfig(cfg)
	chains := make(map[backend.Format]*backend.Chain, len(cfg.Formats))

	for _, name := range cfg.Formats {
		format, err := backend.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		chain, err := backend.NewChain(format, cfg.BackendsFor(name), settings, avail)
		if err != nil {
			return nil, fmt.Errorf("%s backends: %w", format, err)
		}
		chains[format] = chain
	}

	return New(chains), nil
}

// Run converts every resolved input in order. A failure is recorded on the
// input's outcome and the run moves on; the returned error is reserved for
// resolution problems and cancellation.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
		opts.Config = cfg
	}

	inputs, err := Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(inputs)),
		Stats: newStats(),
	}
	result.Stats.FilesTotal = len(inputs)

	formats, err := r.formats(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		if opts.Progress != nil {
			opts.Progress(input.Arg)
		}
		result.accumulate(r.convert(ctx, input, formats, opts))
	}
	result.Stats.Elapsed = time.Since(start)

	logging.FromContext(ctx).Debug("run complete",
		logging.FieldFilesTotal, result.Stats.FilesTotal,
		logging.FieldFilesConverted, result.Stats.FilesConverted,
		logging.FieldFilesFailed, result.Stats.FilesFailed,
		logging.FieldElapsed, result.Stats.Elapsed)

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	return result, nil
}

func (r *Runner) formats(cfg *config.Config) ([]backend.Format, error) {
	formats := make([]backend.Format, 0, len(cfg.Formats))
	for _, name := range cfg.Formats {
		format, err := backend.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if r.Chains[format] == nil {
			return nil, fmt.Errorf("%w: no chain for %s", backend.ErrNoBackend, format)
		}
		formats = append(formats, format)
	}
	return formats, nil
}

func (r *Runner) convert(ctx context.Context, input Input, formats []backend.Format, opts Options) FileOutcome {
	ctx = logging.WithFields(ctx, logging.FieldInput, input.Arg)
	logger := logging.FromContext(ctx)
	outcome := FileOutcome{Path: input.Path, Arg: input.Arg}

	if input.Err != nil {
		outcome.Error = input.Err
		return outcome
	}

	doc, err := source.Load(ctx, input.Path, source.Options{FrontMatter: opts.Config.Document.FrontMatter})
	if err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Title = doc.Title()

	if opts.Config.Audit {
		report, err := audit.New().Analyze(ctx, doc.Body)
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("audit: %v", err))
		} else {
			outcome.Audit = report
		}
	}

	backups := opts.backups()
	companion := ""

	for _, format := range formats {
		fo := r.produce(logging.WithFields(ctx, logging.FieldFormat, format), doc, format, companion, backups)
		if fo.OK() && format == backend.FormatDOCX {
			companion = fo.Output
		}
		outcome.Outputs = append(outcome.Outputs, fo)
		if errors.Is(fo.Err, context.Canceled) || errors.Is(fo.Err, context.DeadlineExceeded) {
			break
		}
	}

	if doc.Info != nil {
		modified, err := fsutil.CheckModified(ctx, doc.Info)
		switch {
		case err != nil:
			logger.Debug("could not recheck source", logging.FieldError, err)
		case modified:
			outcome.Warnings = append(outcome.Warnings,
				"source changed during conversion; outputs reflect the earlier content")
		}
	}

	return outcome
}

func (r *Runner) produce(
	ctx context.Context,
	doc *source.Document,
	format backend.Format,
	companion string,
	backups fsutil.BackupConfig,
) FormatOutcome {
	logger := logging.FromContext(ctx)
	fo := FormatOutcome{Format: format, Output: format.OutputPath(doc.Path)}

	backedUp, err := fsutil.CreateBackup(ctx, fo.Output, backups)
	if err != nil {
		logger.Warn("backup failed", logging.FieldOutput, fo.Output, logging.FieldError, err)
	}
	fo.BackedUp = backedUp

	start := time.Now()
	fo.Steps, fo.Err = r.Chains[format].Run(ctx, backend.Job{
		Source:    doc,
		Output:    fo.Output,
		Companion: companion,
	})
	fo.Elapsed = time.Since(start)

	for _, step := range fo.Steps {
		if step.OK() {
			fo.Backend = step.Backend
		}
	}

	if fo.Err != nil && backedUp {
		restored, err := fsutil.RestoreBackup(ctx, fo.Output, backups.Mode)
		if err != nil {
			logger.Warn("restore failed", logging.FieldBackup, fsutil.BackupPath(fo.Output, backups.Mode),
				logging.FieldError, err)
		}
		fo.Restored = restored
	}

	return fo
}
