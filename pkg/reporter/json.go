package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single input's results.
type JSONFileResult struct {
	Path     string        `json:"path"`
	Title    string        `json:"title,omitempty"`
	OK       bool          `json:"ok"`
	Outputs  []JSONOutcome `json:"outputs"`
	Warnings []string      `json:"warnings,omitempty"`
	Tip      string        `json:"tip,omitempty"`
	Audit    *audit.Report `json:"audit,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// JSONOutcome represents one output format.
type JSONOutcome struct {
	Format    string     `json:"format"`
	Output    string     `json:"output"`
	OK        bool       `json:"ok"`
	Backend   string     `json:"backend,omitempty"`
	Error     string     `json:"error,omitempty"`
	BackedUp  bool       `json:"backedUp,omitempty"`
	Restored  bool       `json:"restored,omitempty"`
	ElapsedMS int64      `json:"elapsedMs"`
	Steps     []JSONStep `json:"steps"`
}

// JSONStep represents one backend attempt.
type JSONStep struct {
	Backend   string `json:"backend"`
	OK        bool   `json:"ok"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesTotal     int            `json:"filesTotal"`
	FilesConverted int            `json:"filesConverted"`
	FilesFailed    int            `json:"filesFailed"`
	OutputsWritten int            `json:"outputsWritten"`
	OutputsFailed  int            `json:"outputsFailed"`
	ByBackend      map[string]int `json:"byBackend"`
	ElapsedMS      int64          `json:"elapsedMs"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Progress implements Reporter; JSON output is written once at the end.
func (r *JSONReporter) Progress(string) {}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.FilesFailed, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: "1.0.0",
		Files:   make([]JSONFileResult, 0),
		Summary: JSONSummary{ByBackend: make(map[string]int)},
	}

	if result == nil {
		return output
	}

	output.Summary = JSONSummary{
		FilesTotal:     result.Stats.FilesTotal,
		FilesConverted: result.Stats.FilesConverted,
		FilesFailed:    result.Stats.FilesFailed,
		OutputsWritten: result.Stats.OutputsWritten,
		OutputsFailed:  result.Stats.OutputsFailed,
		ByBackend:      result.Stats.ByBackend,
		ElapsedMS:      millis(result.Stats.Elapsed),
	}
	if output.Summary.ByBackend == nil {
		output.Summary.ByBackend = make(map[string]int)
	}

	for _, file := range result.Files {
		fileResult := JSONFileResult{
			Path:     file.Arg,
			Title:    file.Title,
			OK:       file.OK(),
			Outputs:  make([]JSONOutcome, 0, len(file.Outputs)),
			Warnings: file.Warnings,
			Tip:      manualPDFTip(file, r.opts.WorkingDir),
			Audit:    file.Audit,
		}
		if file.Error != nil {
			fileResult.Error = file.Error.Error()
		}

		for _, out := range file.Outputs {
			fileResult.Outputs = append(fileResult.Outputs, buildOutcome(out, r.opts.WorkingDir))
		}

		output.Files = append(output.Files, fileResult)
	}

	return output
}

func buildOutcome(out runner.FormatOutcome, workDir string) JSONOutcome {
	outcome := JSONOutcome{
		Format:    string(out.Format),
		Output:    relPath(workDir, out.Output),
		OK:        out.OK(),
		Backend:   out.Backend,
		BackedUp:  out.BackedUp,
		Restored:  out.Restored,
		ElapsedMS: millis(out.Elapsed),
		Steps:     make([]JSONStep, 0, len(out.Steps)),
	}
	if out.Err != nil {
		outcome.Error = out.Err.Error()
	}

	for _, step := range out.Steps {
		js := JSONStep{
			Backend:   step.Backend,
			OK:        step.OK(),
			Skipped:   step.Skipped,
			ElapsedMS: millis(step.Elapsed),
		}
		if step.Err != nil {
			js.Error = step.Err.Error()
		}
		outcome.Steps = append(outcome.Steps, js)
	}

	return outcome
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
