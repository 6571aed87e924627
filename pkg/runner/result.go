package runner

import (
	"time"

	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/backend"
)

// FormatOutcome is the result of producing one output format for one input.
type FormatOutcome struct {
	Format backend.Format

	// Output is the path the chain wrote, or would have written.
	Output string

	// Steps records every backend the chain considered, in order.
	Steps []backend.Step

	// Backend names the backend that succeeded; empty on failure.
	Backend string

	// Err is set when no backend produced the output.
	Err error

	// BackedUp is true when an existing output was copied aside first.
	BackedUp bool

	// Restored is true when that copy was put back after a failure.
	Restored bool

	Elapsed time.Duration
}

// OK reports whether the output was written.
func (o FormatOutcome) OK() bool {
	return o.Err == nil
}

// FileOutcome collects everything that happened to one input.
type FileOutcome struct {
	// Path is the absolute input path.
	Path string

	// Arg is the input as it was given.
	Arg string

	// Title is the document title from front matter or the file name.
	Title string

	// Outputs has one entry per configured format, in order.
	Outputs []FormatOutcome

	// Audit is set when auditing was requested.
	Audit *audit.Report

	// Warnings are non-fatal problems, such as the source changing while it
	// was converted.
	Warnings []string

	// Error is set if the input could not be read; no outputs were attempted.
	Error error
}

// OK reports whether the input was read and every format was produced.
func (f FileOutcome) OK() bool {
	if f.Error != nil {
		return false
	}
	for _, o := range f.Outputs {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Output returns the outcome for format, if it was attempted.
func (f FileOutcome) Output(format backend.Format) (FormatOutcome, bool) {
	for _, o := range f.Outputs {
		if o.Format == format {
			return o, true
		}
	}
	return FormatOutcome{}, false
}

// Stats captures aggregate information about a run.
type Stats struct {
	// FilesTotal is the number of resolved inputs.
	FilesTotal int

	// FilesConverted is the number of inputs with every format produced.
	FilesConverted int

	// FilesFailed is the number of inputs that were unreadable or missing at
	// least one format.
	FilesFailed int

	// OutputsWritten and OutputsFailed count individual format outcomes.
	OutputsWritten int
	OutputsFailed  int

	// ByBackend counts successful outputs per backend name.
	ByBackend map[string]int

	Elapsed time.Duration
}

// Result is the overall runner result.
type Result struct {
	// Files contains the outcome for each input, in input order.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats
}

// HasFailures reports whether any input was not fully converted.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.FilesFailed > 0
}

func newStats() Stats {
	return Stats{ByBackend: make(map[string]int)}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.OK() {
		r.Stats.FilesConverted++
	} else {
		r.Stats.FilesFailed++
	}

	for _, o := range outcome.Outputs {
		if o.OK() {
			r.Stats.OutputsWritten++
			r.Stats.ByBackend[o.Backend]++
		} else {
			r.Stats.OutputsFailed++
		}
	}
}
