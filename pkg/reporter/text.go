package reporter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yaklabco/mdconvert/internal/ui/pretty"
	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	width  int
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		width:  min(pretty.TerminalWidth(opts.Writer), 60),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Progress implements Reporter. The line is flushed immediately so it shows
// while a slow backend runs.
func (r *TextReporter) Progress(path string) {
	fmt.Fprint(r.bw, r.styles.FormatStatusLine(0, pretty.StatusConverting, path))
	_ = r.bw.Flush()
}

// Report implements Reporter.
func (r *TextReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(runner.Stats{}))
		}
		return 0, nil
	}

	failed := 0
	for _, file := range result.Files {
		if !file.OK() {
			failed++
		}
		r.reportFile(file)
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.Divider(r.width))
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
	}

	return failed, nil
}

func (r *TextReporter) reportFile(file runner.FileOutcome) {
	s := r.styles
	fmt.Fprintln(r.bw, s.FilePath.Render(file.Arg))

	if file.Error != nil {
		fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusError, "cannot read input: "+file.Error.Error()))
		return
	}

	for _, out := range file.Outputs {
		r.reportOutput(out)
	}

	if tip := manualPDFTip(file, r.opts.WorkingDir); tip != "" {
		fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusTip, tip))
	}

	for _, warning := range file.Warnings {
		fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusWarning, warning))
	}

	if file.Audit != nil && !file.Audit.Lossless() {
		fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusWarning,
			"not carried over: "+FormatFindings(file.Audit.Findings)))
	}
}

func (r *TextReporter) reportOutput(out runner.FormatOutcome) {
	s := r.styles
	output := relPath(r.opts.WorkingDir, out.Output)

	if r.opts.ShowSteps {
		for _, step := range out.Steps {
			switch {
			case step.OK():
			case step.Skipped:
				fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusSkipped,
					s.Backend.Render(step.Backend)+": "+stepReason(step.Err)))
			default:
				fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusWarning,
					s.Backend.Render(step.Backend)+" failed"))
				fmt.Fprint(r.bw, s.FormatReason(3, step.Err.Error()))
			}
		}
	}

	if out.OK() {
		msg := fmt.Sprintf("%s %s", output, s.Dim.Render("via "+out.Backend))
		if out.BackedUp {
			msg += s.Dim.Render(" (previous kept as backup)")
		}
		fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusSuccess, msg))
		return
	}

	msg := fmt.Sprintf("could not create %s", output)
	if out.Restored {
		msg += "; previous output restored"
	}
	fmt.Fprint(r.bw, s.FormatStatusLine(1, pretty.StatusError, msg))
	if !r.opts.ShowSteps && out.Err != nil {
		fmt.Fprint(r.bw, s.FormatReason(3, out.Err.Error()))
	}
}

// stepReason drops the sentinel prefix from an availability error.
func stepReason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if errors.Is(err, backend.ErrUnavailable) {
		msg = strings.TrimPrefix(msg, backend.ErrUnavailable.Error()+": ")
	}
	return msg
}

// manualPDFTip suggests exporting the .docx by hand when PDF failed but the
// .docx exists.
func manualPDFTip(file runner.FileOutcome, workDir string) string {
	pdf, ok := file.Output(backend.FormatPDF)
	if !ok || pdf.OK() {
		return ""
	}
	docx, ok := file.Output(backend.FormatDOCX)
	if !ok || !docx.OK() {
		return ""
	}
	return fmt.Sprintf("Open %s, File -> Save As -> PDF", relPath(workDir, docx.Output))
}

// FormatFindings renders audit findings as "link x2 (line 3), image (line 5)".
func FormatFindings(findings []audit.Finding) string {
	sorted := make([]audit.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })

	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		name := strings.ReplaceAll(string(f.Construct), "_", " ")
		if f.Count > 1 {
			name = fmt.Sprintf("%s x%d", name, f.Count)
		}
		parts = append(parts, fmt.Sprintf("%s (line %d)", name, f.Line))
	}
	return strings.Join(parts, ", ")
}
