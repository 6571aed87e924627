package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/reporter"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    reporter.Format
		wantErr bool
	}{
		{input: "", want: reporter.FormatText},
		{input: "text", want: reporter.FormatText},
		{input: "json", want: reporter.FormatJSON},
		{input: "sarif", wantErr: true},
	}

	for _, tt := range tests {
		got, err := reporter.ParseFormat(tt.input)
		if tt.wantErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.True(t, got.IsValid())
	}
	assert.False(t, reporter.Format("xml").IsValid())
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := reporter.New(reporter.Options{Writer: &bytes.Buffer{}, Format: reporter.FormatJSON})
	require.NoError(t, err)
	assert.IsType(t, &reporter.JSONReporter{}, r)

	r, err = reporter.New(reporter.Options{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.IsType(t, &reporter.TextReporter{}, r)

	_, err = reporter.New(reporter.Options{Format: "table"})
	require.Error(t, err)
}

// sampleResult has one fully converted input, one whose PDF failed and one
// missing input.
func sampleResult() *runner.Result {
	unavailable := fmt.Errorf("%w: pandoc not found on PATH", backend.ErrUnavailable)
	layoutErr := errors.New("layout: document has no content")

	return &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path:  "/work/REPORT.md",
				Arg:   "REPORT.md",
				Title: "Report",
				Outputs: []runner.FormatOutcome{
					{
						Format: backend.FormatDOCX, Output: "/work/REPORT.docx", Backend: "native",
						Steps: []backend.Step{
							{Backend: "pandoc", Err: unavailable, Skipped: true},
							{Backend: "native", Elapsed: 20 * time.Millisecond},
						},
						Elapsed: 20 * time.Millisecond,
					},
					{
						Format: backend.FormatPDF, Output: "/work/REPORT.pdf", Backend: "layout",
						Steps: []backend.Step{{Backend: "layout"}},
					},
				},
			},
			{
				Path:  "/work/EMPTY.md",
				Arg:   "EMPTY.md",
				Title: "Empty",
				Outputs: []runner.FormatOutcome{
					{
						Format: backend.FormatDOCX, Output: "/work/EMPTY.docx", Backend: "native",
						Steps: []backend.Step{{Backend: "native"}},
					},
					{
						Format: backend.FormatPDF, Output: "/work/EMPTY.pdf",
						Steps:  []backend.Step{{Backend: "layout", Err: layoutErr}},
						Err:    fmt.Errorf("%w for pdf: %w", backend.ErrNoBackend, layoutErr),
					},
				},
				Warnings: []string{"source changed during conversion; outputs reflect the earlier content"},
				Audit: &audit.Report{Findings: []audit.Finding{
					{Construct: audit.ConstructImage, Line: 9, Count: 1},
					{Construct: audit.ConstructLink, Line: 3, Count: 2},
				}},
			},
			{
				Path:  "/work/GONE.md",
				Arg:   "GONE.md",
				Error: errors.New("file not found: GONE.md"),
			},
		},
		Stats: runner.Stats{
			FilesTotal: 3, FilesConverted: 1, FilesFailed: 2,
			OutputsWritten: 3, OutputsFailed: 1,
			ByBackend: map[string]int{"native": 2, "layout": 1},
		},
	}
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	opts := reporter.DefaultOptions()
	opts.Writer = &buf
	opts.Color = "never"
	opts.WorkingDir = "/work"

	r := reporter.NewTextReporter(opts)
	r.Progress("REPORT.md")
	failed, err := r.Report(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 2, failed)

	out := buf.String()
	for _, want := range []string{
		"[CONVERTING] REPORT.md\n",
		"  [SKIPPED] pandoc: pandoc not found on PATH\n",
		"  [SUCCESS] REPORT.docx via native\n",
		"  [SUCCESS] REPORT.pdf via layout\n",
		"  [WARNING] layout failed\n",
		"      layout: document has no content\n",
		"  [ERROR] could not create EMPTY.pdf\n",
		"  [TIP] Open EMPTY.docx, File -> Save As -> PDF\n",
		"  [WARNING] source changed during conversion",
		"  [WARNING] not carried over: link x2 (line 3), image (line 9)\n",
		"  [ERROR] cannot read input: file not found: GONE.md\n",
		"1 of 3 files converted (3 outputs: layout 1, native 2), 2 failed\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "[TIP] Open REPORT.docx")
}

func TestTextReporter_HideSteps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})
	_, err := r.Report(context.Background(), sampleResult())
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "[SKIPPED]")
	assert.Contains(t, out, "no backend succeeded for pdf")
	assert.Contains(t, out, "[SUCCESS] /work/REPORT.docx via native")
}

func TestTextReporter_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})
	failed, err := r.Report(context.Background(), &runner.Result{})
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, "No files to convert.\n", buf.String())
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := reporter.NewJSONReporter(reporter.Options{Writer: &buf, WorkingDir: "/work"})
	r.Progress("ignored")
	failed, err := r.Report(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 2, failed)

	var out reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "1.0.0", out.Version)
	require.Len(t, out.Files, 3)

	first := out.Files[0]
	assert.True(t, first.OK)
	assert.Equal(t, "REPORT.md", first.Path)
	require.Len(t, first.Outputs, 2)
	assert.Equal(t, "REPORT.docx", first.Outputs[0].Output)
	assert.Equal(t, "native", first.Outputs[0].Backend)
	assert.Equal(t, int64(20), first.Outputs[0].ElapsedMS)
	require.Len(t, first.Outputs[0].Steps, 2)
	assert.True(t, first.Outputs[0].Steps[0].Skipped)
	assert.Contains(t, first.Outputs[0].Steps[0].Error, "pandoc not found")

	second := out.Files[1]
	assert.False(t, second.OK)
	assert.Equal(t, "Open EMPTY.docx, File -> Save As -> PDF", second.Tip)
	require.NotNil(t, second.Audit)
	assert.Len(t, second.Audit.Findings, 2)
	assert.Contains(t, second.Outputs[1].Error, "no backend succeeded")

	assert.Equal(t, "file not found: GONE.md", out.Files[2].Error)
	assert.Empty(t, out.Files[2].Outputs)

	assert.Equal(t, 3, out.Summary.FilesTotal)
	assert.Equal(t, 2, out.Summary.ByBackend["native"])
}

func TestJSONReporter_Compact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := reporter.NewJSONReporter(reporter.Options{Writer: &buf, Compact: true})
	_, err := r.Report(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"files":[]`)
}

func TestFormatFindings(t *testing.T) {
	t.Parallel()

	got := reporter.FormatFindings([]audit.Finding{
		{Construct: audit.ConstructNestedList, Line: 8, Count: 3},
		{Construct: audit.ConstructHTML, Line: 2, Count: 1},
	})
	assert.Equal(t, "html (line 2), nested list x3 (line 8)", got)
	assert.Empty(t, reporter.FormatFindings(nil))
}
