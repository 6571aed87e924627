package pretty

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yaklabco/mdconvert/pkg/runner"
)

const (
	wordFile  = "file"
	wordFiles = "files"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "2 of 3 files converted (4 outputs: native 2, layout 2), 1 failed in 1.2s".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	if stats.FilesTotal == 0 {
		return s.Dim.Render("No files to convert.") + "\n"
	}

	var b strings.Builder

	converted := fmt.Sprintf("%d of %d %s converted",
		stats.FilesConverted, stats.FilesTotal, plural(stats.FilesTotal, wordFile, wordFiles))
	if stats.FilesFailed == 0 {
		b.WriteString(s.Success.Render(converted))
	} else {
		b.WriteString(s.SummaryTitle.Render(converted))
	}

	if stats.OutputsWritten > 0 {
		b.WriteString(s.Dim.Render(fmt.Sprintf(" (%d %s: %s)",
			stats.OutputsWritten, plural(stats.OutputsWritten, "output", "outputs"),
			formatBackendCounts(stats.ByBackend))))
	}

	if stats.FilesFailed > 0 {
		b.WriteString(", ")
		b.WriteString(s.Failure.Render(fmt.Sprintf("%d failed", stats.FilesFailed)))
	}

	if stats.Elapsed > 0 {
		b.WriteString(s.Dim.Render(" in " + stats.Elapsed.Round(time.Millisecond).String()))
	}

	b.WriteByte('\n')
	return b.String()
}

func formatBackendCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[name]))
	}
	return strings.Join(parts, ", ")
}
