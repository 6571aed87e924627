package reporter

import (
	"io"
	"os"
)

const bufWriterSize = 64 << 10

// Options controls what a Reporter writes and where.
type Options struct {
	Writer io.Writer
	Format Format

	// Color is "auto", "always" or "never".
	Color string

	// ShowSteps lists every backend attempt. When false only the winning
	// backend, or the last failure, is shown for each output.
	ShowSteps   bool
	ShowSummary bool

	// Compact drops JSON indentation.
	Compact bool

	// WorkingDir, when set, makes reported paths relative to it.
	WorkingDir string
}

// DefaultOptions is styled text on stdout with steps and summary shown.
func DefaultOptions() Options {
	return Options{
		Writer:      os.Stdout,
		Format:      FormatText,
		Color:       "auto",
		ShowSteps:   true,
		ShowSummary: true,
	}
}
