// Package backend defines the conversion strategies tried for each output
// format and the driver that walks them in preference order.
package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yaklabco/mdconvert/pkg/source"
)

var (
	// ErrUnavailable marks a backend that cannot run on this machine or for
	// the requested format. The chain skips it.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNoBackend is returned when every backend in a chain failed or was
	// skipped.
	ErrNoBackend = errors.New("no backend succeeded")

	// ErrUnknownBackend is returned for a backend name that is not registered.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// Format is an output document format.
type Format string

// Supported output formats.
const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats in conversion order. DOCX comes first
// so a PDF step can start from the freshly written document.
func Formats() []Format {
	return []Format{FormatDOCX, FormatPDF}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatDOCX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: docx, pdf)", ErrUnknownFormat, s)
	}
}

// OutputPath replaces the extension of input with the format's.
func (f Format) OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(f)
}

// Job is one conversion request handed to a backend.
type Job struct {
	Source *source.Document
	Format Format
	Output string

	// Companion is the .docx written earlier in the same run, if any. The
	// PDF layout backend renders from it when present.
	Companion string
}

// Backend is a single conversion strategy.
type Backend interface {
	// Name identifies the backend in configuration and reports.
	Name() string

	// Check returns nil when the backend can produce format on this machine,
	// or an error wrapping ErrUnavailable explaining why not.
	Check(format Format) error

	// Attempt performs the conversion. It either writes Job.Output or
	// returns the reason it could not.
	Attempt(ctx context.Context, job Job) error
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
