// Package pretty renders styled console output with lipgloss.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const defaultTermWidth = 80

// ANSI palette indexes.
const (
	colorRed     = lipgloss.Color("9")
	colorGreen   = lipgloss.Color("10")
	colorYellow  = lipgloss.Color("11")
	colorBlue    = lipgloss.Color("12")
	colorMagenta = lipgloss.Color("13")
	colorCyan    = lipgloss.Color("14")
	colorLight   = lipgloss.Color("7")
	colorGrey    = lipgloss.Color("8")
)

// Styles holds one lipgloss style per kind of console text. With color off
// every field is an empty style and renders text unchanged.
type Styles struct {
	Error, Warning, Info, Tip lipgloss.Style

	FilePath lipgloss.Style
	Backend  lipgloss.Style
	Reason   lipgloss.Style

	SummaryTitle, Success, Failure lipgloss.Style

	TableHeader, TableSeparator lipgloss.Style

	Dim, Bold lipgloss.Style
}

func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		p := lipgloss.NewStyle()
		return &Styles{
			Error: p, Warning: p, Info: p, Tip: p,
			FilePath: p, Backend: p, Reason: p,
			SummaryTitle: p, Success: p, Failure: p,
			TableHeader: p, TableSeparator: p,
			Dim: p, Bold: p,
		}
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	bold := lipgloss.NewStyle().Bold(true)

	return &Styles{
		Error:   fg(colorRed).Bold(true),
		Warning: fg(colorYellow).Bold(true),
		Info:    fg(colorBlue).Bold(true),
		Tip:     fg(colorCyan).Bold(true),

		FilePath: bold,
		Backend:  fg(colorMagenta),
		Reason:   fg(colorGrey),

		SummaryTitle: bold,
		Success:      fg(colorGreen).Bold(true),
		Failure:      fg(colorRed).Bold(true),

		TableHeader:    fg(colorLight).Bold(true),
		TableSeparator: fg(colorGrey),

		Dim:  fg(colorGrey),
		Bold: bold,
	}
}

// IsColorEnabled resolves a --color mode ("always", "never", anything else
// meaning auto) for writer. Auto honours NO_COLOR and requires a terminal.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// TerminalWidth is the column count of writer, or 80 when it is not a terminal.
func TerminalWidth(writer io.Writer) int {
	if f, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}
