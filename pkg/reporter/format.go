package reporter

import (
	"fmt"
	"slices"
	"strings"
)

// Format selects how a run result is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

//nolint:gochecknoglobals // closed set
var formats = []Format{FormatText, FormatJSON}

// ParseFormat maps a user-supplied name onto a Format. An empty name is text.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatText, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("unknown report format %q (want text or json)", name)
	}
	return f, nil
}

// IsValid reports whether f is a format the reporter can render.
func (f Format) IsValid() bool {
	return slices.Contains(formats, f)
}
