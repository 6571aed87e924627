package pretty

import (
	"fmt"
	"strings"
)

// Status labels a line of conversion output.
type Status string

// Statuses printed as bracketed tags.
const (
	StatusConverting Status = "CONVERTING"
	StatusSuccess    Status = "SUCCESS"
	StatusWarning    Status = "WARNING"
	StatusError      Status = "ERROR"
	StatusSkipped    Status = "SKIPPED"
	StatusTip        Status = "TIP"
)

// FormatTag renders a status as "[STATUS]" in its color.
func (s *Styles) FormatTag(status Status) string {
	tag := "[" + string(status) + "]"
	switch status {
	case StatusSuccess:
		return s.Success.Render(tag)
	case StatusWarning:
		return s.Warning.Render(tag)
	case StatusError:
		return s.Error.Render(tag)
	case StatusTip:
		return s.Tip.Render(tag)
	case StatusConverting:
		return s.Info.Render(tag)
	default:
		return s.Dim.Render(tag)
	}
}

// FormatStatusLine renders a tag followed by a message and a newline.
// Indent nests the line under a file heading.
func (s *Styles) FormatStatusLine(indent int, status Status, message string) string {
	return fmt.Sprintf("%s%s %s\n", strings.Repeat("  ", indent), s.FormatTag(status), message)
}

// FormatReason renders a failure reason, one line per wrapped cause.
func (s *Styles) FormatReason(indent int, reason string) string {
	var b strings.Builder
	pad := strings.Repeat("  ", indent)
	for line := range strings.SplitSeq(strings.TrimRight(reason, "\n"), "\n") {
		b.WriteString(pad)
		b.WriteString(s.Reason.Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}

// Divider renders a horizontal rule of the given width.
func (s *Styles) Divider(width int) string {
	if width <= 0 {
		width = defaultTermWidth
	}
	return s.Dim.Render(strings.Repeat("=", width)) + "\n"
}
