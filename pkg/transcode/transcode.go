// Package transcode converts Markdown source lines into document blocks.
//
// The transcoder is a single left-to-right pass. Each line is either
// accumulated into a pending code block or table, or classified and emitted
// immediately. Classification order matters: later patterns are never tried
// inside earlier ones.
package transcode

import (
	"strings"

	"github.com/yaklabco/mdconvert/pkg/docmodel"
)

const (
	fenceMarker     = "```"
	maxHeadingLevel = 5
	maxListNumber   = 99
	boldMarker      = "**"
	altBoldMarker   = "__"
	checkboxPrefix  = 5
)

// cursor is the per-call parser state.
type cursor struct {
	sink docmodel.Sink

	inCodeBlock bool
	codeLines   []string

	inTable   bool
	tableRows [][]string
}

// Transcode walks lines and emits blocks to sink in document order.
// A trailing unterminated code block or table is flushed at the end.
func Transcode(lines []string, sink docmodel.Sink) {
	c := &cursor{sink: sink}

	for idx, line := range lines {
		c.line(idx, line)
	}

	c.finish()
}

// Blocks is a convenience wrapper that returns the emitted blocks.
func Blocks(lines []string) []docmodel.Block {
	var collector docmodel.Collector
	Transcode(lines, &collector)
	return collector.Blocks
}

// String splits text into lines and transcodes it.
func String(text string) []docmodel.Block {
	return Blocks(SplitLines(text))
}

// SplitLines splits text on LF, dropping a CR before each LF.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (c *cursor) line(idx int, line string) {
	trimmed := strings.TrimSpace(line)

	if c.inCodeBlock {
		if isFence(trimmed) {
			c.flushCode()
			return
		}
		c.codeLines = append(c.codeLines, line)
		return
	}

	if isFence(trimmed) {
		c.inCodeBlock = true
		c.codeLines = nil
		return
	}

	if strings.Contains(line, "|") && strings.HasPrefix(trimmed, "|") {
		c.inTable = true
		c.tableRows = append(c.tableRows, splitRow(line))
		return
	}

	if c.inTable {
		c.flushTable()
	}

	c.classify(idx, trimmed)
}

func (c *cursor) classify(idx int, trimmed string) {
	if level, text, ok := heading(trimmed); ok {
		c.sink.Emit(docmodel.Heading{Level: level, Text: text})
		return
	}

	if strings.HasPrefix(trimmed, "---") {
		c.sink.Emit(docmodel.Rule{})
		return
	}

	if checked, ok := checkbox(trimmed); ok {
		c.sink.Emit(docmodel.ListItem{
			List:    docmodel.ListCheckbox,
			Text:    strings.TrimSpace(trimmed[checkboxPrefix:]),
			Checked: checked,
		})
		return
	}

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		c.sink.Emit(docmodel.ListItem{
			List: docmodel.ListBullet,
			Text: strings.TrimSpace(trimmed[2:]),
		})
		return
	}

	if text, ok := numbered(trimmed); ok {
		c.sink.Emit(docmodel.ListItem{List: docmodel.ListNumbered, Text: text})
		return
	}

	if strings.Contains(trimmed, boldMarker) || strings.Contains(trimmed, altBoldMarker) {
		c.sink.Emit(docmodel.Paragraph{Runs: boldRuns(trimmed)})
		return
	}

	if trimmed != "" {
		c.sink.Emit(docmodel.PlainParagraph(trimmed))
		return
	}

	// A blank first line produces nothing.
	if idx == 0 {
		return
	}
	c.sink.Emit(docmodel.Paragraph{})
}

func (c *cursor) flushCode() {
	if len(c.codeLines) > 0 {
		c.sink.Emit(docmodel.CodeBlock{Lines: c.codeLines})
	}
	c.codeLines = nil
	c.inCodeBlock = false
}

func (c *cursor) flushTable() {
	if len(c.tableRows) > 0 {
		c.sink.Emit(docmodel.Table{Rows: normalizeRows(c.tableRows)})
	}
	c.tableRows = nil
	c.inTable = false
}

// finish flushes whatever is still pending. A code block opened while a
// table was pending closes first, matching the order they would have been
// emitted in had the input continued.
func (c *cursor) finish() {
	if c.inCodeBlock {
		c.flushCode()
	}
	if c.inTable {
		c.flushTable()
	}
}

// isFence matches an opening or closing fence. Anything after the backticks,
// such as a language name, is discarded.
func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, fenceMarker)
}

// splitRow drops the fragments before the leading and after the trailing pipe.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return []string{}
	}
	inner := parts[1 : len(parts)-1]
	cells := make([]string, len(inner))
	for i, p := range inner {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// normalizeRows makes every row as wide as the header row, padding short rows
// with empty cells and truncating long ones. A header with no cells defers to
// the widest row.
func normalizeRows(rows [][]string) [][]string {
	width := len(rows[0])
	if width == 0 {
		for _, r := range rows {
			width = max(width, len(r))
		}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		out[i] = row
	}
	return out
}

func heading(trimmed string) (int, string, bool) {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeadingLevel {
		return 0, "", false
	}
	if level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, "", false
	}
	return level, trimmed[level+1:], true
}

func checkbox(trimmed string) (bool, bool) {
	switch {
	case strings.HasPrefix(trimmed, "- [ ]"):
		return false, true
	case strings.HasPrefix(trimmed, "- [x]"), strings.HasPrefix(trimmed, "- [X]"):
		return true, true
	default:
		return false, false
	}
}

// numbered matches "<n>. " for n in 1..99 without leading zeros.
func numbered(trimmed string) (string, bool) {
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 2 || trimmed[0] == '0' {
		return "", false
	}
	if !strings.HasPrefix(trimmed[digits:], ". ") {
		return "", false
	}

	n := 0
	for _, ch := range trimmed[:digits] {
		n = n*10 + int(ch-'0')
	}
	if n < 1 || n > maxListNumber {
		return "", false
	}

	_, text, _ := strings.Cut(trimmed, ". ")
	return text, true
}

// boldRuns splits on the double-asterisk marker; odd fragments are bold.
// A line that only carries the underscore marker stays a single plain run.
func boldRuns(trimmed string) []docmodel.Run {
	parts := strings.Split(trimmed, boldMarker)
	runs := make([]docmodel.Run, len(parts))
	for i, p := range parts {
		runs[i] = docmodel.Run{Text: p, Bold: i%2 == 1}
	}
	return runs
}
