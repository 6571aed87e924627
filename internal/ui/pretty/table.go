package pretty

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table formatting constants.
const (
	tablePadding   = 2
	minColumnWidth = 4
	lightSeparator = "-"
	ellipsis       = "..."
)

// TableRow is one row of cells. Style, when set, is applied to the whole row.
type TableRow struct {
	Cells []string
	Style *lipgloss.Style
}

// TableFormatter lays out rows in padded columns that fit the terminal.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{styles: styles, termWidth: termWidth}
}

// FormatTable renders headers and rows. The last column absorbs any
// shrinking needed to fit the terminal width.
func (t *TableFormatter) FormatTable(headers []string, rows []TableRow) string {
	if len(headers) == 0 {
		return ""
	}

	widths := t.columnWidths(headers, rows)

	var b strings.Builder
	b.WriteString(t.styles.TableHeader.Render(t.formatCells(headers, widths)))
	b.WriteByte('\n')
	b.WriteString(t.styles.TableSeparator.Render(strings.Repeat(lightSeparator, totalWidth(widths))))
	b.WriteByte('\n')

	for _, row := range rows {
		line := t.formatCells(row.Cells, widths)
		if row.Style != nil {
			line = row.Style.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

func (t *TableFormatter) columnWidths(headers []string, rows []TableRow) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = max(minColumnWidth, len(h))
	}
	for _, row := range rows {
		for i, cell := range row.Cells {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	last := len(widths) - 1
	if excess := totalWidth(widths) - t.termWidth; excess > 0 {
		widths[last] = max(max(minColumnWidth, len(headers[last])), widths[last]-excess)
	}
	return widths
}

func (t *TableFormatter) formatCells(cells []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = truncateString(cells[i], width)
		}
		if i == len(widths)-1 {
			fmt.Fprintf(&b, " %s", cell)
		} else {
			fmt.Fprintf(&b, " %-*s ", width, cell)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func totalWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + tablePadding
	}
	return total
}

func truncateString(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	if maxLen <= len(ellipsis) {
		return str[:maxLen]
	}
	return str[:maxLen-len(ellipsis)] + ellipsis
}
