// Package pdflayout renders document blocks directly to PDF.
//
// It is the last-resort PDF backend: no external tools, core fonts only.
// Text is translated to the cp1252 encoding of the core fonts, so glyphs
// outside it are approximated.
package pdflayout

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/yaklabco/mdconvert/pkg/docmodel"
)

// Page geometry and spacing in points.
const (
	marginLeft   = 72
	marginRight  = 72
	marginTop    = 72
	marginBottom = 18

	inch = 72.0

	bodyFont     = "Helvetica"
	bodySize     = 10
	bodyLeading  = 12
	codeFont     = "Courier"
	codeSize     = 9
	codeLeading  = 11
	listIndent   = 18
	listHang     = 18
	cellPadding  = 3
	cellMargin   = 4
	tabExpansion = "    "
)

var renderTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed document date

type headingStyle struct {
	size   float64
	after  float64
	align  string
	shade  int
	spacer float64
}

//nolint:gochecknoglobals // style table
var headingStyles = []headingStyle{
	{size: 16, after: 12, align: "C", shade: 0x1a, spacer: 0.2 * inch},
	{size: 14, after: 6, align: "L", spacer: 0.15 * inch},
	{size: 12, after: 6, align: "L", spacer: 0.1 * inch},
	{size: 10, after: 6, align: "L", spacer: 0.1 * inch},
	{size: 10, after: 6, align: "L", spacer: 0.1 * inch},
}

// Options controls page setup and document metadata.
type Options struct {
	// PageSize is an fpdf page size name such as "A4" or "Letter".
	PageSize string

	Title   string
	Author  string
	Subject string
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string

	pageWidth  float64
	pageHeight float64

	listNumber int
	inNumbered bool
}

// Render lays out blocks and returns the PDF bytes. No blocks gives a single
// blank page.
func Render(blocks []docmodel.Block, opts Options) ([]byte, error) {
	pageSize := opts.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}

	pdf := fpdf.New("P", "pt", pageSize, "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCellMargin(cellMargin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(renderTime)
	pdf.SetCreator("mdconvert", true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Subject != "" {
		pdf.SetSubject(opts.Subject, true)
	}

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	r.pageWidth, r.pageHeight = pdf.GetPageSize()

	pdf.AddPage()
	for _, b := range blocks {
		r.block(b)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("layout %s: %w", b.Kind(), err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) block(b docmodel.Block) {
	item, isItem := b.(docmodel.ListItem)
	numbered := isItem && item.List == docmodel.ListNumbered
	if numbered && !r.inNumbered {
		r.listNumber = 0
	}
	r.inNumbered = numbered

	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetX(marginLeft)

	switch blk := b.(type) {
	case docmodel.Heading:
		r.heading(blk)
	case docmodel.Paragraph:
		r.paragraph(blk)
	case docmodel.ListItem:
		r.listItem(blk)
	case docmodel.Table:
		r.table(blk)
	case docmodel.CodeBlock:
		r.code(blk)
	case docmodel.Rule:
		r.rule()
	}
}

func (r *renderer) heading(h docmodel.Heading) {
	style := headingStyles[min(max(h.Level, 1), len(headingStyles))-1]

	r.pdf.SetFont(bodyFont, "B", style.size)
	r.pdf.SetTextColor(style.shade, style.shade, style.shade)
	r.pdf.MultiCell(0, style.size*1.2, r.text(h.Text), "", style.align, false)
	r.pdf.Ln(style.after + style.spacer)
}

func (r *renderer) paragraph(p docmodel.Paragraph) {
	if p.IsEmpty() {
		r.pdf.Ln(0.2 * inch)
		return
	}

	for _, run := range p.Runs {
		style := ""
		if run.Bold {
			style = "B"
		}
		r.pdf.SetFont(bodyFont, style, bodySize)
		r.pdf.Write(bodyLeading, r.text(run.Text))
	}
	r.pdf.Ln(bodyLeading + 0.1*inch)
}

func (r *renderer) listItem(item docmodel.ListItem) {
	var marker string
	switch item.List {
	case docmodel.ListNumbered:
		r.listNumber++
		marker = strconv.Itoa(r.listNumber) + "."
	case docmodel.ListCheckbox:
		marker = "[ ]"
		if item.Checked {
			marker = "[x]"
		}
	default:
		marker = "•"
	}

	r.pdf.SetFont(bodyFont, "", bodySize)
	r.pdf.SetX(marginLeft + listIndent)
	r.pdf.CellFormat(listHang+cellMargin, bodyLeading, r.text(marker), "", 0, "L", false, 0, "")
	r.pdf.MultiCell(0, bodyLeading, r.text(item.Text), "", "L", false)
	r.pdf.Ln(3)
}

func (r *renderer) code(c docmodel.CodeBlock) {
	text := strings.ReplaceAll(strings.Join(c.Lines, "\n"), "\t", tabExpansion)

	r.pdf.SetFont(codeFont, "", codeSize)
	r.pdf.SetFillColor(245, 245, 245)
	r.pdf.MultiCell(0, codeLeading, r.text(text), "", "L", true)
	r.pdf.Ln(0.1 * inch)
}

func (r *renderer) rule() {
	y := r.pdf.GetY() + 4
	r.pdf.SetDrawColor(192, 192, 192)
	r.pdf.SetLineWidth(0.75)
	r.pdf.Line(marginLeft, y, r.pageWidth-marginRight, y)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetY(y + 0.1*inch + 4)
}

func (r *renderer) table(t docmodel.Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	colWidth := (r.pageWidth - marginLeft - marginRight) / float64(cols)

	r.pdf.SetDrawColor(79, 129, 189)
	r.pdf.SetLineWidth(0.5)

	for rowIdx, row := range t.Rows {
		style := ""
		if rowIdx == 0 {
			style = "B"
		}
		r.pdf.SetFont(bodyFont, style, bodySize)

		cells := make([]string, cols)
		lines := 1
		for i := range cols {
			if i < len(row) {
				cells[i] = r.text(row[i])
			}
			lines = max(lines, len(r.pdf.SplitLines([]byte(cells[i]), colWidth-2*cellMargin)))
		}
		height := float64(lines)*bodyLeading + 2*cellPadding

		y := r.pdf.GetY()
		if y+height > r.pageHeight-marginBottom {
			r.pdf.AddPage()
			y = r.pdf.GetY()
		}

		for i, cell := range cells {
			x := marginLeft + float64(i)*colWidth
			if rowIdx == 0 {
				r.pdf.SetFillColor(219, 229, 241)
				r.pdf.Rect(x, y, colWidth, height, "FD")
			} else {
				r.pdf.Rect(x, y, colWidth, height, "D")
			}
			r.pdf.SetXY(x, y+cellPadding)
			r.pdf.MultiCell(colWidth, bodyLeading, cell, "", "L", false)
		}
		r.pdf.SetXY(marginLeft, y+height)
	}

	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.Ln(0.1 * inch)
}

// text maps the checkbox glyphs to ASCII and encodes for the core fonts.
func (r *renderer) text(s string) string {
	s = strings.ReplaceAll(s, docmodel.GlyphChecked, "[x]")
	s = strings.ReplaceAll(s, docmodel.GlyphUnchecked, "[ ]")
	return r.tr(s)
}
