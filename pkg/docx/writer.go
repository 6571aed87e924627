// Package docx writes and reads the Office Open XML word-processing packages
// produced by the native backend.
//
// The writer is a docmodel.Sink: blocks are serialised into the body as they
// arrive and the package is assembled by Bytes. The reader turns a package,
// ours or one written by pandoc, back into blocks for PDF layout.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/mdconvert/pkg/docmodel"
)

// Style IDs written into the package and recognised by the reader.
const (
	StyleTitle      = "Title"
	StyleHeading    = "Heading"
	StyleListBullet = "ListBullet"
	StyleListNumber = "ListNumber"
	StyleCode       = "NoSpacing"
	StyleRule       = "HorizontalRule"
	StyleTable      = "LightGridAccent1"
)

const (
	ruleText  = "__________________________________________________"
	ruleColor = "C0C0C0"
	codeColor = "000000"

	// A4 portrait with 1 inch margins, in twentieths of a point.
	pageWidth    = 11906
	pageHeight   = 16838
	pageMargin   = 1440
	contentWidth = pageWidth - 2*pageMargin

	bulletNumID = 1
)

// packageTime is stamped on every zip entry so identical input gives
// identical bytes.
var packageTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // constant time value

// Options controls document-wide formatting.
type Options struct {
	Font         string
	FontSize     float64
	CodeFont     string
	CodeFontSize float64

	// Title, Author, Subject and Keywords populate the core properties.
	Title    string
	Author   string
	Subject  string
	Keywords []string

	// TitleHeading writes Title as a centred title paragraph before the body.
	TitleHeading bool
}

// DefaultOptions returns the report defaults: Calibri 11pt body and
// Consolas 9pt code.
func DefaultOptions() Options {
	return Options{
		Font:         "Calibri",
		FontSize:     11,
		CodeFont:     "Consolas",
		CodeFontSize: 9,
	}
}

// Builder accumulates blocks into a document body.
type Builder struct {
	opts Options
	body bytes.Buffer

	// numbered lists restart at 1 for each contiguous run of items.
	numberedRuns int
	inNumbered   bool
	lastWasTable bool
	blocks       int
}

var _ docmodel.Sink = (*Builder)(nil)

// NewBuilder creates a Builder. Zero-valued options fall back to defaults.
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.Font == "" {
		opts.Font = def.Font
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.CodeFont == "" {
		opts.CodeFont = def.CodeFont
	}
	if opts.CodeFontSize <= 0 {
		opts.CodeFontSize = def.CodeFontSize
	}

	b := &Builder{opts: opts}
	if opts.TitleHeading && opts.Title != "" {
		b.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + StyleTitle + `"/><w:jc w:val="center"/></w:pPr>`)
		b.writeRun(docmodel.Run{Text: opts.Title}, "")
		b.body.WriteString(`</w:p>`)
	}
	return b
}

// Blocks returns the number of blocks emitted so far.
func (b *Builder) Blocks() int {
	return b.blocks
}

// Emit implements docmodel.Sink.
func (b *Builder) Emit(block docmodel.Block) {
	b.blocks++

	item, isItem := block.(docmodel.ListItem)
	numbered := isItem && item.List == docmodel.ListNumbered
	if numbered && !b.inNumbered {
		b.numberedRuns++
	}
	b.inNumbered = numbered
	b.lastWasTable = false

	switch blk := block.(type) {
	case docmodel.Heading:
		b.paragraph(StyleHeading+strconv.Itoa(blk.Level), "", []docmodel.Run{{Text: blk.Text}})
	case docmodel.Paragraph:
		b.paragraph("", "", blk.Runs)
	case docmodel.ListItem:
		b.listItem(blk)
	case docmodel.Table:
		b.table(blk)
	case docmodel.CodeBlock:
		b.codeBlock(blk)
	case docmodel.Rule:
		b.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + StyleRule + `"/></w:pPr>`)
		b.writeRun(docmodel.Run{Text: ruleText}, `<w:color w:val="`+ruleColor+`"/>`)
		b.body.WriteString(`</w:p>`)
	}
}

func (b *Builder) paragraph(style, numPr string, runs []docmodel.Run) {
	b.body.WriteString(`<w:p>`)
	if style != "" || numPr != "" {
		b.body.WriteString(`<w:pPr>`)
		if style != "" {
			b.body.WriteString(`<w:pStyle w:val="` + style + `"/>`)
		}
		b.body.WriteString(numPr)
		b.body.WriteString(`</w:pPr>`)
	}
	for _, r := range runs {
		b.writeRun(r, "")
	}
	b.body.WriteString(`</w:p>`)
}

func (b *Builder) listItem(item docmodel.ListItem) {
	style := StyleListBullet
	numID := bulletNumID
	if item.List == docmodel.ListNumbered {
		style = StyleListNumber
		numID = bulletNumID + b.numberedRuns
	}
	numPr := `<w:numPr><w:ilvl w:val="0"/><w:numId w:val="` + strconv.Itoa(numID) + `"/></w:numPr>`
	b.paragraph(style, numPr, []docmodel.Run{{Text: item.Display()}})
}

func (b *Builder) codeBlock(code docmodel.CodeBlock) {
	font := escapeAttr(b.opts.CodeFont)
	rPr := fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/><w:color w:val="%s"/><w:sz w:val="%d"/>`,
		font, font, font, codeColor, halfPoints(b.opts.CodeFontSize))

	b.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + StyleCode + `"/></w:pPr><w:r><w:rPr>` + rPr + `</w:rPr>`)
	for i, line := range code.Lines {
		if i > 0 {
			b.body.WriteString(`<w:br/>`)
		}
		b.writeText(line)
	}
	b.body.WriteString(`</w:r></w:p>`)
}

func (b *Builder) table(tbl docmodel.Table) {
	cols := tbl.Columns()
	if cols == 0 {
		return
	}
	colWidth := contentWidth / cols

	b.body.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="` + StyleTable + `"/><w:tblW w:w="0" w:type="auto"/>`)
	b.body.WriteString(`<w:tblLook w:val="04A0" w:firstRow="1" w:lastRow="0" w:firstColumn="1" w:lastColumn="0" w:noHBand="0" w:noVBand="1"/></w:tblPr><w:tblGrid>`)
	for range cols {
		b.body.WriteString(`<w:gridCol w:w="` + strconv.Itoa(colWidth) + `"/>`)
	}
	b.body.WriteString(`</w:tblGrid>`)

	for rowIdx, row := range tbl.Rows {
		b.body.WriteString(`<w:tr>`)
		if rowIdx == 0 {
			b.body.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
		}
		for col := range cols {
			text := ""
			if col < len(row) {
				text = row[col]
			}
			b.body.WriteString(`<w:tc><w:tcPr><w:tcW w:w="` + strconv.Itoa(colWidth) + `" w:type="dxa"/></w:tcPr><w:p>`)
			if text != "" {
				b.writeRun(docmodel.Run{Text: text, Bold: rowIdx == 0}, "")
			}
			b.body.WriteString(`</w:p></w:tc>`)
		}
		b.body.WriteString(`</w:tr>`)
	}
	b.body.WriteString(`</w:tbl>`)
	b.lastWasTable = true
}

func (b *Builder) writeRun(run docmodel.Run, extraRPr string) {
	b.body.WriteString(`<w:r>`)
	if run.Bold || extraRPr != "" {
		b.body.WriteString(`<w:rPr>`)
		if run.Bold {
			b.body.WriteString(`<w:b/>`)
		}
		b.body.WriteString(extraRPr)
		b.body.WriteString(`</w:rPr>`)
	}
	b.writeText(run.Text)
	b.body.WriteString(`</w:r>`)
}

func (b *Builder) writeText(text string) {
	b.body.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b.body, []byte(text))
	b.body.WriteString(`</w:t>`)
}

// Bytes assembles the complete .docx package.
func (b *Builder) Bytes() ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(xml.Header)
	doc.WriteString(`<w:document xmlns:w="` + nsMain + `"><w:body>`)
	doc.Write(b.body.Bytes())
	// Word expects a paragraph between a trailing table and the section.
	if b.lastWasTable {
		doc.WriteString(`<w:p/>`)
	}
	fmt.Fprintf(&doc, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
		pageWidth, pageHeight, pageMargin, pageMargin, pageMargin, pageMargin)
	doc.WriteString(`</w:body></w:document>`)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"docProps/core.xml", b.coreXML()},
		{"docProps/app.xml", []byte(appXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/document.xml", doc.Bytes()},
		{"word/styles.xml", b.stylesXML()},
		{"word/numbering.xml", b.numberingXML()},
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: packageTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}

	return out.Bytes(), nil
}

func (b *Builder) coreXML() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	writeElem(&buf, "dc:title", b.opts.Title)
	writeElem(&buf, "dc:subject", b.opts.Subject)
	writeElem(&buf, "dc:creator", b.opts.Author)
	writeElem(&buf, "cp:keywords", strings.Join(b.opts.Keywords, ", "))
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes()
}

func (b *Builder) stylesXML() []byte {
	font := escapeAttr(b.opts.Font)
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<w:styles xmlns:w="` + nsMain + `">`)
	fmt.Fprintf(&buf, `<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr></w:rPrDefault>`,
		font, font, font, font, halfPoints(b.opts.FontSize), halfPoints(b.opts.FontSize))
	buf.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)
	buf.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:rPr><w:sz w:val="56"/></w:rPr></w:style>`, StyleTitle)

	headingSizes := []int{32, 26, 24, 22, 22}
	for i, size := range headingSizes {
		level := i + 1
		fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s%d"><w:name w:val="heading %d"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`+
			`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="%d"/></w:pPr><w:rPr><w:b/><w:color w:val="2F5496"/><w:sz w:val="%d"/></w:rPr></w:style>`,
			StyleHeading, level, level, i, size)
	}

	fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:contextualSpacing/></w:pPr></w:style>`, StyleListBullet)
	fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="List Number"/><w:basedOn w:val="Normal"/><w:pPr><w:contextualSpacing/></w:pPr></w:style>`, StyleListNumber)
	fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="No Spacing"/><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:style>`, StyleCode)
	fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="Horizontal Rule"/><w:basedOn w:val="Normal"/></w:style>`, StyleRule)
	fmt.Fprintf(&buf, `<w:style w:type="table" w:styleId="%s"><w:name w:val="Light Grid Accent 1"/><w:tblPr><w:tblBorders>`+
		`<w:top w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/><w:left w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/>`+
		`<w:bottom w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/><w:right w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/>`+
		`<w:insideH w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/><w:insideV w:val="single" w:sz="8" w:space="0" w:color="4F81BD"/>`+
		`</w:tblBorders><w:tblCellMar><w:left w:w="108" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr>`+
		`<w:pPr><w:spacing w:after="0"/></w:pPr></w:style>`, StyleTable)
	buf.WriteString(`</w:styles>`)
	return buf.Bytes()
}

func (b *Builder) numberingXML() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<w:numbering xmlns:w="` + nsMain + `">`)
	buf.WriteString(`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/>` +
		`<w:lvlText w:val="•"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>`)
	buf.WriteString(`<w:abstractNum w:abstractNumId="1"><w:multiLevelType w:val="singleLevel"/><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="decimal"/>` +
		`<w:lvlText w:val="%1."/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>`)
	fmt.Fprintf(&buf, `<w:num w:numId="%d"><w:abstractNumId w:val="0"/></w:num>`, bulletNumID)
	for i := 1; i <= b.numberedRuns; i++ {
		fmt.Fprintf(&buf, `<w:num w:numId="%d"><w:abstractNumId w:val="1"/><w:lvlOverride w:ilvl="0"><w:startOverride w:val="1"/></w:lvlOverride></w:num>`,
			bulletNumID+i)
	}
	buf.WriteString(`</w:numbering>`)
	return buf.Bytes()
}

func halfPoints(pt float64) int {
	return int(pt*2 + 0.5)
}

func escapeAttr(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func writeElem(buf *bytes.Buffer, name, text string) {
	if text == "" {
		buf.WriteString(`<` + name + `/>`)
		return
	}
	buf.WriteString(`<` + name + `>`)
	_ = xml.EscapeText(buf, []byte(text))
	buf.WriteString(`</` + name + `>`)
}
