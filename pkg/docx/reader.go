package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yaklabco/mdconvert/pkg/docmodel"
)

// ErrNotDocx is returned when a file is not a word-processing package.
var ErrNotDocx = errors.New("not a docx package")

// maxPartSize bounds how much of a single part is decompressed.
const maxPartSize = 64 << 20

// Document is the content recovered from a .docx package.
type Document struct {
	Title  string
	Blocks []docmodel.Block
}

// ReadFile reads a .docx file from disk.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ReadBytes(data)
}

// ReadBytes reads a .docx package held in memory.
func ReadBytes(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read parses the package body into blocks. Paragraph styles, numbering and
// run properties are mapped back onto the block model; anything the model
// cannot express is flattened to text.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDocx, err)
	}

	body, err := readPart(zr, documentPart)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, documentPart)
	}

	var root node
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentPart, err)
	}

	rd := &reader{lists: map[string]docmodel.ListKind{}}
	if numbering, err := readPart(zr, "word/numbering.xml"); err == nil && numbering != nil {
		rd.loadNumbering(numbering)
	}

	doc := &Document{}
	if core, err := readPart(zr, "docProps/core.xml"); err == nil && core != nil {
		var props node
		if xml.Unmarshal(core, &props) == nil {
			if title := props.child("title"); title != nil {
				doc.Title = strings.TrimSpace(title.Content)
			}
		}
	}

	if b := root.child("body"); b != nil {
		rd.walk(b)
	}
	doc.Blocks = rd.blocks

	return doc, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// node is a generic XML element.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(local string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

// find reports whether any descendant matches pred.
func (n *node) find(pred func(*node) bool) bool {
	for i := range n.Children {
		c := &n.Children[i]
		if pred(c) || c.find(pred) {
			return true
		}
	}
	return false
}

type reader struct {
	lists  map[string]docmodel.ListKind
	blocks []docmodel.Block
}

// loadNumbering resolves numId to bullet or numbered from the level-0 format
// of the abstract definition it points at.
func (rd *reader) loadNumbering(data []byte) {
	var root node
	if xml.Unmarshal(data, &root) != nil {
		return
	}

	formats := map[string]string{}
	for i := range root.Children {
		abs := &root.Children[i]
		if abs.XMLName.Local != "abstractNum" {
			continue
		}
		for j := range abs.Children {
			lvl := &abs.Children[j]
			if lvl.XMLName.Local == "lvl" && lvl.attr("ilvl") == "0" {
				formats[abs.attr("abstractNumId")] = lvl.child("numFmt").attr("val")
			}
		}
	}

	for i := range root.Children {
		num := &root.Children[i]
		if num.XMLName.Local != "num" {
			continue
		}
		kind := docmodel.ListNumbered
		if formats[num.child("abstractNumId").attr("val")] == "bullet" {
			kind = docmodel.ListBullet
		}
		rd.lists[num.attr("numId")] = kind
	}
}

func (rd *reader) walk(parent *node) {
	for i := range parent.Children {
		n := &parent.Children[i]
		switch n.XMLName.Local {
		case "p":
			rd.blocks = append(rd.blocks, rd.paragraph(n))
		case "tbl":
			rd.blocks = append(rd.blocks, table(n))
		case "sdt", "sdtContent", "customXml":
			rd.walk(n)
		}
	}
}

func (rd *reader) paragraph(p *node) docmodel.Block {
	pPr := p.child("pPr")
	style := pPr.child("pStyle").attr("val")
	runs := collectRuns(p)
	text := joinRuns(runs)

	if level, ok := headingLevel(style); ok {
		return docmodel.Heading{Level: level, Text: text}
	}

	switch {
	case style == StyleRule || isHorizontalRule(p):
		return docmodel.Rule{}
	case style == StyleCode || style == "SourceCode":
		return docmodel.CodeBlock{Lines: strings.Split(text, "\n")}
	}

	numPr := pPr.child("numPr")
	if numPr != nil || style == StyleListBullet || style == StyleListNumber {
		return rd.listItem(style, numPr.child("numId").attr("val"), text)
	}

	return docmodel.Paragraph{Runs: runs}
}

func (rd *reader) listItem(style, numID, text string) docmodel.ListItem {
	switch {
	case strings.HasPrefix(text, docmodel.GlyphChecked):
		return docmodel.ListItem{List: docmodel.ListCheckbox, Text: strings.TrimSpace(strings.TrimPrefix(text, docmodel.GlyphChecked)), Checked: true}
	case strings.HasPrefix(text, docmodel.GlyphUnchecked):
		return docmodel.ListItem{List: docmodel.ListCheckbox, Text: strings.TrimSpace(strings.TrimPrefix(text, docmodel.GlyphUnchecked))}
	}

	kind := docmodel.ListBullet
	switch {
	case style == StyleListNumber:
		kind = docmodel.ListNumbered
	case style == StyleListBullet:
	default:
		if k, ok := rd.lists[numID]; ok {
			kind = k
		}
	}
	return docmodel.ListItem{List: kind, Text: text}
}

func table(tbl *node) docmodel.Table {
	var rows [][]string
	width := 0
	for i := range tbl.Children {
		tr := &tbl.Children[i]
		if tr.XMLName.Local != "tr" {
			continue
		}
		var row []string
		for j := range tr.Children {
			tc := &tr.Children[j]
			if tc.XMLName.Local != "tc" {
				continue
			}
			var paras []string
			for k := range tc.Children {
				if tc.Children[k].XMLName.Local == "p" {
					paras = append(paras, joinRuns(collectRuns(&tc.Children[k])))
				}
			}
			row = append(row, strings.Join(paras, "\n"))
		}
		width = max(width, len(row))
		rows = append(rows, row)
	}

	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r
	}
	return docmodel.Table{Rows: rows}
}

// collectRuns gathers text runs in document order, merging neighbours with
// the same weight and dropping empty ones.
func collectRuns(p *node) []docmodel.Run {
	var runs []docmodel.Run
	var visit func(n *node)
	visit = func(n *node) {
		for i := range n.Children {
			c := &n.Children[i]
			switch c.XMLName.Local {
			case "r":
				text := runText(c)
				if text == "" {
					continue
				}
				bold := isBold(c.child("rPr"))
				if last := len(runs) - 1; last >= 0 && runs[last].Bold == bold {
					runs[last].Text += text
					continue
				}
				runs = append(runs, docmodel.Run{Text: text, Bold: bold})
			case "pPr", "del", "rPr":
			default:
				visit(c)
			}
		}
	}
	visit(p)
	return runs
}

func runText(r *node) string {
	var sb strings.Builder
	for i := range r.Children {
		c := &r.Children[i]
		switch c.XMLName.Local {
		case "t":
			sb.WriteString(c.Content)
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func joinRuns(runs []docmodel.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func isBold(rPr *node) bool {
	b := rPr.child("b")
	if b == nil {
		return false
	}
	switch b.attr("val") {
	case "0", "false", "off":
		return false
	}
	return true
}

func headingLevel(style string) (int, bool) {
	if style == StyleTitle {
		return 1, true
	}
	rest, ok := strings.CutPrefix(style, StyleHeading)
	if !ok {
		return 0, false
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 {
		return 0, false
	}
	return min(level, 5), true //nolint:mnd // deepest heading in the block model
}

// isHorizontalRule matches the VML rectangle pandoc emits for a thematic break.
func isHorizontalRule(p *node) bool {
	return p.find(func(n *node) bool {
		return n.XMLName.Local == "rect" && n.attr("hr") == "t"
	})
}
