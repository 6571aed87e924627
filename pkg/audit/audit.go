// Package audit reports Markdown constructs that the line transcoder does not
// carry into the output document.
//
// The source is parsed with goldmark (GFM) purely for inspection; conversion
// never depends on the result.
package audit

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Construct names a Markdown feature that is flattened or dropped.
type Construct string

// Constructs reported by Analyze.
const (
	ConstructLink          Construct = "link"
	ConstructImage         Construct = "image"
	ConstructAutoLink      Construct = "autolink"
	ConstructBlockquote    Construct = "blockquote"
	ConstructNestedList    Construct = "nested_list"
	ConstructHTML          Construct = "html"
	ConstructStrikethrough Construct = "strikethrough"
	ConstructItalic        Construct = "italic"
	ConstructInlineCode    Construct = "inline_code"
	ConstructSetextHeading Construct = "setext_heading"
	ConstructDeepHeading   Construct = "deep_heading"
	ConstructIndentedCode  Construct = "indented_code"
)

const maxHeadingLevel = 5

// Finding is the first occurrence of a construct.
type Finding struct {
	Construct Construct `json:"construct"`
	Line      int       `json:"line"`
	Count     int       `json:"count"`
}

// CodeBlock describes a fenced code block. The transcoder discards the info
// string, so Language records what was declared and Detected what the content
// looks like.
type CodeBlock struct {
	Line     int    `json:"line"`
	Language string `json:"language,omitempty"`
	Detected string `json:"detected"`
	Lines    int    `json:"lines"`
}

// Report is the audit of one document.
type Report struct {
	Findings   []Finding   `json:"findings"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
}

// Lossless reports whether nothing was found that conversion drops.
func (r *Report) Lossless() bool {
	return len(r.Findings) == 0
}

// Count returns the number of occurrences of c.
func (r *Report) Count(c Construct) int {
	for _, f := range r.Findings {
		if f.Construct == c {
			return f.Count
		}
	}
	return 0
}

// Analyzer parses Markdown for auditing.
type Analyzer struct {
	md goldmark.Markdown
}

// New creates an Analyzer using the GFM extension set.
func New() *Analyzer {
	return &Analyzer{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Analyze walks the parsed source and collects findings in line order.
func (a *Analyzer) Analyze(ctx context.Context, source []byte) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit cancelled: %w", err)
	}

	doc := a.md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))
	w := &walker{
		source:  source,
		offsets: lineOffsets(source),
		seen:    map[Construct]*Finding{},
	}

	if err := ast.Walk(doc, w.visit); err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	report := &Report{CodeBlocks: w.code}
	for _, f := range w.seen {
		report.Findings = append(report.Findings, *f)
	}
	sort.Slice(report.Findings, func(i, j int) bool {
		if report.Findings[i].Line != report.Findings[j].Line {
			return report.Findings[i].Line < report.Findings[j].Line
		}
		return report.Findings[i].Construct < report.Findings[j].Construct
	})
	return report, nil
}

type walker struct {
	source  []byte
	offsets []int
	seen    map[Construct]*Finding
	code    []CodeBlock
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.Link:
		w.note(ConstructLink, n)
	case *ast.Image:
		w.note(ConstructImage, n)
		return ast.WalkSkipChildren, nil
	case *ast.AutoLink:
		w.note(ConstructAutoLink, n)
	case *ast.Blockquote:
		w.note(ConstructBlockquote, n)
	case *ast.List:
		if hasAncestor[*ast.ListItem](n) {
			w.note(ConstructNestedList, n)
		}
	case *ast.HTMLBlock, *ast.RawHTML:
		w.note(ConstructHTML, n)
	case *east.Strikethrough:
		w.note(ConstructStrikethrough, n)
	case *ast.Emphasis:
		if node.Level == 1 {
			w.note(ConstructItalic, n)
		}
	case *ast.CodeSpan:
		w.note(ConstructInlineCode, n)
		return ast.WalkSkipChildren, nil
	case *ast.Heading:
		w.heading(node)
	case *ast.CodeBlock:
		w.note(ConstructIndentedCode, n)
	case *ast.FencedCodeBlock:
		w.fenced(node)
	}

	return ast.WalkContinue, nil
}

func (w *walker) heading(h *ast.Heading) {
	if h.Level > maxHeadingLevel {
		w.note(ConstructDeepHeading, h)
		return
	}
	if h.Lines().Len() == 0 {
		return
	}
	line := w.source[w.offsets[w.line(h.Lines().At(0).Start)-1]:]
	if !bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("#")) {
		w.note(ConstructSetextHeading, h)
	}
}

func (w *walker) fenced(fc *ast.FencedCodeBlock) {
	var body bytes.Buffer
	segs := fc.Lines()
	for i := range segs.Len() {
		seg := segs.At(i)
		body.Write(seg.Value(w.source))
	}

	block := CodeBlock{
		Language: string(fc.Language(w.source)),
		Detected: Detect(body.Bytes()),
		Lines:    segs.Len(),
	}
	switch {
	case fc.Info != nil:
		block.Line = w.line(fc.Info.Segment.Start)
	case segs.Len() > 0:
		// The fence line precedes the first content line.
		block.Line = w.line(segs.At(0).Start) - 1
	}
	w.code = append(w.code, block)
}

func (w *walker) note(c Construct, n ast.Node) {
	if f, ok := w.seen[c]; ok {
		f.Count++
		return
	}
	line := 0
	if start := w.start(n); start >= 0 {
		line = w.line(start)
	}
	w.seen[c] = &Finding{Construct: c, Line: line, Count: 1}
}

// start returns the byte offset of the first source line of n, or of its
// nearest enclosing block for inline nodes.
func (w *walker) start(n ast.Node) int {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() == ast.TypeInline {
			if t, ok := cur.(*ast.Text); ok {
				return t.Segment.Start
			}
			if t := firstText(cur); t != nil {
				return t.Segment.Start
			}
			continue
		}
		if lines := cur.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start
		}
		if child := firstText(cur); child != nil {
			return child.Segment.Start
		}
	}
	return -1
}

// line converts an offset to a 1-based line number.
func (w *walker) line(offset int) int {
	return sort.Search(len(w.offsets), func(i int) bool { return w.offsets[i] > offset })
}

func lineOffsets(source []byte) []int {
	offsets := []int{0}
	for i, b := range source {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func firstText(n ast.Node) *ast.Text {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return t
		}
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func hasAncestor[T ast.Node](n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(T); ok {
			return true
		}
	}
	return false
}
