// Package docmodel defines the block-level document elements produced by the
// Markdown transcoder and consumed by document sinks.
package docmodel

// Kind identifies a block element variant.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindListItem  Kind = "list_item"
	KindTable     Kind = "table"
	KindCodeBlock Kind = "code_block"
	KindRule      Kind = "rule"
)

// ListKind identifies the flavor of a list item.
type ListKind string

const (
	ListBullet   ListKind = "bullet"
	ListNumbered ListKind = "numbered"
	ListCheckbox ListKind = "checkbox"
)

// Checkbox glyphs used when a checkbox item is displayed.
const (
	GlyphUnchecked = "☐"
	GlyphChecked   = "☑"
)

// Block is a single block-level element.
type Block interface {
	Kind() Kind
}

// Run is a fragment of paragraph text with a style flag.
type Run struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Heading is a section heading of level 1 to 5.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Paragraph is a sequence of runs. A paragraph with no runs is vertical spacing.
type Paragraph struct {
	Runs []Run `json:"runs"`
}

// ListItem is a single bullet, numbered or checkbox item.
type ListItem struct {
	List    ListKind `json:"list"`
	Text    string   `json:"text"`
	Checked bool     `json:"checked,omitempty"`
}

// Table holds cell text per row. Row 0 is the header.
type Table struct {
	Rows [][]string `json:"rows"`
}

// CodeBlock holds verbatim code lines. The language is never recorded.
type CodeBlock struct {
	Lines []string `json:"lines"`
}

// Rule is a horizontal separator.
type Rule struct{}

func (Heading) Kind() Kind   { return KindHeading }
func (Paragraph) Kind() Kind { return KindParagraph }
func (ListItem) Kind() Kind  { return KindListItem }
func (Table) Kind() Kind     { return KindTable }
func (CodeBlock) Kind() Kind { return KindCodeBlock }
func (Rule) Kind() Kind      { return KindRule }

// PlainParagraph returns a paragraph with a single plain run.
func PlainParagraph(text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text}}}
}

// Text concatenates the text of all runs.
func (p Paragraph) Text() string {
	var n int
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range p.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// IsEmpty reports whether the paragraph carries no text.
func (p Paragraph) IsEmpty() bool {
	for _, r := range p.Runs {
		if r.Text != "" {
			return false
		}
	}
	return true
}

// Display returns the item text as it is shown, with the checkbox glyph
// prepended for checkbox items.
func (l ListItem) Display() string {
	if l.List != ListCheckbox {
		return l.Text
	}
	if l.Checked {
		return GlyphChecked + " " + l.Text
	}
	return GlyphUnchecked + " " + l.Text
}

// Columns returns the column count of the table: the header row length.
func (t Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}
