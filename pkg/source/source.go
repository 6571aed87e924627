// Package source loads Markdown report files into transcoder input.
package source

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yaklabco/mdconvert/pkg/fsutil"
	"github.com/yaklabco/mdconvert/pkg/transcode"
)

// Metadata carries the front matter fields used for document properties.
type Metadata struct {
	Title   string   `yaml:"title"`
	Author  string   `yaml:"author"`
	Subject string   `yaml:"subject"`
	Tags    []string `yaml:"tags"`
}

// Document is a loaded Markdown source.
type Document struct {
	// Path is the file the document was read from.
	Path string

	// Meta holds parsed front matter; zero when none was present or stripping
	// was disabled.
	Meta Metadata

	// Body is the Markdown text handed to the transcoder.
	Body []byte

	// Lines is Body split into lines.
	Lines []string

	// Info is the file state at read time.
	Info *fsutil.FileInfo
}

// Options controls loading.
type Options struct {
	// FrontMatter strips and parses a leading YAML/TOML front matter block.
	FrontMatter bool
}

// Load reads path and prepares it for transcoding.
func Load(ctx context.Context, path string, opts Options) (*Document, error) {
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	doc := Parse(path, content, opts)
	doc.Info = info
	return doc, nil
}

// Parse prepares in-memory content for transcoding.
func Parse(path string, content []byte, opts Options) *Document {
	doc := &Document{Path: path, Body: content}

	if opts.FrontMatter && hasFrontMatter(content) {
		if meta, body, ok := parseFrontMatter(content); ok {
			doc.Meta = meta
			doc.Body = body
		}
	}

	doc.Lines = transcode.SplitLines(string(doc.Body))
	return doc
}

// parseFrontMatter splits off a leading block only when it decodes to a
// non-empty mapping. A block that fails to parse, or holds nothing but
// comments or blank lines, is ordinary Markdown: "---", "# Heading", "---"
// is a rule, a heading and a rule.
func parseFrontMatter(content []byte) (Metadata, []byte, bool) {
	var fields map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(content), &fields)
	if err != nil || len(fields) == 0 {
		return Metadata{}, nil, false
	}

	var meta Metadata
	if _, err := frontmatter.Parse(bytes.NewReader(content), &meta); err != nil {
		return Metadata{}, nil, false
	}
	return meta, body, true
}

// Title returns the front matter title, or a title derived from the file
// name: underscores become spaces and words are title-cased.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	return TitleFromPath(d.Path)
}

// TitleFromPath derives a display title from a file name.
func TitleFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.ReplaceAll(stem, "_", " ")
	return cases.Title(language.English).String(strings.ToLower(stem))
}

// hasFrontMatter reports whether content opens with a front matter delimiter.
// Without it a leading "---" is a horizontal rule and must be left alone.
func hasFrontMatter(content []byte) bool {
	trimmed := bytes.TrimPrefix(content, []byte("\ufeff"))
	return bytes.HasPrefix(trimmed, []byte("---\n")) ||
		bytes.HasPrefix(trimmed, []byte("---\r\n")) ||
		bytes.HasPrefix(trimmed, []byte("+++\n")) ||
		bytes.HasPrefix(trimmed, []byte("+++\r\n"))
}
