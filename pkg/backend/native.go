package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/pkg/docmodel"
	"github.com/yaklabco/mdconvert/pkg/docx"
	"github.com/yaklabco/mdconvert/pkg/fsutil"
	"github.com/yaklabco/mdconvert/pkg/pdflayout"
	"github.com/yaklabco/mdconvert/pkg/transcode"
)

// In-process backend names.
const (
	NameNative = "native"
	NameLayout = "layout"
)

// DocumentOptions are the formatting defaults shared by in-process backends.
type DocumentOptions struct {
	Font         string
	FontSize     float64
	CodeFont     string
	CodeFontSize float64
	TitleHeading bool
	PageSize     string
	FileMode     os.FileMode
}

func (o DocumentOptions) mode() os.FileMode {
	if o.FileMode == 0 {
		return fsutil.DefaultFileMode
	}
	return o.FileMode
}

// Native writes .docx with the line transcoder.
type Native struct {
	doc DocumentOptions
}

// NewNative creates the native .docx backend.
func NewNative(doc DocumentOptions) *Native {
	return &Native{doc: doc}
}

// Name implements Backend.
func (n *Native) Name() string { return NameNative }

// Check implements Backend.
func (n *Native) Check(format Format) error {
	if format != FormatDOCX {
		return unavailable("native writes docx only")
	}
	return nil
}

// Attempt implements Backend.
func (n *Native) Attempt(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := job.Source
	builder := docx.NewBuilder(docx.Options{
		Font:         n.doc.Font,
		FontSize:     n.doc.FontSize,
		CodeFont:     n.doc.CodeFont,
		CodeFontSize: n.doc.CodeFontSize,
		Title:        src.Title(),
		Author:       src.Meta.Author,
		Subject:      src.Meta.Subject,
		Keywords:     src.Meta.Tags,
		TitleHeading: n.doc.TitleHeading,
	})
	transcode.Transcode(src.Lines, builder)

	data, err := builder.Bytes()
	if err != nil {
		return fmt.Errorf("build docx: %w", err)
	}

	changed, err := fsutil.WriteAtomicIfChanged(ctx, job.Output, data, n.doc.mode())
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("wrote docx",
		logging.FieldOutput, job.Output,
		logging.FieldBlocks, builder.Blocks(),
		logging.FieldChanged, changed)
	return nil
}

// Layout renders PDF in process, preferring the .docx written earlier in the
// run so both outputs agree.
type Layout struct {
	doc DocumentOptions
}

// NewLayout creates the PDF layout backend.
func NewLayout(doc DocumentOptions) *Layout {
	return &Layout{doc: doc}
}

// Name implements Backend.
func (l *Layout) Name() string { return NameLayout }

// Check implements Backend.
func (l *Layout) Check(format Format) error {
	if format != FormatPDF {
		return unavailable("layout writes pdf only")
	}
	return nil
}

// Attempt implements Backend. The rendered PDF is parsed back before it is
// written so a broken file never replaces a good one.
func (l *Layout) Attempt(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blocks, title := l.blocks(ctx, job)
	data, err := pdflayout.Render(blocks, pdflayout.Options{
		PageSize: l.doc.PageSize,
		Title:    title,
		Author:   job.Source.Meta.Author,
		Subject:  job.Source.Meta.Subject,
	})
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	pages, err := pdflayout.PageCount(data)
	if err != nil {
		return err
	}

	if err := fsutil.WriteAtomic(ctx, job.Output, data, l.doc.mode()); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("wrote pdf",
		logging.FieldOutput, job.Output,
		logging.FieldBlocks, len(blocks),
		logging.FieldPages, pages)
	return nil
}

func (l *Layout) blocks(ctx context.Context, job Job) ([]docmodel.Block, string) {
	title := job.Source.Title()

	if job.Companion != "" && fsutil.Exists(job.Companion) {
		doc, err := docx.ReadFile(job.Companion)
		switch {
		case err != nil:
			logging.FromContext(ctx).Warn("cannot read companion docx, rendering from source",
				logging.FieldPath, job.Companion,
				logging.FieldError, err)
		case len(doc.Blocks) > 0:
			if doc.Title != "" {
				title = doc.Title
			}
			return doc.Blocks, title
		}
	}

	blocks := transcode.Blocks(job.Source.Lines)
	if l.doc.TitleHeading {
		blocks = append([]docmodel.Block{docmodel.Heading{Level: 1, Text: title}}, blocks...)
	}
	return blocks, title
}
