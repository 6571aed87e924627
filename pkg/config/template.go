package config

import (
	"encoding/json"
	"fmt"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Format is the output format: "yaml" or "json".
	Format string
}

// GenerateTemplate creates a commented configuration file.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Format == "json" {
		return templateToJSON()
	}
	return []byte(yamlTemplate), nil
}

const yamlTemplate = `# mdconvert configuration
# See: https://github.com/yaklabco/mdconvert

# Files converted when mdconvert runs without arguments,
# relative to the working directory.
inputs:
  - SECURITY_VULNERABILITIES_FIX_REPORT.md
  - COMPREHENSIVE_SECURITY_REPORT.md

# Patterns skipped when a directory is given as input.
# exclude: ["drafts/**", "CHANGELOG.md"]

# Output formats, produced in this order.
formats: [docx, pdf]

# Backends tried for each format until one succeeds.
#   pandoc  external pandoc (PDF also needs a LaTeX or HTML engine)
#   native  built-in .docx writer
#   layout  built-in PDF layout, rendered from the .docx when present
backends:
  docx: [pandoc, native]
  pdf: [pandoc, layout]

pandoc:
  path: pandoc
  # Add a table of contents.
  toc: false
  # extra_args: ["--reference-doc=template.docx"]
  timeout: 2m

document:
  font: Calibri
  font_size: 11
  code_font: Consolas
  code_font_size: 9
  # Insert a centred title from front matter or the file name.
  title_heading: false
  # Strip YAML/TOML front matter and use it for document properties.
  front_matter: true

pdf:
  page_size: A4

# Keep a copy of an existing output before it is replaced.
backups:
  enabled: false
  mode: sidecar
`

func templateToJSON() ([]byte, error) {
	cfg := NewConfig()
	cfg.Inputs = cfg.Inputs[:2]

	// json has no duration literal; use the YAML spelling.
	doc := map[string]any{
		"inputs":   cfg.Inputs,
		"exclude":  []string{},
		"formats":  cfg.Formats,
		"backends": cfg.Backends,
		"pandoc": map[string]any{
			"path":       cfg.Pandoc.Path,
			"toc":        cfg.Pandoc.TOC,
			"extra_args": []string{},
			"timeout":    cfg.Pandoc.Timeout.String(),
		},
		"document": map[string]any{
			"font":           cfg.Document.Font,
			"font_size":      cfg.Document.FontSize,
			"code_font":      cfg.Document.CodeFont,
			"code_font_size": cfg.Document.CodeFontSize,
			"title_heading":  cfg.Document.TitleHeading,
			"front_matter":   cfg.Document.FrontMatter,
		},
		"pdf":     map[string]any{"page_size": cfg.PDF.PageSize},
		"backups": map[string]any{"enabled": cfg.Backups.Enabled, "mode": cfg.Backups.Mode},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return out, nil
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# mdconvert configuration
# See: https://github.com/yaklabco/mdconvert`
}
