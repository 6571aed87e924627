// Package config defines the configuration types for mdconvert.
// These types are plain data; discovery and merging live in configloader.
package config

import "time"

// OutputFormat selects how the run report is printed.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// IsValid reports whether the output format is known.
func (f OutputFormat) IsValid() bool {
	return f == OutputText || f == OutputJSON
}

// Document formats and backend names as they appear in configuration.
const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"

	BackendPandoc = "pandoc"
	BackendNative = "native"
	BackendLayout = "layout"
)

// DefaultInputs are the report files converted when no paths are given.
func DefaultInputs() []string {
	return []string{
		"SECURITY_VULNERABILITIES_FIX_REPORT.md",
		"COMPREHENSIVE_SECURITY_REPORT.md",
		"ESCROW_INTEGRATION_SUMMARY.md",
		"BANKING_PARTNER_ESCROW_INTEGRATION.md",
		"ESCROW_INTEGRATION_DIAGRAMS.md",
		"BANK_PAYMENT_FLOW_OVERVIEW.md",
	}
}

// PandocConfig configures the external pandoc backend.
type PandocConfig struct {
	Path      string        `yaml:"path"`
	TOC       bool          `yaml:"toc"`
	ExtraArgs []string      `yaml:"extra_args"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DocumentConfig holds formatting defaults for the in-process backends.
type DocumentConfig struct {
	Font         string  `yaml:"font"`
	FontSize     float64 `yaml:"font_size"`
	CodeFont     string  `yaml:"code_font"`
	CodeFontSize float64 `yaml:"code_font_size"`

	// TitleHeading inserts a centred title derived from front matter or the
	// file name.
	TitleHeading bool `yaml:"title_heading"`

	// FrontMatter strips a leading YAML/TOML block and uses it as metadata.
	FrontMatter bool `yaml:"front_matter"`
}

// PDFConfig controls the PDF layout backend.
type PDFConfig struct {
	PageSize string `yaml:"page_size"`
}

// BackupsConfig controls backups of existing outputs before overwrite.
type BackupsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // "sidecar" or "none"
}

// Config is the root configuration structure.
type Config struct {
	// Inputs are converted when the command is given no paths.
	Inputs []string `yaml:"inputs"`

	// Exclude holds glob patterns skipped when an input is a directory.
	Exclude []string `yaml:"exclude"`

	// Formats are produced for every input, in order.
	Formats []string `yaml:"formats"`

	// Backends maps each format to its backends in preference order.
	Backends map[string][]string `yaml:"backends"`

	Pandoc   PandocConfig   `yaml:"pandoc"`
	Document DocumentConfig `yaml:"document"`
	PDF      PDFConfig      `yaml:"pdf"`
	Backups  BackupsConfig  `yaml:"backups"`

	// CLI-level options (not persisted to config files).

	// Output selects the report format.
	Output OutputFormat `yaml:"-"`

	// Audit reports Markdown the transcoder drops for each input.
	Audit bool `yaml:"-"`

	// NoBackups disables backups for this run.
	NoBackups bool `yaml:"-"`
}

// NewConfig returns a Config with the default settings.
func NewConfig() *Config {
	return &Config{
		Inputs:  DefaultInputs(),
		Formats: []string{FormatDOCX, FormatPDF},
		Backends: map[string][]string{
			FormatDOCX: {BackendPandoc, BackendNative},
			FormatPDF:  {BackendPandoc, BackendLayout},
		},
		Pandoc: PandocConfig{
			Path:    BackendPandoc,
			Timeout: 2 * time.Minute,
		},
		Document: DocumentConfig{
			Font:         "Calibri",
			FontSize:     11,
			CodeFont:     "Consolas",
			CodeFontSize: 9,
			FrontMatter:  true,
		},
		PDF:     PDFConfig{PageSize: "A4"},
		Backups: BackupsConfig{Enabled: false, Mode: "sidecar"},
		Output:  OutputText,
	}
}

// BackendsFor returns the configured chain for a format.
func (c *Config) BackendsFor(format string) []string {
	return c.Backends[format]
}
