package configloader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "backends.pdf[1]").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) errorf(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// backendFormats lists the formats each backend can produce.
//
//nolint:gochecknoglobals // Read-only lookup table.
var backendFormats = map[string][]string{
	config.BackendPandoc: {config.FormatDOCX, config.FormatPDF},
	config.BackendNative: {config.FormatDOCX},
	config.BackendLayout: {config.FormatPDF},
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownPageSizes = []string{"A3", "A4", "A5", "Letter", "Legal"}

//nolint:gochecknoglobals // Read-only lookup table.
var knownBackupModes = map[string]bool{
	"sidecar": true,
	"none":    true,
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	validateFormats(cfg, result)
	validateBackends(cfg, result)
	validateInputs(cfg, result)
	validateExclude(cfg, result)

	if cfg.Pandoc.Timeout < 0 {
		result.errorf("pandoc.timeout", cfg.Pandoc.Timeout, "timeout must be >= 0 (0 means no limit)")
	}
	if cfg.Document.FontSize <= 0 {
		result.errorf("document.font_size", cfg.Document.FontSize, "font size must be > 0")
	}
	if cfg.Document.CodeFontSize <= 0 {
		result.errorf("document.code_font_size", cfg.Document.CodeFontSize, "font size must be > 0")
	}

	if !IsValidPageSize(cfg.PDF.PageSize) {
		result.errorf("pdf.page_size", cfg.PDF.PageSize,
			"invalid page size %q; must be one of: %s", cfg.PDF.PageSize, strings.Join(knownPageSizes, ", "))
	}

	if cfg.Backups.Mode != "" && !IsValidBackupMode(cfg.Backups.Mode) {
		result.errorf("backups.mode", cfg.Backups.Mode,
			"invalid backup mode %q; must be one of: sidecar, none", cfg.Backups.Mode)
	}

	if cfg.Output != "" && !cfg.Output.IsValid() {
		result.errorf("output", cfg.Output, "invalid output %q; must be one of: text, json", cfg.Output)
	}

	return result
}

func validateFormats(cfg *config.Config, result *ValidationResult) {
	if len(cfg.Formats) == 0 {
		result.errorf("formats", cfg.Formats, "at least one output format is required")
		return
	}

	seen := make(map[string]bool, len(cfg.Formats))
	for i, format := range cfg.Formats {
		field := fmt.Sprintf("formats[%d]", i)
		switch {
		case format != config.FormatDOCX && format != config.FormatPDF:
			result.errorf(field, format, "unknown format %q; must be one of: docx, pdf", format)
		case seen[format]:
			result.errorf(field, format, "duplicate format %q", format)
		}
		seen[format] = true
	}
}

func validateBackends(cfg *config.Config, result *ValidationResult) {
	for _, format := range cfg.Formats {
		if format != config.FormatDOCX && format != config.FormatPDF {
			continue
		}
		if len(cfg.BackendsFor(format)) == 0 {
			result.errorf("backends."+format, nil, "no backends configured for %s", format)
		}
	}

	for format, names := range cfg.Backends {
		for i, name := range names {
			field := fmt.Sprintf("backends.%s[%d]", format, i)
			produces, known := backendFormats[name]
			if !known {
				result.errorf(field, name, "unknown backend %q; must be one of: %s", name, strings.Join(backend.Names(), ", "))
				continue
			}
			if !slices.Contains(produces, format) {
				result.warnf(field, name, "backend %q cannot produce %s; it will always be skipped", name, format)
			}
		}
	}
}

func validateInputs(cfg *config.Config, result *ValidationResult) {
	for i, input := range cfg.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if strings.TrimSpace(input) == "" {
			result.errorf(field, input, "input path is empty")
			continue
		}
		if ext := strings.ToLower(filepath.Ext(input)); ext != ".md" && ext != ".markdown" {
			result.warnf(field, input, "%q does not look like a Markdown file", input)
		}
	}
}

func validateExclude(cfg *config.Config, result *ValidationResult) {
	for i, pattern := range cfg.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			result.errorf(fmt.Sprintf("exclude[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}

// IsValidPageSize reports whether the PDF page size is supported.
func IsValidPageSize(size string) bool {
	return slices.Contains(knownPageSizes, size)
}

// IsValidBackupMode returns true if the backup mode is valid.
func IsValidBackupMode(mode string) bool {
	return knownBackupModes[mode]
}
