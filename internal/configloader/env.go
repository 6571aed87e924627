package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/mdconvert/pkg/config"
)

// envVarPrefix is the prefix for all mdconvert environment variables.
const envVarPrefix = "MDCONVERT_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeFloat
	envTypeDuration
	envTypeSlice
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field string
	typ   envFieldType
	help  string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"INPUTS":                  {"inputs", envTypeSlice, "Comma-separated default input files"},
	"EXCLUDE":                 {"exclude", envTypeSlice, "Comma-separated glob patterns skipped in directories"},
	"FORMATS":                 {"formats", envTypeSlice, "Comma-separated output formats: docx, pdf"},
	"BACKENDS_DOCX":           {"backends.docx", envTypeSlice, "Backend chain for .docx output"},
	"BACKENDS_PDF":            {"backends.pdf", envTypeSlice, "Backend chain for PDF output"},
	"PANDOC_PATH":             {"pandoc.path", envTypeString, "Path or name of the pandoc executable"},
	"PANDOC_TOC":              {"pandoc.toc", envTypeBool, "Ask pandoc for a table of contents: true or false"},
	"PANDOC_EXTRA_ARGS":       {"pandoc.extra_args", envTypeSlice, "Comma-separated extra pandoc arguments"},
	"PANDOC_TIMEOUT":          {"pandoc.timeout", envTypeDuration, "Pandoc timeout, e.g. 90s or 2m"},
	"DOCUMENT_FONT":           {"document.font", envTypeString, "Body font for the built-in writers"},
	"DOCUMENT_FONT_SIZE":      {"document.font_size", envTypeFloat, "Body font size in points"},
	"DOCUMENT_CODE_FONT":      {"document.code_font", envTypeString, "Code block font"},
	"DOCUMENT_CODE_FONT_SIZE": {"document.code_font_size", envTypeFloat, "Code block font size in points"},
	"DOCUMENT_TITLE_HEADING":  {"document.title_heading", envTypeBool, "Insert a title heading: true or false"},
	"DOCUMENT_FRONT_MATTER":   {"document.front_matter", envTypeBool, "Read front matter as metadata: true or false"},
	"PDF_PAGE_SIZE":           {"pdf.page_size", envTypeString, "PDF page size: A3, A4, A5, Letter or Legal"},
	"BACKUPS_ENABLED":         {"backups.enabled", envTypeBool, "Back up outputs before overwrite: true or false"},
	"BACKUPS_MODE":            {"backups.mode", envTypeString, "Backup mode: sidecar or none"},
	"OUTPUT":                  {"output", envTypeString, "Report format: text or json"},
	"NO_BACKUPS":              {"no_backups", envTypeBool, "Disable backups: true or false"},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with MDCONVERT_ (e.g., MDCONVERT_FORMATS).
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		return setBoolField(cfg, mapping.field, b)
	case envTypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", envVar, value)
		}
		return setFloatField(cfg, mapping.field, f)
	case envTypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", envVar, value)
		}
		return setDurationField(cfg, mapping.field, d)
	case envTypeSlice:
		return setSliceField(cfg, mapping.field, parseSliceValue(value))
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "pandoc.path":
		cfg.Pandoc.Path = value
	case "document.font":
		cfg.Document.Font = value
	case "document.code_font":
		cfg.Document.CodeFont = value
	case "pdf.page_size":
		cfg.PDF.PageSize = value
	case "backups.mode":
		cfg.Backups.Mode = value
	case "output":
		cfg.Output = config.OutputFormat(value)
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setBoolField(cfg *config.Config, field string, value bool) error {
	switch field {
	case "pandoc.toc":
		cfg.Pandoc.TOC = value
	case "document.title_heading":
		cfg.Document.TitleHeading = value
	case "document.front_matter":
		cfg.Document.FrontMatter = value
	case "backups.enabled":
		cfg.Backups.Enabled = value
	case "no_backups":
		cfg.NoBackups = value
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

func setFloatField(cfg *config.Config, field string, value float64) error {
	switch field {
	case "document.font_size":
		cfg.Document.FontSize = value
	case "document.code_font_size":
		cfg.Document.CodeFontSize = value
	default:
		return fmt.Errorf("unknown numeric field: %s", field)
	}
	return nil
}

func setDurationField(cfg *config.Config, field string, value time.Duration) error {
	switch field {
	case "pandoc.timeout":
		cfg.Pandoc.Timeout = value
	default:
		return fmt.Errorf("unknown duration field: %s", field)
	}
	return nil
}

func setSliceField(cfg *config.Config, field string, value []string) error {
	switch field {
	case "inputs":
		cfg.Inputs = value
	case "exclude":
		cfg.Exclude = value
	case "formats":
		cfg.Formats = value
	case "pandoc.extra_args":
		cfg.Pandoc.ExtraArgs = value
	case "backends.docx", "backends.pdf":
		if cfg.Backends == nil {
			cfg.Backends = make(map[string][]string)
		}
		cfg.Backends[strings.TrimPrefix(field, "backends.")] = value
	default:
		return fmt.Errorf("unknown slice field: %s", field)
	}
	return nil
}

// ListEnvVars returns all supported environment variables with their descriptions.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[envVarPrefix+suffix] = mapping.help
	}
	return vars
}

// EnvVarNames returns the supported environment variable names, sorted.
func EnvVarNames() []string {
	names := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		names = append(names, envVarPrefix+suffix)
	}
	sort.Strings(names)
	return names
}
