package configloader

import (
	"maps"

	"github.com/yaklabco/mdconvert/pkg/config"
)

// merge combines two configurations, with override taking precedence over base.
// It is used for sparse overlays such as CLI flags, where only the fields a
// flag set are non-zero:
//   - Scalar values: override overwrites base if override is non-zero
//   - Backends: per-format chains in override replace base's chain
//   - Slices: override replaces base entirely if override is non-nil
//   - Booleans: only true in override is applied
//
// File layers are decoded rather than merged; see loadConfigFile.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := base.Clone()

	if override.Inputs != nil {
		result.Inputs = override.Inputs
	}
	if override.Exclude != nil {
		result.Exclude = override.Exclude
	}
	if override.Formats != nil {
		result.Formats = override.Formats
	}
	if override.Backends != nil {
		if result.Backends == nil {
			result.Backends = make(map[string][]string, len(override.Backends))
		}
		maps.Copy(result.Backends, override.Backends)
	}

	mergePandoc(&result.Pandoc, override.Pandoc)
	mergeDocument(&result.Document, override.Document)

	if override.PDF.PageSize != "" {
		result.PDF.PageSize = override.PDF.PageSize
	}

	if override.Backups.Mode != "" {
		result.Backups.Mode = override.Backups.Mode
	}
	if override.Backups.Enabled {
		result.Backups.Enabled = true
	}

	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Audit {
		result.Audit = true
	}
	if override.NoBackups {
		result.NoBackups = true
	}

	return result
}

func mergePandoc(dst *config.PandocConfig, src config.PandocConfig) {
	if src.Path != "" {
		dst.Path = src.Path
	}
	if src.TOC {
		dst.TOC = true
	}
	if src.ExtraArgs != nil {
		dst.ExtraArgs = src.ExtraArgs
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

func mergeDocument(dst *config.DocumentConfig, src config.DocumentConfig) {
	if src.Font != "" {
		dst.Font = src.Font
	}
	if src.FontSize != 0 {
		dst.FontSize = src.FontSize
	}
	if src.CodeFont != "" {
		dst.CodeFont = src.CodeFont
	}
	if src.CodeFontSize != 0 {
		dst.CodeFontSize = src.CodeFontSize
	}
	if src.TitleHeading {
		dst.TitleHeading = true
	}
	if src.FrontMatter {
		dst.FrontMatter = true
	}
}
