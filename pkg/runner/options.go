// Package runner converts Markdown inputs one after another through the
// configured backend chains.
package runner

import (
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/fsutil"
)

// Options controls a conversion run.
type Options struct {
	// Paths are the user-specified files or directories. If empty,
	// Config.Inputs is used.
	Paths []string

	// WorkingDir is the base directory used to resolve relative Paths.
	// If empty, the current process working directory is used.
	WorkingDir string

	// Extensions is the set of file extensions (lowercase, with leading dot)
	// picked up when a directory is expanded. Defaults to DefaultExtensions().
	Extensions []string

	// ExcludeGlobs are glob patterns, relative to WorkingDir, skipped while
	// expanding directories.
	ExcludeGlobs []string

	// Config is the resolved configuration for this run.
	Config *config.Config

	// Progress, when set, is called before each input is converted.
	Progress func(path string)
}

// DefaultExtensions returns the default set of Markdown file extensions.
func DefaultExtensions() []string {
	return []string{".md", ".markdown"}
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 && o.Config != nil {
		return o.Config.Inputs
	}
	return o.Paths
}

func (o Options) backups() fsutil.BackupConfig {
	if o.Config == nil || o.Config.NoBackups {
		return fsutil.BackupConfig{}
	}
	return fsutil.BackupConfig{
		Enabled: o.Config.Backups.Enabled,
		Mode:    fsutil.BackupMode(o.Config.Backups.Mode),
	}
}

// SettingsFromConfig maps configuration onto backend settings.
func SettingsFromConfig(cfg *config.Config) backend.Settings {
	return backend.Settings{
		Pandoc: backend.PandocOptions{
			Path:      cfg.Pandoc.Path,
			TOC:       cfg.Pandoc.TOC,
			ExtraArgs: cfg.Pandoc.ExtraArgs,
			Timeout:   cfg.Pandoc.Timeout,
		},
		Document: backend.DocumentOptions{
			Font:         cfg.Document.Font,
			FontSize:     cfg.Document.FontSize,
			CodeFont:     cfg.Document.CodeFont,
			CodeFontSize: cfg.Document.CodeFontSize,
			TitleHeading: cfg.Document.TitleHeading,
			PageSize:     cfg.PDF.PageSize,
		},
	}
}
