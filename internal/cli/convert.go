package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/configloader"
	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/reporter"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

type convertFlags struct {
	formats      []string
	backendsDOCX []string
	backendsPDF  []string
	exclude      []string
	output       string
	pageSize     string
	toc          bool
	titleHeading bool
	audit        bool
	backups      bool
	noBackups    bool
	brief        bool
	compact      bool
}

func newConvertCommand() *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert Markdown files to .docx and .pdf",
		Long:  convertLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, flags)
		},
	}

	addConvertFlags(cmd, flags)

	return cmd
}

const convertLongDescription = `Convert Markdown files to Word and PDF documents.

Outputs are written next to each input with the extension replaced. A
directory argument converts the Markdown files inside it. Without arguments
the configured inputs are converted.

Examples:
  mdconvert convert                       # Convert the configured inputs
  mdconvert convert REPORT.md             # Convert a single file
  mdconvert convert docs/ --exclude 'drafts/**'
  mdconvert convert --format pdf          # Only produce PDF
  mdconvert convert --backend-docx native # Skip pandoc for Word output
  mdconvert convert --audit               # List Markdown the documents drop
  mdconvert convert --output json         # Machine-readable report`

func addConvertFlags(cmd *cobra.Command, flags *convertFlags) {
	cmd.Flags().StringSliceVar(&flags.formats, "format", nil, "output formats: docx, pdf (default from config)")
	cmd.Flags().StringSliceVar(&flags.backendsDOCX, "backend-docx", nil, "backends tried for .docx, in order")
	cmd.Flags().StringSliceVar(&flags.backendsPDF, "backend-pdf", nil, "backends tried for .pdf, in order")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "glob patterns skipped inside directories")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "report format: text, json")
	cmd.Flags().StringVar(&flags.pageSize, "page-size", "", "PDF page size: A3, A4, A5, Letter, Legal")
	cmd.Flags().BoolVar(&flags.toc, "toc", false, "ask pandoc for a table of contents")
	cmd.Flags().BoolVar(&flags.titleHeading, "title-heading", false, "insert a centred title heading")
	cmd.Flags().BoolVar(&flags.audit, "audit", false, "report Markdown the documents do not carry over")
	cmd.Flags().BoolVar(&flags.backups, "backups", false, "keep a copy of outputs before replacing them")
	cmd.Flags().BoolVar(&flags.noBackups, "no-backups", false, "never keep copies of replaced outputs")
	cmd.Flags().BoolVar(&flags.brief, "brief", false, "hide skipped and failed backends in the report")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "minified JSON output")
}

// cliConfig returns a sparse configuration holding only what flags set.
func (f *convertFlags) cliConfig(cmd *cobra.Command) *config.Config {
	cfg := &config.Config{}
	changed := cmd.Flags().Changed

	if changed("format") {
		cfg.Formats = f.formats
	}
	if changed("backend-docx") || changed("backend-pdf") {
		cfg.Backends = map[string][]string{}
		if changed("backend-docx") {
			cfg.Backends[config.FormatDOCX] = f.backendsDOCX
		}
		if changed("backend-pdf") {
			cfg.Backends[config.FormatPDF] = f.backendsPDF
		}
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}

	cfg.Output = config.OutputFormat(f.output)
	cfg.PDF.PageSize = f.pageSize
	cfg.Pandoc.TOC = f.toc
	cfg.Document.TitleHeading = f.titleHeading
	cfg.Audit = f.audit
	cfg.Backups.Enabled = f.backups
	cfg.NoBackups = f.noBackups

	return cfg
}

func runConvert(cmd *cobra.Command, args []string, flags *convertFlags) error {
	logger := logging.Default()
	ctx := logging.WithLogger(commandContext(cmd), logger)

	loaded, workDir, err := loadConfig(ctx, cmd, flags.cliConfig(cmd))
	if err != nil {
		return err
	}
	cfg := loaded.Config

	avail := probeTools(cfg)
	logger.Debug("tools found", logging.FieldTool, avail.Tools())

	conv, err := runner.NewFromConfig(cfg, avail)
	if err != nil {
		return errors.Join(ErrConfig, err)
	}

	format, err := reporter.ParseFormat(string(cfg.Output))
	if err != nil {
		return usageError(err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       colorMode(cmd),
		ShowSteps:   !flags.brief,
		ShowSummary: true,
		Compact:     flags.compact,
		WorkingDir:  workDir,
	})
	if err != nil {
		return usageError(fmt.Errorf("create reporter: %w", err))
	}

	runOpts := runner.Options{
		Paths:        args,
		WorkingDir:   workDir,
		Extensions:   runner.DefaultExtensions(),
		ExcludeGlobs: cfg.Exclude,
		Config:       cfg,
		Progress:     rep.Progress,
	}

	logger.Debug("starting conversion",
		"paths", runOpts.Paths,
		logging.FieldWorkingDir, workDir,
		"formats", cfg.Formats,
	)

	result, runErr := conv.Run(ctx, runOpts)
	if result != nil {
		if _, err := rep.Report(ctx, result); err != nil {
			return fmt.Errorf("report results: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("conversion run: %w", runErr)
	}

	return nil
}

// loadConfig resolves the layered configuration for the working directory,
// logging warnings and the files it read.
func loadConfig(
	ctx context.Context,
	cmd *cobra.Command,
	cliCfg *config.Config,
) (*configloader.LoadResult, string, error) {
	logger := logging.FromContext(ctx)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}

	loaded, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, "", errors.Join(ErrConfig, err)
	}

	for _, warning := range loaded.Warnings {
		logger.Warn(warning)
	}
	if len(loaded.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", logging.FieldConfig, loaded.LoadedFrom)
	}

	return loaded, workDir, nil
}

// probeTools looks up pandoc once for the whole process.
func probeTools(cfg *config.Config) backend.Availability {
	return backend.Probe(exec.LookPath, cfg.Pandoc.Path)
}

func colorMode(cmd *cobra.Command) string {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return "auto"
	}
	return mode
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
