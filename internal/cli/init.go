package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/configloader"
	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/pkg/config"
)

// configFilePermissions is the file mode for configuration files (world-readable).
const configFilePermissions = 0644

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a mdconvert configuration file",
		Long: `Create a commented .mdconvert.yml in the current directory with the
default inputs, backend chains and document settings.

Examples:
  mdconvert init                      Create .mdconvert.yml
  mdconvert init --format json        Create .mdconvert.json instead
  mdconvert init --output custom.yml  Write to a custom file path`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "file format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "",
		"output file path (default: .mdconvert.yml or .mdconvert.json)")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.NewInteractive()

	if flags.format != "yaml" && flags.format != "json" {
		return usageError(fmt.Errorf("invalid format %q: must be yaml or json", flags.format))
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = ".mdconvert.yml"
		if flags.format == "json" {
			outputPath = ".mdconvert.json"
		}
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil && !flags.force {
		if !configloader.IsInteractive() {
			return fmt.Errorf("file %q already exists; use --force to overwrite", outputPath)
		}
		ok, err := configloader.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("%s already exists. Overwrite?", outputPath))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("kept existing file", logging.FieldPath, outputPath)
			return nil
		}
	} else if err == nil {
		logger.Warn("overwriting existing file", logging.FieldPath, outputPath)
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{Format: flags.format})
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	if err := os.WriteFile(absPath, content, configFilePermissions); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	logger.Info("run 'mdconvert backends' to see which backends can run here")

	return nil
}
