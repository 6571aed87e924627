// Package cli provides the Cobra command structure for mdconvert.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root mdconvert command with all subcommands.
// Run without a subcommand it behaves as "mdconvert convert".
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string
	flags := &convertFlags{}

	rootCmd := &cobra.Command{
		Use:   "mdconvert [files...]",
		Short: "Convert Markdown reports to Word and PDF",
		Long: `mdconvert turns Markdown reports into .docx and .pdf documents.

Each output format has a chain of backends tried in order: pandoc when it is
installed, then the built-in Word writer or PDF layout. A file that cannot be
converted is reported and the rest of the batch carries on.

Without arguments the inputs listed in the configuration are converted.`,
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")
	addConvertFlags(rootCmd, flags)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	NewHelpFormatter(color, os.Stdout).ApplyToCommand(rootCmd)

	return rootCmd
}
