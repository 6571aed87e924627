package cli

import (
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/logging"
)

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		Run: func(cmd *cobra.Command, _ []string) {
			out := log.NewWithOptions(cmd.OutOrStdout(), log.Options{Level: log.InfoLevel})
			out.Info("mdconvert",
				logging.FieldVersion, info.Version,
				logging.FieldCommit, info.Commit,
				logging.FieldBuilt, info.Date,
				logging.FieldRuntime, runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH,
			)
		},
	}
}
