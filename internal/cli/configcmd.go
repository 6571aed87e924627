package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/configloader"
	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/internal/ui/pretty"
	"github.com/yaklabco/mdconvert/pkg/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, check and explain configuration",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after defaults, config files and MDCONVERT_*
environment variables are applied, with the files it was read from.`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		RunE: runConfigShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a configuration file",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.ExactArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(cmd, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "List the MDCONVERT_* environment variables",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		RunE: runConfigEnv,
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	ctx := logging.WithLogger(commandContext(cmd), logging.Default())

	loaded, _, err := loadConfig(ctx, cmd, nil)
	if err != nil {
		return err
	}

	header := config.DefaultTemplateHeader() + "\n# Resolved from: defaults"
	for _, path := range loaded.LoadedFrom {
		header += ", " + path
	}

	data, err := loaded.Config.ToYAMLWithHeader(header)
	if err != nil {
		return fmt.Errorf("render configuration: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), out))

	result, err := configloader.CheckFile(path)
	if err != nil {
		return errors.Join(ErrConfig, err)
	}

	var b strings.Builder
	for _, e := range result.Errors {
		b.WriteString(styles.FormatStatusLine(0, pretty.StatusError, e.Error()))
	}
	for _, w := range result.Warnings {
		b.WriteString(styles.FormatStatusLine(0, pretty.StatusWarning, w.Error()))
	}
	if result.Valid() {
		b.WriteString(styles.FormatStatusLine(0, pretty.StatusSuccess, path+" is valid"))
	}
	if _, err := fmt.Fprint(out, b.String()); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if !result.Valid() {
		return errors.Join(ErrConfig, &result.Errors[0])
	}
	return nil
}

func runConfigEnv(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), out))
	table := pretty.NewTableFormatter(styles, pretty.TerminalWidth(out))

	help := configloader.ListEnvVars()
	rows := make([]pretty.TableRow, 0, len(help))
	for _, name := range configloader.EnvVarNames() {
		value, set := os.LookupEnv(name)
		if !set {
			value = "-"
		}
		rows = append(rows, pretty.TableRow{Cells: []string{name, value, help[name]}})
	}

	if _, err := fmt.Fprint(out, table.FormatTable([]string{"VARIABLE", "VALUE", "DESCRIPTION"}, rows)); err != nil {
		return fmt.Errorf("write variables: %w", err)
	}
	return nil
}
