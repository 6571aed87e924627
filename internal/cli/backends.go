package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/internal/ui/pretty"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

// backendStatus is one backend of a format's chain.
type backendStatus struct {
	Format    string `json:"format"`
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// toolStatus is one probed executable.
type toolStatus struct {
	Tool string `json:"tool"`
	Path string `json:"path,omitempty"`
}

type backendsReport struct {
	Tools  []toolStatus    `json:"tools"`
	Chains []backendStatus `json:"chains"`
}

func newBackendsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "Show which conversion backends can run here",
		Long: `Probe for pandoc and its PDF engines, then list each format's backend
chain in the order it will be tried, marking the backends that cannot run
on this machine.`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackends(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json")

	return cmd
}

func runBackends(cmd *cobra.Command, output string) error {
	if !config.OutputFormat(output).IsValid() {
		return usageError(fmt.Errorf("invalid output %q: must be text or json", output))
	}

	ctx := logging.WithLogger(commandContext(cmd), logging.Default())

	loaded, _, err := loadConfig(ctx, cmd, nil)
	if err != nil {
		return err
	}

	report, err := collectBackends(loaded.Config, probeTools(loaded.Config))
	if err != nil {
		return errors.Join(ErrConfig, err)
	}

	out := cmd.OutOrStdout()
	if config.OutputFormat(output) == config.OutputJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	}

	return writeBackends(out, colorMode(cmd), report)
}

func collectBackends(cfg *config.Config, avail backend.Availability) (*backendsReport, error) {
	report := &backendsReport{}

	tools := append([]string{cfg.Pandoc.Path}, backend.PDFEngines...)
	for _, tool := range tools {
		report.Tools = append(report.Tools, toolStatus{Tool: tool, Path: avail.Path(tool)})
	}

	settings := runner.SettingsFromConfig(cfg)
	for _, name := range cfg.Formats {
		format, err := backend.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		chain, err := backend.NewChain(format, cfg.BackendsFor(name), settings, avail)
		if err != nil {
			return nil, err
		}
		for _, b := range chain.Backends {
			status := backendStatus{Format: string(format), Backend: b.Name(), Available: true}
			if err := b.Check(format); err != nil {
				status.Available = false
				status.Reason = strings.TrimPrefix(err.Error(), backend.ErrUnavailable.Error()+": ")
			}
			report.Chains = append(report.Chains, status)
		}
	}

	return report, nil
}

func writeBackends(w io.Writer, color string, report *backendsReport) error {
	styles := pretty.NewStyles(pretty.IsColorEnabled(color, w))
	table := pretty.NewTableFormatter(styles, pretty.TerminalWidth(w))

	toolRows := make([]pretty.TableRow, 0, len(report.Tools))
	for _, t := range report.Tools {
		status, path := "found", t.Path
		style := styles.Success
		if path == "" {
			status, path, style = "missing", "-", styles.Dim
		}
		toolRows = append(toolRows, pretty.TableRow{Cells: []string{t.Tool, status, path}, Style: &style})
	}

	chainRows := make([]pretty.TableRow, 0, len(report.Chains))
	for _, c := range report.Chains {
		status := "ready"
		style := styles.Success
		if !c.Available {
			status, style = "skip: "+c.Reason, styles.Warning
		}
		chainRows = append(chainRows, pretty.TableRow{Cells: []string{c.Format, c.Backend, status}, Style: &style})
	}

	_, err := fmt.Fprintf(w, "%s\n%s",
		table.FormatTable([]string{"TOOL", "STATUS", "PATH"}, toolRows),
		table.FormatTable([]string{"FORMAT", "BACKEND", "STATUS"}, chainRows))
	if err != nil {
		return fmt.Errorf("write backends: %w", err)
	}
	return nil
}
