package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdconvert/internal/logging"
	"github.com/yaklabco/mdconvert/internal/ui/pretty"
	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/docmodel"
	"github.com/yaklabco/mdconvert/pkg/source"
	"github.com/yaklabco/mdconvert/pkg/transcode"
)

// blockOrder is the order kinds are listed in.
//
//nolint:gochecknoglobals // fixed display order
var blockOrder = []docmodel.Kind{
	docmodel.KindHeading,
	docmodel.KindParagraph,
	docmodel.KindListItem,
	docmodel.KindTable,
	docmodel.KindCodeBlock,
	docmodel.KindRule,
}

// inspection is what inspect prints for one file.
type inspection struct {
	Path   string         `json:"path"`
	Title  string         `json:"title"`
	Lines  int            `json:"lines"`
	Blocks map[string]int `json:"blocks"`
	Audit  *audit.Report  `json:"audit"`
}

func newInspectCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how a Markdown file will be converted",
		Long: `Transcode a Markdown file without writing any output and show the
blocks it produces, the Markdown that will not be carried over, and the
language of each fenced code block.

Examples:
  mdconvert inspect REPORT.md
  mdconvert inspect REPORT.md --output json`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.ExactArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json")

	return cmd
}

func runInspect(cmd *cobra.Command, path, output string) error {
	if !config.OutputFormat(output).IsValid() {
		return usageError(fmt.Errorf("invalid output %q: must be text or json", output))
	}

	ctx := logging.WithLogger(commandContext(cmd), logging.Default())

	loaded, _, err := loadConfig(ctx, cmd, nil)
	if err != nil {
		return err
	}

	doc, err := source.Load(ctx, path, source.Options{FrontMatter: loaded.Config.Document.FrontMatter})
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	report, err := audit.New().Analyze(ctx, doc.Body)
	if err != nil {
		return fmt.Errorf("audit %s: %w", path, err)
	}

	counts := docmodel.Count(transcode.Blocks(doc.Lines))
	result := inspection{
		Path:   path,
		Title:  doc.Title(),
		Lines:  len(doc.Lines),
		Blocks: make(map[string]int, len(counts)),
		Audit:  report,
	}
	for kind, n := range counts {
		result.Blocks[string(kind)] = n
	}

	logging.FromContext(ctx).Debug("inspected",
		logging.FieldPath, path,
		logging.FieldBlocks, len(counts),
	)

	out := cmd.OutOrStdout()
	if config.OutputFormat(output) == config.OutputJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	}

	return writeInspection(out, colorMode(cmd), result)
}

func writeInspection(w io.Writer, color string, result inspection) error {
	styles := pretty.NewStyles(pretty.IsColorEnabled(color, w))
	table := pretty.NewTableFormatter(styles, pretty.TerminalWidth(w))

	blockRows := make([]pretty.TableRow, 0, len(blockOrder))
	for _, kind := range blockOrder {
		if n := result.Blocks[string(kind)]; n > 0 {
			blockRows = append(blockRows, pretty.TableRow{Cells: []string{string(kind), strconv.Itoa(n)}})
		}
	}

	_, err := fmt.Fprintf(w, "%s  %s\n\n%s\n",
		styles.FilePath.Render(filepath.ToSlash(result.Path)),
		styles.Dim.Render(fmt.Sprintf("%q, %d lines", result.Title, result.Lines)),
		table.FormatTable([]string{"BLOCK", "COUNT"}, blockRows))
	if err != nil {
		return fmt.Errorf("write inspection: %w", err)
	}

	if result.Audit.Lossless() {
		_, err = fmt.Fprint(w, styles.FormatStatusLine(0, pretty.StatusSuccess, "all Markdown is carried over"))
	} else {
		rows := make([]pretty.TableRow, 0, len(result.Audit.Findings))
		for _, f := range result.Audit.Findings {
			rows = append(rows, pretty.TableRow{Cells: []string{
				string(f.Construct), strconv.Itoa(f.Count), strconv.Itoa(f.Line),
			}})
		}
		_, err = fmt.Fprintf(w, "%s%s",
			styles.FormatStatusLine(0, pretty.StatusWarning, "not carried over"),
			table.FormatTable([]string{"CONSTRUCT", "COUNT", "FIRST LINE"}, rows))
	}
	if err != nil {
		return fmt.Errorf("write inspection: %w", err)
	}

	if len(result.Audit.CodeBlocks) == 0 {
		return nil
	}

	rows := make([]pretty.TableRow, 0, len(result.Audit.CodeBlocks))
	for _, cb := range result.Audit.CodeBlocks {
		declared := cb.Language
		if declared == "" {
			declared = "-"
		}
		rows = append(rows, pretty.TableRow{Cells: []string{
			strconv.Itoa(cb.Line), strconv.Itoa(cb.Lines), declared, cb.Detected,
		}})
	}
	if _, err := fmt.Fprintf(w, "\n%s", table.FormatTable([]string{"LINE", "LINES", "DECLARED", "DETECTED"}, rows)); err != nil {
		return fmt.Errorf("write inspection: %w", err)
	}
	return nil
}
