package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yaklabco/mdconvert/internal/cli"
	"github.com/yaklabco/mdconvert/internal/configloader"
)

const sampleReport = `# Security Report

Some **bold** text with a [link](https://example.com).

- [x] patched

` + "```go\nfmt.Println(\"hi\")\n```\n"

// useTempDir switches to a fresh working directory with no user config.
func useTempDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("NO_COLOR", "1")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "test", Commit: "test", Date: "test"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "v", Commit: "c", Date: "d"})

	if cmd == nil {
		t.Fatal("NewRootCommand returned nil")
	}
	if cmd.Name() != "mdconvert" {
		t.Errorf("expected name 'mdconvert', got %q", cmd.Name())
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("expected Short and Long descriptions to be set")
	}
	if cmd.RunE == nil {
		t.Error("expected the root command to convert when run bare")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(cli.BuildInfo{})

	for _, name := range []string{"convert", "inspect", "backends", "config", "init", "version"} {
		subCmd, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Errorf("expected subcommand %q to exist, got error: %v", name, err)
			continue
		}
		if subCmd.Name() != name {
			t.Errorf("expected subcommand name %q, got %q", name, subCmd.Name())
		}
	}
}

func TestConvertCommandFlags(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(cli.BuildInfo{})
	convertCmd, _, err := cmd.Find([]string{"convert"})
	if err != nil {
		t.Fatalf("convert command not found: %v", err)
	}

	for _, name := range []string{
		"format", "backend-docx", "backend-pdf", "exclude", "output",
		"page-size", "toc", "title-heading", "audit", "backups", "no-backups",
	} {
		if convertCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected convert flag %q", name)
		}
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected root flag %q", name)
		}
	}

	for _, name := range []string{"debug", "config", "color"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q", name)
		}
	}
}

func TestConvert_BuiltinBackends(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, "REPORT.md"), sampleReport)

	out, err := execute(t, "convert", "REPORT.md",
		"--backend-docx", "native", "--backend-pdf", "layout", "--output", "json")
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}

	for _, name := range []string{"REPORT.docx", "REPORT.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}

	var report struct {
		Files []struct {
			Path    string `json:"path"`
			OK      bool   `json:"ok"`
			Outputs []struct {
				Format  string `json:"format"`
				Backend string `json:"backend"`
			} `json:"outputs"`
		} `json:"files"`
		Summary struct {
			FilesConverted int `json:"filesConverted"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode JSON report: %v\n%s", err, out)
	}
	if report.Summary.FilesConverted != 1 || len(report.Files) != 1 || !report.Files[0].OK {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := report.Files[0].Outputs[1].Backend; got != "layout" {
		t.Errorf("expected pdf via layout, got %q", got)
	}
}

func TestRootRunsConvert(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, "NOTES.md"), "# Notes\n")

	out, err := execute(t, "NOTES.md", "--format", "docx", "--backend-docx", "native")
	if err != nil {
		t.Fatalf("root convert: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "NOTES.docx")); err != nil {
		t.Errorf("expected NOTES.docx: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "NOTES.pdf")); err == nil {
		t.Error("pdf written although only docx was requested")
	}
	if !strings.Contains(out, "1 of 1 file converted") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
}

func TestConvert_MissingInputIsNotFatal(t *testing.T) {
	useTempDir(t)

	out, err := execute(t, "convert", "MISSING.md", "--backend-docx", "native", "--backend-pdf", "layout")
	if err != nil {
		t.Fatalf("expected a missing input to be reported, not returned: %v", err)
	}
	if !strings.Contains(out, "MISSING.md") || !strings.Contains(out, "[ERROR]") {
		t.Errorf("expected the missing input to be reported, got:\n%s", out)
	}
}

func TestConvert_InvalidConfig(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, ".mdconvert.yml"), "formats: [odt]\n")

	_, err := execute(t, "convert")
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("expected exit code %d, got %d (%v)", cli.ExitConfigError, code, err)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	useTempDir(t)

	_, err := execute(t, "convert", "--no-such-flag")
	if code := cli.ExitCode(err); code != cli.ExitInvalidUsage {
		t.Errorf("expected exit code %d, got %d (%v)", cli.ExitInvalidUsage, code, err)
	}
}

func TestInspect_JSON(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, "REPORT.md"), sampleReport)

	out, err := execute(t, "inspect", "REPORT.md", "--output", "json")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}

	var result struct {
		Title  string         `json:"title"`
		Blocks map[string]int `json:"blocks"`
		Audit  struct {
			Findings []struct {
				Construct string `json:"construct"`
			} `json:"findings"`
			CodeBlocks []struct {
				Language string `json:"language"`
			} `json:"code_blocks"`
		} `json:"audit"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}

	if result.Title != "Report" {
		t.Errorf("expected title from file name, got %q", result.Title)
	}
	if result.Blocks["heading"] != 1 || result.Blocks["code_block"] != 1 || result.Blocks["list_item"] != 1 {
		t.Errorf("unexpected block counts: %v", result.Blocks)
	}
	if len(result.Audit.Findings) != 1 || result.Audit.Findings[0].Construct != "link" {
		t.Errorf("expected one link finding, got %+v", result.Audit.Findings)
	}
	if len(result.Audit.CodeBlocks) != 1 || result.Audit.CodeBlocks[0].Language != "go" {
		t.Errorf("expected a go code block, got %+v", result.Audit.CodeBlocks)
	}
}

func TestInspect_Text(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, "REPORT.md"), sampleReport)

	out, err := execute(t, "inspect", "REPORT.md")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"BLOCK", "heading", "not carried over", "link", "DETECTED"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestInspect_RequiresOneFile(t *testing.T) {
	useTempDir(t)

	_, err := execute(t, "inspect")
	if code := cli.ExitCode(err); code != cli.ExitInvalidUsage {
		t.Errorf("expected usage error, got %d (%v)", code, err)
	}
}

func TestBackends_JSON(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, ".mdconvert.yml"), "pandoc:\n  path: mdconvert-test-no-such-pandoc\n")

	out, err := execute(t, "backends", "--output", "json")
	if err != nil {
		t.Fatalf("backends: %v\n%s", err, out)
	}

	var report struct {
		Chains []struct {
			Format    string `json:"format"`
			Backend   string `json:"backend"`
			Available bool   `json:"available"`
		} `json:"chains"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}

	want := map[string]bool{
		"docx/pandoc": false,
		"docx/native": true,
		"pdf/pandoc":  false,
		"pdf/layout":  true,
	}
	if len(report.Chains) != len(want) {
		t.Fatalf("expected %d chain entries, got %+v", len(want), report.Chains)
	}
	for _, c := range report.Chains {
		key := c.Format + "/" + c.Backend
		if avail, ok := want[key]; !ok || avail != c.Available {
			t.Errorf("%s: available=%v", key, c.Available)
		}
	}
}

func TestInit(t *testing.T) {
	dir := useTempDir(t)

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	path := filepath.Join(dir, ".mdconvert.yml")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(content), "backends:") {
		t.Errorf("unexpected template:\n%s", content)
	}

	if _, err := execute(t, "init"); err == nil {
		t.Error("expected init to refuse to overwrite without --force")
	}
	if _, err := execute(t, "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	loaded, err := configloader.Load(t.Context(), configloader.LoadOptions{WorkingDir: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if len(loaded.LoadedFrom) != 1 {
		t.Errorf("expected the generated file to be loaded, got %v", loaded.LoadedFrom)
	}
}

func TestInit_JSON(t *testing.T) {
	dir := useTempDir(t)

	if _, err := execute(t, "init", "--format", "json"); err != nil {
		t.Fatalf("init: %v", err)
	}

	loaded, err := configloader.Load(t.Context(), configloader.LoadOptions{WorkingDir: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("generated JSON config does not load: %v", err)
	}
	if got := loaded.LoadedFrom; len(got) != 1 || filepath.Base(got[0]) != ".mdconvert.json" {
		t.Errorf("expected .mdconvert.json to be loaded, got %v", got)
	}
}

func TestInit_BadFormat(t *testing.T) {
	useTempDir(t)

	_, err := execute(t, "init", "--format", "toml")
	if code := cli.ExitCode(err); code != cli.ExitInvalidUsage {
		t.Errorf("expected usage error, got %d (%v)", code, err)
	}
}

func TestConfigShow(t *testing.T) {
	dir := useTempDir(t)
	writeFile(t, filepath.Join(dir, ".mdconvert.yml"), "pdf:\n  page_size: Letter\n")
	t.Setenv("MDCONVERT_PANDOC_TOC", "true")

	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{".mdconvert.yml", "page_size: Letter", "toc: true", "font: Calibri"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestConfigCheck(t *testing.T) {
	dir := useTempDir(t)
	good := filepath.Join(dir, "good.yml")
	bad := filepath.Join(dir, "bad.yml")
	writeFile(t, good, "formats: [docx]\n")
	writeFile(t, bad, "backups:\n  mode: cloud\n")

	out, err := execute(t, "config", "check", good)
	if err != nil {
		t.Fatalf("config check good: %v\n%s", err, out)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = execute(t, "config", "check", bad)
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("expected config error, got %d (%v)", code, err)
	}
	if !strings.Contains(out, "backups.mode") {
		t.Errorf("expected the bad field to be named, got:\n%s", out)
	}
}

func TestConfigEnv(t *testing.T) {
	useTempDir(t)
	t.Setenv("MDCONVERT_FORMATS", "pdf")

	out, err := execute(t, "config", "env")
	if err != nil {
		t.Fatalf("config env: %v", err)
	}
	if !strings.Contains(out, "MDCONVERT_FORMATS") || !strings.Contains(out, "MDCONVERT_PANDOC_TIMEOUT") {
		t.Errorf("expected variables listed, got:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "mdconvert") || !strings.Contains(out.String(), "1.2.3") {
		t.Errorf("unexpected version output: %q", out.String())
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitSuccess},
		{"usage", errors.Join(cli.ErrUsage, errors.New("bad flag")), cli.ExitInvalidUsage},
		{"config", errors.Join(cli.ErrConfig, errors.New("bad yaml")), cli.ExitConfigError},
		{"validation", &configloader.ValidationError{Field: "formats", Message: "empty"}, cli.ExitConfigError},
		{"other", errors.New("interrupted"), cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cli.ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
