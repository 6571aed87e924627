package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdconvert/pkg/audit"
	"github.com/yaklabco/mdconvert/pkg/backend"
	"github.com/yaklabco/mdconvert/pkg/config"
	"github.com/yaklabco/mdconvert/pkg/fsutil"
	"github.com/yaklabco/mdconvert/pkg/runner"
)

const report = `# Security Report

Summary with **bold** text and a [link](https://example.com).

- first
- second

| Area | Status |
|------|--------|
| API  | fixed  |
`

type fakeBackend struct {
	name  string
	err   error
	calls int
	jobs  []backend.Job
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) Check(backend.Format) error { return nil }

func (f *fakeBackend) Attempt(_ context.Context, job backend.Job) error {
	f.calls++
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.Output, []byte(f.name), 0o644)
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(formats ...string) *config.Config {
	cfg := config.NewConfig()
	cfg.Formats = formats
	return cfg
}

func TestRun_NativeBackends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInput(t, dir, "SECURITY_REPORT.md", report)

	cfg := testConfig(config.FormatDOCX, config.FormatPDF)
	cfg.Backends = map[string][]string{
		config.FormatDOCX: {config.BackendNative},
		config.FormatPDF:  {config.BackendLayout},
	}

	r, err := runner.NewFromConfig(cfg, backend.NewAvailability(nil))
	require.NoError(t, err)

	result, err := r.Run(context.Background(), runner.Options{
		Paths:      []string{"SECURITY_REPORT.md"},
		WorkingDir: dir,
		Config:     cfg,
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	file := result.Files[0]
	require.True(t, file.OK(), "outcome: %+v", file)
	assert.Equal(t, "Security Report", file.Title)
	require.Len(t, file.Outputs, 2)
	assert.Equal(t, config.BackendNative, file.Outputs[0].Backend)
	assert.Equal(t, config.BackendLayout, file.Outputs[1].Backend)

	assert.FileExists(t, filepath.Join(dir, "SECURITY_REPORT.docx"))
	assert.FileExists(t, filepath.Join(dir, "SECURITY_REPORT.pdf"))

	assert.Equal(t, 1, result.Stats.FilesConverted)
	assert.Equal(t, 2, result.Stats.OutputsWritten)
	assert.Equal(t, 1, result.Stats.ByBackend[config.BackendLayout])
	assert.False(t, result.HasFailures())
}

func TestRun_FallbackAndCompanion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)

	broken := &fakeBackend{name: "pandoc", err: errors.New("exit status 43")}
	docx := &fakeBackend{name: "native"}
	pdf := &fakeBackend{name: "layout"}

	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{broken, docx}},
		backend.FormatPDF:  {Format: backend.FormatPDF, Backends: []backend.Backend{pdf}},
	})

	result, err := r.Run(context.Background(), runner.Options{
		Paths:  []string{input},
		Config: testConfig(config.FormatDOCX, config.FormatPDF),
	})
	require.NoError(t, err)

	out, ok := result.Files[0].Output(backend.FormatDOCX)
	require.True(t, ok)
	assert.Equal(t, "native", out.Backend)
	require.Len(t, out.Steps, 2)
	assert.False(t, out.Steps[0].OK())
	assert.True(t, out.Steps[1].OK())

	require.Len(t, pdf.jobs, 1)
	assert.Equal(t, filepath.Join(dir, "a.docx"), pdf.jobs[0].Companion)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), pdf.jobs[0].Output)
}

func TestRun_FailedDocxHasNoCompanion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)

	pdf := &fakeBackend{name: "layout"}
	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{
			&fakeBackend{name: "native", err: errors.New("disk full")},
		}},
		backend.FormatPDF: {Format: backend.FormatPDF, Backends: []backend.Backend{pdf}},
	})

	result, err := r.Run(context.Background(), runner.Options{
		Paths:  []string{input},
		Config: testConfig(config.FormatDOCX, config.FormatPDF),
	})
	require.NoError(t, err)

	file := result.Files[0]
	assert.False(t, file.OK())
	assert.ErrorIs(t, file.Outputs[0].Err, backend.ErrNoBackend)
	assert.True(t, file.Outputs[1].OK())
	assert.Empty(t, pdf.jobs[0].Companion)
	assert.Equal(t, 1, result.Stats.OutputsFailed)
	assert.True(t, result.HasFailures())
}

func TestRun_MissingInputContinues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInput(t, dir, "present.md", report)

	native := &fakeBackend{name: "native"}
	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{native}},
	})

	var progress []string
	result, err := r.Run(context.Background(), runner.Options{
		Paths:      []string{"missing.md", "present.md"},
		WorkingDir: dir,
		Config:     testConfig(config.FormatDOCX),
		Progress:   func(path string) { progress = append(progress, path) },
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	assert.ErrorIs(t, result.Files[0].Error, fsutil.ErrNotFound)
	assert.Empty(t, result.Files[0].Outputs)
	assert.True(t, result.Files[1].OK())
	assert.Equal(t, 1, native.calls)
	assert.Equal(t, []string{"missing.md", "present.md"}, progress)
	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Equal(t, 1, result.Stats.FilesConverted)
}

func TestRun_DefaultInputsFromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInput(t, dir, "ONE.md", "# One\n")

	cfg := testConfig(config.FormatDOCX)
	cfg.Inputs = []string{"ONE.md", "TWO.md"}

	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{&fakeBackend{name: "native"}}},
	})

	result, err := r.Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "ONE.md", result.Files[0].Arg)
	assert.True(t, result.Files[0].OK())
	assert.Error(t, result.Files[1].Error)
}

func TestRun_BackupRestoredOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)
	output := filepath.Join(dir, "a.docx")
	require.NoError(t, os.WriteFile(output, []byte("previous"), 0o644))

	cfg := testConfig(config.FormatDOCX)
	cfg.Backups.Enabled = true

	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{
			&fakeBackend{name: "native", err: errors.New("boom")},
		}},
	})

	result, err := r.Run(context.Background(), runner.Options{Paths: []string{input}, Config: cfg})
	require.NoError(t, err)

	out := result.Files[0].Outputs[0]
	assert.True(t, out.BackedUp)
	assert.True(t, out.Restored)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))
	assert.NoFileExists(t, output+fsutil.BackupSuffix)
}

func TestRun_BackupKeptOnSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)
	output := filepath.Join(dir, "a.docx")
	require.NoError(t, os.WriteFile(output, []byte("previous"), 0o644))

	cfg := testConfig(config.FormatDOCX)
	cfg.Backups.Enabled = true

	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{&fakeBackend{name: "native"}}},
	})

	result, err := r.Run(context.Background(), runner.Options{Paths: []string{input}, Config: cfg})
	require.NoError(t, err)
	assert.True(t, result.Files[0].Outputs[0].BackedUp)

	backup, err := os.ReadFile(output + fsutil.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(backup))

	t.Run("no-backups wins", func(t *testing.T) {
		require.NoError(t, os.Remove(output+fsutil.BackupSuffix))
		cfg.NoBackups = true

		result, err := r.Run(context.Background(), runner.Options{Paths: []string{input}, Config: cfg})
		require.NoError(t, err)
		assert.False(t, result.Files[0].Outputs[0].BackedUp)
		assert.NoFileExists(t, output+fsutil.BackupSuffix)
	})
}

func TestRun_Audit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)

	cfg := testConfig(config.FormatDOCX)
	cfg.Audit = true

	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{&fakeBackend{name: "native"}}},
	})

	result, err := r.Run(context.Background(), runner.Options{Paths: []string{input}, Config: cfg})
	require.NoError(t, err)

	rep := result.Files[0].Audit
	require.NotNil(t, rep)
	assert.Equal(t, 1, rep.Count(audit.ConstructLink))
	assert.False(t, rep.Lossless())
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", report)

	native := &fakeBackend{name: "native"}
	r := runner.New(map[backend.Format]*backend.Chain{
		backend.FormatDOCX: {Format: backend.FormatDOCX, Backends: []backend.Backend{native}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, runner.Options{Paths: []string{input}, Config: testConfig(config.FormatDOCX)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, native.calls)
}

func TestRun_NoChainForFormat(t *testing.T) {
	t.Parallel()

	r := runner.New(map[backend.Format]*backend.Chain{})
	_, err := r.Run(context.Background(), runner.Options{
		Paths:      []string{},
		WorkingDir: t.TempDir(),
		Config:     testConfig(config.FormatPDF),
	})
	require.ErrorIs(t, err, backend.ErrNoBackend)
}

func TestNewFromConfig_UnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.FormatDOCX)
	cfg.Backends[config.FormatDOCX] = []string{"word"}

	_, err := runner.NewFromConfig(cfg, backend.NewAvailability(nil))
	require.ErrorIs(t, err, backend.ErrUnknownBackend)
}

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Pandoc.TOC = true
	cfg.PDF.PageSize = "Letter"

	settings := runner.SettingsFromConfig(cfg)
	assert.True(t, settings.Pandoc.TOC)
	assert.Equal(t, cfg.Pandoc.Timeout, settings.Pandoc.Timeout)
	assert.Equal(t, "Letter", settings.Document.PageSize)
	assert.Equal(t, "Consolas", settings.Document.CodeFont)
}
