//go:build stave

package main

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

const binary = "bin/mdconvert"

var Default = Build

var Aliases = map[string]any{
	"b":     Build,
	"t":     Test.Default,
	"l":     Lint.Default,
	"c":     Check,
	"i":     Install,
	"fmt":   Lint.Fmt,
	"smoke": Smoke.Default,
}

type (
	Test  st.Namespace
	Lint  st.Namespace
	CI    st.Namespace
	Smoke st.Namespace
)

// Build compiles bin/mdconvert when any Go source or module file is newer.
func Build() error {
	rebuild, err := target.Dir(binary, "cmd/", "pkg/", "internal/", "go.mod", "go.sum")
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println(binary, "is up to date")
		return nil
	}
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, "./cmd/mdconvert")
}

// Check formats, lints and tests.
func Check() {
	st.SerialDeps(Lint.Fmt, Lint.Default, Test.Default)
}

func Clean() error {
	for _, path := range []string{"bin", "coverage.out"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

func Install() error {
	return sh.RunV("go", "install", "-ldflags", ldflags(), "./cmd/mdconvert")
}

// Deps downloads modules and tidies go.mod.
func Deps() error {
	if err := sh.RunV("go", "mod", "download"); err != nil {
		return err
	}
	return sh.RunV("go", "mod", "tidy")
}

// Default runs the suite under the race detector with coverage.
func (Test) Default() error {
	return gotestsum("pkgname-and-test-fails")
}

// Verbose is Default with every test name printed.
func (Test) Verbose() error {
	return gotestsum("standard-verbose")
}

// Transcoder runs only the transcoder and document writer packages, which
// is the quick loop when changing how Markdown lines map to blocks.
func (Test) Transcoder() error {
	return sh.RunV("go", "test", "-count=1", "./pkg/transcode/...", "./pkg/docx/...", "./pkg/pdflayout/...")
}

func (Lint) Default() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// CI lints without touching files.
func (Lint) CI() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

func (Lint) Fmt() error {
	return sh.RunV("gofmt", "-w", ".")
}

// FmtCheck fails when gofmt would change anything.
func (Lint) FmtCheck() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if out != "" {
		return fmt.Errorf("unformatted files:\n%s", out)
	}
	return nil
}

func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Gate is everything CI runs, in order.
func (CI) Gate() {
	st.SerialDeps(
		Lint.FmtCheck,
		Lint.Vet,
		Lint.CI,
		Build,
		Test.Default,
		CI.ModTidy,
		CI.Cross,
		Smoke.Default,
	)
}

// ModTidy fails when go mod tidy changes go.mod or go.sum.
func (CI) ModTidy() error {
	files := []string{"go.mod", "go.sum"}
	before := make([][]byte, len(files))
	for i, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		before[i] = data
	}

	if err := sh.RunV("go", "mod", "tidy"); err != nil {
		return err
	}

	for i, name := range files {
		after, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if !bytes.Equal(before[i], after) {
			return fmt.Errorf("%s is not tidy", name)
		}
	}
	return nil
}

// Cross builds the binary for each release platform with cgo off.
func (CI) Cross() error {
	for _, platform := range []string{
		"linux/amd64", "linux/arm64",
		"darwin/amd64", "darwin/arm64",
		"windows/amd64", "windows/arm64",
	} {
		goos, goarch, _ := strings.Cut(platform, "/")
		env := map[string]string{"GOOS": goos, "GOARCH": goarch, "CGO_ENABLED": "0"}
		if err := sh.RunWith(env, "go", "build", "-o", os.DevNull, "./cmd/mdconvert"); err != nil {
			return fmt.Errorf("build %s: %w", platform, err)
		}
	}
	return nil
}

// Default converts a sample report with the built-in backends only, so it
// runs on machines without pandoc, then inspects it.
func (Smoke) Default() error {
	st.Deps(Build)
	return smoke("--backend-docx", "native", "--backend-pdf", "layout")
}

// Pandoc converts the sample with pandoc first in both chains. It is skipped
// when pandoc is not on PATH.
func (Smoke) Pandoc() error {
	st.Deps(Build)
	if _, err := exec.LookPath("pandoc"); err != nil {
		fmt.Println("pandoc not found, skipping")
		return nil
	}
	return smoke("--backend-docx", "pandoc", "--backend-pdf", "pandoc,layout")
}

func smoke(backendFlags ...string) error {
	dir, err := os.MkdirTemp("", "mdconvert-smoke-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	sample := filepath.Join(dir, "SMOKE_REPORT.md")
	if err := os.WriteFile(sample, []byte(smokeReport), 0o600); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	start := time.Now()
	args := append([]string{"convert", sample, "--audit"}, backendFlags...)
	if err := sh.RunV(binary, args...); err != nil {
		return err
	}
	fmt.Printf("converted in %s\n", time.Since(start).Round(time.Millisecond))

	for _, ext := range []string{".docx", ".pdf"} {
		out := strings.TrimSuffix(sample, ".md") + ext
		if info, err := os.Stat(out); err != nil || info.Size() == 0 {
			return errors.Join(fmt.Errorf("missing output %s", filepath.Base(out)), err)
		}
	}
	return sh.RunV(binary, "inspect", sample)
}

const smokeReport = `# Smoke Report

## Summary

- [x] **Docx** written
- [ ] PDF checked
1. First step

| Check | Result |
|-------|--------|
| build | ok |

` + "```go\nfunc main() {}\n```" + `
---
See [the docs](https://example.com).
`

func gotestsum(format string) error {
	procs := cmp.Or(os.Getenv("STAVE_NUM_PROCESSORS"), "4")
	return sh.RunV("go", "tool", "gotestsum", "-f", format, "--",
		"-race", "-p", procs, "-parallel", procs,
		"-coverprofile=coverage.out", "-covermode=atomic",
		"./...",
	)
}

func ldflags() string {
	git := func(args ...string) string {
		out, err := sh.Output("git", args...)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(out)
	}
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s",
		cmp.Or(git("describe", "--tags", "--always", "--dirty"), "dev"),
		cmp.Or(git("rev-parse", "--short", "HEAD"), "none"),
		time.Now().UTC().Format(time.RFC3339),
	)
}
