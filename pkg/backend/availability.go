package backend

import (
	"os/exec"
	"sort"
)

// PDFEngines are the pandoc PDF engines probed for, in preference order.
//
//nolint:gochecknoglobals // fixed probe list
var PDFEngines = []string{"xelatex", "lualatex", "pdflatex", "wkhtmltopdf", "weasyprint", "typst"}

// LookPathFunc resolves an executable name. exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// Availability records which external tools were found. It is computed once
// per process and passed to the backends that need it.
type Availability struct {
	tools map[string]string
}

// Probe looks up every named tool plus the PDF engines.
func Probe(lookPath LookPathFunc, tools ...string) Availability {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	avail := Availability{tools: map[string]string{}}
	for _, name := range append(append([]string{}, tools...), PDFEngines...) {
		if name == "" {
			continue
		}
		if path, err := lookPath(name); err == nil {
			avail.tools[name] = path
		}
	}
	return avail
}

// NewAvailability builds an Availability from a fixed tool table.
func NewAvailability(tools map[string]string) Availability {
	avail := Availability{tools: map[string]string{}}
	for name, path := range tools {
		avail.tools[name] = path
	}
	return avail
}

// Has reports whether tool was found.
func (a Availability) Has(tool string) bool {
	_, ok := a.tools[tool]
	return ok
}

// Path returns the resolved path of tool, or "".
func (a Availability) Path(tool string) string {
	return a.tools[tool]
}

// PDFEngine returns the first available pandoc PDF engine, or "".
func (a Availability) PDFEngine() string {
	for _, engine := range PDFEngines {
		if a.Has(engine) {
			return engine
		}
	}
	return ""
}

// Tools returns the names of the tools found, sorted.
func (a Availability) Tools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
