package audit

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// LangText is reported when nothing recognisable was found.
const LangText = "text"

//nolint:gochecknoglobals // classifier candidate set
var candidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// probe is a cheap, high-precision pattern check tried before the classifier.
type probe struct {
	lang  string
	match func(content []byte, trimmed []byte) bool
}

//nolint:gochecknoglobals // ordered probe table
var probes = []probe{
	{"go", func(_, t []byte) bool { return bytes.HasPrefix(t, []byte("package ")) }},
	{"bash", func(_, t []byte) bool { return hasCommandPrefix(t) }},
	{"python", func(c, _ []byte) bool {
		s := string(c)
		switch {
		case strings.Contains(s, "def ") && strings.Contains(s, "):"):
			return true
		case strings.Contains(s, "__name__"), strings.Contains(s, "__main__"):
			return true
		case strings.Contains(s, "import ") && !strings.Contains(s, "import ("):
			return strings.Contains(s, "from ") || strings.HasPrefix(strings.TrimSpace(s), "import ")
		}
		return false
	}},
	{"html", func(_, t []byte) bool {
		lower := bytes.ToLower(t)
		return containsAny(lower, "<!doctype html", "<html", "<head>", "<body>")
	}},
	{"json", func(_, t []byte) bool {
		return (bytes.HasPrefix(t, []byte("{")) || bytes.HasPrefix(t, []byte("["))) && bytes.Contains(t, []byte(`"`))
	}},
	{"dockerfile", func(c, t []byte) bool {
		return bytes.HasPrefix(t, []byte("FROM ")) ||
			(bytes.Contains(c, []byte("\nFROM ")) && bytes.Contains(c, []byte("\nRUN "))) ||
			(bytes.Contains(c, []byte("WORKDIR ")) && bytes.Contains(c, []byte("COPY ")))
	}},
	{"sql", func(_, t []byte) bool {
		upper := strings.ToUpper(string(t))
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(upper, kw) {
				return true
			}
		}
		return false
	}},
	{"rust", func(c, _ []byte) bool { return containsAny(c, "fn main()", "println!", "let mut ") }},
	{"javascript", func(c, _ []byte) bool { return containsAny(c, "=>", "const ", "let ", "console.log", "require(") }},
	{"yaml", func(c, _ []byte) bool { return yamlKeys(c) >= 2 }},
}

// Detect guesses the language of a code block body. Shebangs win, then the
// probe table, then the enry classifier when it is confident.
func Detect(content []byte) string {
	if len(bytes.TrimSpace(content)) == 0 {
		return LangText
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	trimmed := bytes.TrimSpace(content)
	for _, p := range probes {
		if p.match(content, trimmed) {
			return p.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, candidates); safe && lang != "" {
		return normalize(lang)
	}
	return LangText
}

// hasCommandPrefix matches shell sessions pasted into reports.
func hasCommandPrefix(trimmed []byte) bool {
	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	for _, prefix := range []string{"$ ", "npm ", "npx ", "firebase ", "git ", "curl ", "cd ", "export "} {
		if bytes.HasPrefix(first, []byte(prefix)) {
			return true
		}
	}
	return false
}

func yamlKeys(content []byte) int {
	count := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.Contains(line, []byte(": ")) && !containsAny(line, "(", "{") && line[0] != '"' {
			count++
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			count++
		}
	}
	return count
}

func containsAny(b []byte, subs ...string) bool {
	for _, s := range subs {
		if bytes.Contains(b, []byte(s)) {
			return true
		}
	}
	return false
}

func normalize(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
