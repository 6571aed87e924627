package config

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToYAMLWithHeader encodes c as YAML with two-space indentation. A non-empty
// header is written first, followed by a blank line; it should already be
// made of "#" comment lines.
func (c *Config) ToYAMLWithHeader(header string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(strings.TrimRight(header, "\n"))
		buf.WriteString("\n\n")
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// FromYAML decodes data onto an empty Config. Absent keys stay zero; layering
// onto defaults happens in the loader.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// Clone returns a copy of c that shares no slices or maps with it.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	out := *c
	out.Inputs = slices.Clone(c.Inputs)
	out.Exclude = slices.Clone(c.Exclude)
	out.Formats = slices.Clone(c.Formats)
	out.Pandoc.ExtraArgs = slices.Clone(c.Pandoc.ExtraArgs)

	if c.Backends != nil {
		out.Backends = make(map[string][]string, len(c.Backends))
		for format, names := range c.Backends {
			out.Backends[format] = slices.Clone(names)
		}
	}
	return &out
}
