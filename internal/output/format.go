// Package output renders command results as text, JSON or YAML.
package output

import (
	"fmt"
	"strings"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml in any case. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text|json|yaml)", s)
	}
}

// IsStructured reports whether the format is machine-readable.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML
}
