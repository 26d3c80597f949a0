package output

import (
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML}

// Formatter writes data to w.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// ValidFormat reports whether s names a supported format.
func ValidFormat(s string) bool {
	_, err := ParseFormat(s)
	return err == nil
}

// ParseFormat parses s case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// NewFormatter returns the formatter for format; unknown formats render
// as a table.
func NewFormatter(format Format, wide bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{Wide: wide}
	}
}
