package formatter

import (
	"strings"

	"github.com/yildizm/catform/internal/form"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	FormatPreset(name string, p form.Params) ([]byte, error)
	FormatNames(names []string) ([]byte, error)
	FormatValidationTypes(options []form.ValidationOption) ([]byte, error)
}

// Formats lists the accepted output format names
var Formats = []string{"text", "json", "markdown"}

// New returns the formatter for format, falling back to text
func New(format string, color bool) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return NewJSON()
	case "markdown", "md":
		return NewMarkdown()
	default:
		return NewTerminal(color)
	}
}

// orNone renders an unset value
func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
