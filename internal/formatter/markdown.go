package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/catform/internal/form"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) FormatPreset(name string, p form.Params) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Preset: %s\n\n", name)
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(&b, "| Template | %s |\n", cell(p.Template))
	fmt.Fprintf(&b, "| Output File | %s |\n", cell(p.OutputFile))
	fmt.Fprintf(&b, "| Validation | %s |\n", cell(p.ValidationType))
	fmt.Fprintf(&b, "| Schema | %s |\n", cell(p.XMLValidationFile))
	fmt.Fprintf(&b, "| Prettify Output | %s |\n\n", yesNo(p.PrettifyOutput))

	b.WriteString("## Input Files\n\n")
	if len(p.InputFiles) == 0 {
		b.WriteString("_none_\n")
	}
	for i, in := range p.InputFiles {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, in)
	}

	return []byte(b.String()), nil
}

func (f *markdownFormatter) FormatNames(names []string) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Presets\n\n")
	if len(names) == 0 {
		b.WriteString("_No presets saved._\n")
	}
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return []byte(b.String()), nil
}

func (f *markdownFormatter) FormatValidationTypes(options []form.ValidationOption) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Validation Types\n\n")
	b.WriteString("| Value | Description |\n")
	b.WriteString("|-------|-------------|\n")
	b.WriteString("| _none_ | No validation |\n")
	for _, opt := range options {
		fmt.Fprintf(&b, "| %s | %s |\n", opt.Value, opt.Text)
	}
	return []byte(b.String()), nil
}

// cell escapes pipes and marks empty values
func cell(s string) string {
	if s == "" {
		return "_none_"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
