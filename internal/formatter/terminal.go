package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yildizm/catform/internal/emoji"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) FormatPreset(name string, p form.Params) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Preset "+name)

	inputs := make([]termfmt.TreeItem, 0, len(p.InputFiles))
	for i, in := range p.InputFiles {
		inputs = append(inputs, termfmt.TreeItem{
			Label: filepath.Base(in),
			Value: in,
			Last:  i == len(p.InputFiles)-1,
		})
	}

	validation := p.ValidationType
	if validation == "" {
		validation = "none"
	}

	items := []termfmt.TreeItem{
		{Label: emoji.GetEmoji("input") + " Input Files", Value: fmt.Sprintf("%d", len(p.InputFiles)), Children: inputs},
		{Label: emoji.GetEmoji("template") + " Template", Value: orNone(p.Template)},
		{Label: emoji.GetEmoji("output") + " Output File", Value: orNone(p.OutputFile)},
		{Label: emoji.GetEmoji("validation") + " Validation", Value: validation},
		{Label: emoji.GetEmoji("schema") + " Schema", Value: orNone(p.XMLValidationFile)},
		{Label: "Prettify Output", Value: yesNo(p.PrettifyOutput), Last: true},
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatNames(names []string) ([]byte, error) {
	var b strings.Builder
	if len(names) == 0 {
		b.WriteString(emoji.GetEmoji("info") + " No presets saved\n")
		return []byte(b.String()), nil
	}

	fmt.Fprintf(&b, "%s Presets (%d)\n", emoji.GetEmoji("preset"), len(names))
	items := make([]termfmt.TreeItem, 0, len(names))
	for i, name := range names {
		items = append(items, termfmt.TreeItem{Label: name, Last: i == len(names)-1})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatValidationTypes(options []form.ValidationOption) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Validation Types\n", emoji.GetEmoji("validation"))

	items := []termfmt.TreeItem{{Label: "none", Value: "No validation"}}
	for _, opt := range options {
		items = append(items, termfmt.TreeItem{Label: opt.Value, Value: opt.Text})
	}
	items[len(items)-1].Last = true

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

// writeHeader writes a box drawn title
func (f *terminalFormatter) writeHeader(b *strings.Builder, header string) {
	headerLen := len([]rune(header))

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}
