package formatter

import (
	"encoding/json"

	"github.com/yildizm/catform/internal/form"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// PresetOutput is the named form of a preset. The positional tuple stays the
// wire format, this one is meant for scripts.
type PresetOutput struct {
	Name              string   `json:"name"`
	InputFiles        []string `json:"input_files"`
	Template          string   `json:"template"`
	OutputFile        string   `json:"output_file"`
	PrettifyOutput    bool     `json:"prettify_output"`
	ValidationType    string   `json:"validation_type"`
	XMLValidationFile string   `json:"xml_validation_file"`
}

// NamesOutput wraps the preset name list
type NamesOutput struct {
	Presets []string `json:"presets"`
	Count   int      `json:"count"`
}

func (f *jsonFormatter) FormatPreset(name string, p form.Params) ([]byte, error) {
	inputs := p.InputFiles
	if inputs == nil {
		inputs = []string{}
	}
	return json.MarshalIndent(&PresetOutput{
		Name:              name,
		InputFiles:        inputs,
		Template:          p.Template,
		OutputFile:        p.OutputFile,
		PrettifyOutput:    p.PrettifyOutput,
		ValidationType:    p.ValidationType,
		XMLValidationFile: p.XMLValidationFile,
	}, "", "  ")
}

func (f *jsonFormatter) FormatNames(names []string) ([]byte, error) {
	if names == nil {
		names = []string{}
	}
	return json.MarshalIndent(&NamesOutput{Presets: names, Count: len(names)}, "", "  ")
}

func (f *jsonFormatter) FormatValidationTypes(options []form.ValidationOption) ([]byte, error) {
	if options == nil {
		options = []form.ValidationOption{}
	}
	return json.MarshalIndent(options, "", "  ")
}
