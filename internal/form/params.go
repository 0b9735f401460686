package form

import (
	"encoding/json"
	"fmt"
)

// Params is the parameter tuple a preset stores and a render run consumes.
// On the wire it is a positional array:
// [inputFiles, template, outputFile, prettify, validationType, xmlValidationFile]
type Params struct {
	InputFiles        []string
	Template          string
	OutputFile        string
	PrettifyOutput    bool
	ValidationType    string
	XMLValidationFile string
}

const paramsArity = 6

// MarshalJSON encodes the tuple form; empty optional strings become null
func (p Params) MarshalJSON() ([]byte, error) {
	inputs := p.InputFiles
	if inputs == nil {
		inputs = []string{}
	}
	tuple := []interface{}{
		inputs,
		nullable(p.Template),
		nullable(p.OutputFile),
		p.PrettifyOutput,
		nullable(p.ValidationType),
		nullable(p.XMLValidationFile),
	}
	return json.Marshal(tuple)
}

// UnmarshalJSON decodes the tuple form; null decodes to ""
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("preset data must be an array: %w", err)
	}
	if len(raw) != paramsArity {
		return fmt.Errorf("preset data must have %d elements, got %d", paramsArity, len(raw))
	}

	var out Params
	if err := json.Unmarshal(raw[0], &out.InputFiles); err != nil {
		return fmt.Errorf("invalid input files: %w", err)
	}
	if out.InputFiles == nil {
		out.InputFiles = []string{}
	}

	strs := []struct {
		idx int
		dst *string
	}{
		{1, &out.Template},
		{2, &out.OutputFile},
		{4, &out.ValidationType},
		{5, &out.XMLValidationFile},
	}
	for _, s := range strs {
		var v *string
		if err := json.Unmarshal(raw[s.idx], &v); err != nil {
			return fmt.Errorf("invalid preset element %d: %w", s.idx, err)
		}
		if v != nil {
			*s.dst = *v
		}
	}

	var prettify *bool
	if err := json.Unmarshal(raw[3], &prettify); err != nil {
		return fmt.Errorf("invalid prettify flag: %w", err)
	}
	if prettify != nil {
		out.PrettifyOutput = *prettify
	}

	*p = out
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
