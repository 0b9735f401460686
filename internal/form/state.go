package form

// PresetPlaceholder is the preset selector value shown when no preset is chosen
const PresetPlaceholder = "Select Preset"

// Validation modes understood by the backend
const (
	ValidationNone = ""
	ValidationXML  = "xml"
	ValidationJSON = "json"
)

// ValidationOption is one entry of the validation mode selector
type ValidationOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// DefaultValidationOptions mirrors what the backend offers when it has not been asked yet
var DefaultValidationOptions = []ValidationOption{
	{Text: "Enable XSD/DTD validation for XML", Value: ValidationXML},
	{Text: "Basic JSON validation", Value: ValidationJSON},
}

// State holds everything the form UI renders.
// Empty strings stand for "not selected".
type State struct {
	InputFiles        []string
	Template          string
	OutputFile        string
	ValidationType    string
	XMLValidationFile string
	PrettifyOutput    bool

	IsLoading       bool
	ActivePreset    string
	AllPresetNames  []string
	PresetSelection string
	ValidationTypes []ValidationOption

	Log       string
	ShowModal bool
	ModalMsg  string
}

// NewState returns the state a freshly loaded form starts with
func NewState() State {
	return State{
		InputFiles:      []string{},
		PrettifyOutput:  true,
		AllPresetNames:  []string{},
		PresetSelection: PresetPlaceholder,
		ValidationTypes: append([]ValidationOption(nil), DefaultValidationOptions...),
	}
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	c := s
	c.InputFiles = cloneStrings(s.InputFiles)
	c.AllPresetNames = cloneStrings(s.AllPresetNames)
	if s.ValidationTypes != nil {
		c.ValidationTypes = append([]ValidationOption(nil), s.ValidationTypes...)
	}
	return c
}

// Params returns the six persisted form parameters
func (s State) Params() Params {
	return Params{
		InputFiles:        cloneStrings(s.InputFiles),
		Template:          s.Template,
		OutputFile:        s.OutputFile,
		PrettifyOutput:    s.PrettifyOutput,
		ValidationType:    s.ValidationType,
		XMLValidationFile: s.XMLValidationFile,
	}
}

// ApplyParams overwrites the six form parameters in one step
func (s *State) ApplyParams(p Params) {
	s.InputFiles = cloneStrings(p.InputFiles)
	if s.InputFiles == nil {
		s.InputFiles = []string{}
	}
	s.Template = p.Template
	s.OutputFile = p.OutputFile
	s.PrettifyOutput = p.PrettifyOutput
	s.ValidationType = p.ValidationType
	s.XMLValidationFile = p.XMLValidationFile
}

// RequiresXMLValidation reports whether the selected mode needs a schema file
func (s State) RequiresXMLValidation() bool {
	return s.ValidationType == ValidationXML
}

// HasPreset reports whether name is among the known preset names
func (s State) HasPreset(name string) bool {
	for _, n := range s.AllPresetNames {
		if n == name {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// uniqueStrings drops repeated names, keeping first occurrence order
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
