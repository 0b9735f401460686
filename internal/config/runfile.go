package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RunFile describes one headless render: the same keys the batch runner
// of the desktop tool reads.
type RunFile struct {
	InputFiles     []string `yaml:"input_files"`
	TemplateFile   string   `yaml:"template_file"`
	OutputFile     string   `yaml:"output_file"`
	BeautifyOutput bool     `yaml:"beautify_output"`
	SchemaFile     string   `yaml:"schema_file"`
}

var runFileMandatoryKeys = []string{"input_files", "template_file", "output_file"}

// LoadRunFile reads and checks a run file
func LoadRunFile(path string) (*RunFile, error) {
	// #nosec G304 - path comes from the user on the command line
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var keys map[string]interface{}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	var missing []string
	for _, k := range runFileMandatoryKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing mandatory key(s) in run file: %s", strings.Join(missing, ", "))
	}

	var run RunFile
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	return &run, nil
}
