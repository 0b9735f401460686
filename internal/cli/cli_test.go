package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yildizm/catform/internal/bridge"
	"github.com/yildizm/catform/internal/config"
	"github.com/yildizm/catform/internal/form"
)

// backendStub is an in-memory rendering backend
type backendStub struct {
	mu       sync.Mutex
	presets  map[string]form.Params
	rendered []form.Params
	renderOK bool
}

func (b *backendStub) ChooseTemplate(context.Context) (string, error) { return "", nil }

func (b *backendStub) ChooseInputFiles(context.Context, []string) ([]string, error) {
	return nil, nil
}

func (b *backendStub) ChooseXMLValidationFile(context.Context) (string, error) { return "", nil }

func (b *backendStub) ChooseOutputFile(context.Context) (string, error) {
	return "/backend/chosen.xml", nil
}

func (b *backendStub) ExecuteRenderingWorkflow(_ context.Context, p form.Params) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rendered = append(b.rendered, p)
	return b.renderOK, nil
}

func (b *backendStub) SavePreset(_ context.Context, name string, p form.Params) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presets[name] = p
	return nil
}

func (b *backendStub) GetPresetData(_ context.Context, name string) (form.Params, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.presets[name]
	if !ok {
		return form.Params{}, errors.New("no such preset")
	}
	return p, nil
}

func (b *backendStub) GetPresetNames(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.presets))
	for n := range b.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (b *backendStub) DeletePreset(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.presets, name)
	return nil
}

func (b *backendStub) PromptPresetName(context.Context) (string, error) { return "", nil }

func (b *backendStub) ValidationTypes(context.Context) ([]form.ValidationOption, error) {
	return form.DefaultValidationOptions, nil
}

func (b *backendStub) preset(name string) (form.Params, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.presets[name]
	return p, ok
}

func (b *backendStub) renders() []form.Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]form.Params(nil), b.rendered...)
}

type testEnv struct {
	backend *backendStub
	url     string
	cfgPath string
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := &backendStub{
		renderOK: true,
		presets: map[string]form.Params{
			"spring": {
				InputFiles:     []string{"/data/spring.csv"},
				Template:       "/tpl/spring.xml",
				PrettifyOutput: true,
			},
		},
	}
	srv := bridge.NewServer(backend)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "catform.yaml")
	if err := os.WriteFile(cfgPath, []byte(config.MinimalSampleConfig()), 0o600); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		backend: backend,
		url:     "ws" + strings.TrimPrefix(ts.URL, "http"),
		cfgPath: cfgPath,
		dir:     dir,
	}
}

// run executes the root command against the stub backend
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3", "abc123", "2024-03-05")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.cfgPath, "--backend", e.url, "--no-emoji"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	in := filepath.Join(env.dir, "a.csv")
	tpl := filepath.Join(env.dir, "catalog.xml")
	outFile := filepath.Join(env.dir, "out.xml")

	out, err := env.run(t, "render", "-i", in, "-t", tpl, "--output-file", outFile)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, form.MsgCatalogGenerated) {
		t.Errorf("output should echo the log:\n%s", out)
	}

	want := []form.Params{{
		InputFiles:     []string{in},
		Template:       tpl,
		OutputFile:     outFile,
		PrettifyOutput: true,
	}}
	if diff := cmp.Diff(want, env.backend.renders()); diff != "" {
		t.Errorf("rendered params (-want +got):\n%s", diff)
	}
}

func TestRenderUsesBackendOutputDialog(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "render", "--preset", "spring", "--no-prettify"); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	want := []form.Params{{
		InputFiles:     []string{"/data/spring.csv"},
		Template:       "/tpl/spring.xml",
		OutputFile:     "/backend/chosen.xml",
		PrettifyOutput: false,
	}}
	if diff := cmp.Diff(want, env.backend.renders()); diff != "" {
		t.Errorf("rendered params (-want +got):\n%s", diff)
	}
}

func TestRenderRunConfig(t *testing.T) {
	env := newTestEnv(t)
	in := filepath.Join(env.dir, "a.csv")
	tpl := filepath.Join(env.dir, "catalog.xml")
	schema := filepath.Join(env.dir, "bmecat.xsd")
	outFile := filepath.Join(env.dir, "out.xml")
	runPath := filepath.Join(env.dir, "run.yaml")
	content := "input_files:\n  - " + in + "\ntemplate_file: " + tpl + "\noutput_file: " + outFile +
		"\nschema_file: " + schema + "\n"
	if err := os.WriteFile(runPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "render", "--run-config", runPath)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, out)
	}

	want := []form.Params{{
		InputFiles:        []string{in},
		Template:          tpl,
		OutputFile:        outFile,
		PrettifyOutput:    false,
		ValidationType:    form.ValidationXML,
		XMLValidationFile: schema,
	}}
	if diff := cmp.Diff(want, env.backend.renders()); diff != "" {
		t.Errorf("rendered params (-want +got):\n%s", diff)
	}
}

func TestRenderRunConfigMissingKeys(t *testing.T) {
	env := newTestEnv(t)
	runPath := filepath.Join(env.dir, "run.yaml")
	if err := os.WriteFile(runPath, []byte("input_files: [a.csv]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, "render", "--run-config", runPath)
	if err == nil || !strings.Contains(err.Error(), "template_file, output_file") {
		t.Errorf("error = %v", err)
	}
	if len(env.backend.renders()) != 0 {
		t.Error("nothing should be rendered")
	}
}

func TestRenderStats(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "render", "--preset", "spring", "--stats", "-o", "markdown")
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, out)
	}
	for _, want := range []string{"# Backend Call Report", "| execute_rendering_workflow | 1 |", "| get_preset_data | 1 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCommandFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		renderOK bool
		wantErr  string
	}{
		{
			name:     "missing inputs",
			args:     []string{"render", "-t", "/tpl/x.xml"},
			renderOK: true,
			wantErr:  form.MsgSelectInputFiles,
		},
		{
			name:     "xml validation without schema",
			args:     []string{"render", "-i", "/data/a.csv", "-t", "/tpl/x.xml", "--validation", "xml"},
			renderOK: true,
			wantErr:  form.MsgSelectXMLValidation,
		},
		{
			name:     "backend reports failure",
			args:     []string{"render", "-i", "/data/a.csv", "-t", "/tpl/x.xml"},
			renderOK: false,
			wantErr:  errCatalogNotGenerated.Error(),
		},
		{
			name:     "unknown preset",
			args:     []string{"render", "--preset", "autumn"},
			renderOK: true,
			wantErr:  "Loading preset failed",
		},
		{
			name:     "bad validation flag",
			args:     []string{"render", "-i", "/data/a.csv", "--validation", "yaml"},
			renderOK: true,
			wantErr:  "invalid validation type: yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.renderOK = tt.renderOK

			_, err := env.run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPresetsCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "presets", "save", "--name", "winter", "-i", "/data/w.csv", "-t", "/tpl/w.xml")
	if err != nil {
		t.Fatalf("save failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `Preset "winter" saved`) {
		t.Errorf("unexpected save output: %s", out)
	}

	_, err = env.run(t, "presets", "save", "--name", "winter", "-i", "/data/w.csv", "-t", "/tpl/w.xml")
	if err == nil || err.Error() != form.MsgPresetNameDuplicated {
		t.Errorf("duplicate save: %v", err)
	}

	out, err = env.run(t, "presets", "list", "-o", "json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var names struct {
		Presets []string `json:"presets"`
	}
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if diff := cmp.Diff([]string{"spring", "winter"}, names.Presets); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	out, err = env.run(t, "presets", "show", "winter", "-o", "markdown")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "# Preset: winter") || !strings.Contains(out, "/tpl/w.xml") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	if _, err := env.run(t, "presets", "delete", "winter", "--yes"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := env.backend.preset("winter"); ok {
		t.Error("winter should be deleted")
	}
}

func TestPresetsSaveFrom(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "presets", "save", "--from", "spring", "--name", "spring-json", "--validation", "json")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	want := form.Params{
		InputFiles:     []string{"/data/spring.csv"},
		Template:       "/tpl/spring.xml",
		PrettifyOutput: true,
		ValidationType: form.ValidationJSON,
	}
	got, _ := env.backend.preset("spring-json")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("saved preset (-want +got):\n%s", diff)
	}
}

func TestValidationTypesCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "validation-types", "-o", "json")
	if err != nil {
		t.Fatalf("validation-types failed: %v", err)
	}
	var got []form.ValidationOption
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if diff := cmp.Diff(form.DefaultValidationOptions, got); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestBackendUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.url = "ws://127.0.0.1:1/bridge"
	if _, err := env.run(t, "presets", "list"); err == nil {
		t.Error("expected a connection error")
	}
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "catform 1.2.3 (abc123) built on 2024-03-05") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "nested", "catform.yaml")

	if _, err := env.run(t, "config", "init", "--minimal", "--path", path); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.MinimalSampleConfig() {
		t.Error("minimal sample not written")
	}

	if _, err := env.run(t, "config", "init", "--path", path); err == nil {
		t.Error("expected an error for an existing file without --force")
	}
	if _, err := env.run(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", form.ValidationNone, false},
		{"none", form.ValidationNone, false},
		{"XML", form.ValidationXML, false},
		{"json", form.ValidationJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := parseValidation(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseValidation(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		name    string
		state   form.State
		wantErr string
	}{
		{
			name:  "generated",
			state: form.State{Log: "x | " + form.MsgCatalogGenerated + "\n", ShowModal: true, ModalMsg: form.MsgCatalogGenerated},
		},
		{
			name:    "alert",
			state:   form.State{Log: "x | " + form.MsgNoOutputFile + "\n", ShowModal: true, ModalMsg: form.MsgNoOutputFile},
			wantErr: form.MsgNoOutputFile,
		},
		{
			name:    "failed",
			state:   form.State{Log: "x | " + form.MsgCatalogFailed + "\n"},
			wantErr: errCatalogNotGenerated.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := renderOutcome(tt.state)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	cfg := config.DefaultConfig()

	oldNoColor := noColor
	defer func() { noColor = oldNoColor }()

	noColor = false
	cfg.Output.ColorMode = "always"
	if !useColor(cfg) {
		t.Error("always should enable color")
	}
	cfg.Output.ColorMode = "never"
	if useColor(cfg) {
		t.Error("never should disable color")
	}

	cfg.Output.ColorMode = "always"
	noColor = true
	if useColor(cfg) {
		t.Error("--no-color wins over the config")
	}
}
