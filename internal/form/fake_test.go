package form

import (
	"context"
	"errors"
	"sync"
)

// fakeService is an in-memory RenderingService whose dialog answers are scripted
type fakeService struct {
	mu sync.Mutex

	template       string
	inputFiles     []string
	validationFile string
	outputFile     string
	renderOK       bool
	presetName     string
	validation     []ValidationOption
	err            error
	namesErr       error

	presets     map[string]Params
	presetOrder []string
	rendered    []Params
	seenCurrent [][]string

	// loadingDuringCall records the busy flag seen inside each dialog call
	store             *Store
	loadingDuringCall []bool
}

func newFakeService() *fakeService {
	return &fakeService{presets: make(map[string]Params)}
}

func (f *fakeService) observe() {
	if f.store != nil {
		f.loadingDuringCall = append(f.loadingDuringCall, f.store.Snapshot().IsLoading)
	}
}

func (f *fakeService) ChooseTemplate(ctx context.Context) (string, error) {
	f.observe()
	return f.template, f.err
}

func (f *fakeService) ChooseInputFiles(ctx context.Context, current []string) ([]string, error) {
	f.observe()
	f.seenCurrent = append(f.seenCurrent, current)
	return f.inputFiles, f.err
}

func (f *fakeService) ChooseXMLValidationFile(ctx context.Context) (string, error) {
	f.observe()
	return f.validationFile, f.err
}

func (f *fakeService) ChooseOutputFile(ctx context.Context) (string, error) {
	f.observe()
	return f.outputFile, f.err
}

func (f *fakeService) ExecuteRenderingWorkflow(ctx context.Context, p Params) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.rendered = append(f.rendered, p)
	return f.renderOK, nil
}

func (f *fakeService) SavePreset(ctx context.Context, name string, p Params) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.presets[name]; !ok {
		f.presetOrder = append(f.presetOrder, name)
	}
	f.presets[name] = p
	return nil
}

func (f *fakeService) GetPresetData(ctx context.Context, name string) (Params, error) {
	if f.err != nil {
		return Params{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.presets[name]
	if !ok {
		return Params{}, errors.New("unknown preset")
	}
	return p, nil
}

func (f *fakeService) GetPresetNames(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.presetOrder...), nil
}

func (f *fakeService) DeletePreset(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.presets, name)
	order := f.presetOrder[:0]
	for _, n := range f.presetOrder {
		if n != name {
			order = append(order, n)
		}
	}
	f.presetOrder = order
	return nil
}

func (f *fakeService) PromptPresetName(ctx context.Context) (string, error) {
	return f.presetName, f.err
}

func (f *fakeService) ValidationTypes(ctx context.Context) ([]ValidationOption, error) {
	return f.validation, f.err
}
