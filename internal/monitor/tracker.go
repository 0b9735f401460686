// Package monitor times the calls the form makes to the rendering backend
// and reports per-operation counts and latencies.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yildizm/catform/internal/form"
)

// Tracker records timings per operation type
type Tracker struct {
	mu      sync.RWMutex
	timers  map[OperationType]*Timer
	started time.Time
	now     func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		timers:  make(map[OperationType]*Timer),
		started: time.Now(),
		now:     time.Now,
	}
}

func (t *Tracker) timer(op OperationType) *Timer {
	t.mu.RLock()
	timer, ok := t.timers[op]
	t.mu.RUnlock()
	if ok {
		return timer
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok = t.timers[op]; !ok {
		timer = NewTimer(string(op))
		t.timers[op] = timer
	}
	return timer
}

// Track runs fn and records its duration and outcome under op
func (t *Tracker) Track(op OperationType, fn func() error) error {
	start := t.now()
	err := fn()
	t.timer(op).Record(t.now().Sub(start), err != nil)
	return err
}

// Snapshot returns the current metrics, operations sorted by name
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	ops := make([]OperationMetrics, 0, len(t.timers))
	for _, timer := range t.timers {
		ops = append(ops, timer.metrics())
	}
	t.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].Operation < ops[j].Operation })

	now := t.now()
	return Snapshot{
		Timestamp:  now,
		Uptime:     now.Sub(t.started),
		Operations: ops,
	}
}

// Instrument wraps svc so every call is tracked
func (t *Tracker) Instrument(svc form.RenderingService) form.RenderingService {
	return &instrumented{svc: svc, t: t}
}

type instrumented struct {
	svc form.RenderingService
	t   *Tracker
}

func trackValue[T any](t *Tracker, op OperationType, fn func() (T, error)) (T, error) {
	var v T
	err := t.Track(op, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}

func (i *instrumented) ChooseTemplate(ctx context.Context) (string, error) {
	return trackValue(i.t, OperationChooseTemplate, func() (string, error) { return i.svc.ChooseTemplate(ctx) })
}

func (i *instrumented) ChooseInputFiles(ctx context.Context, current []string) ([]string, error) {
	return trackValue(i.t, OperationChooseInputs, func() ([]string, error) { return i.svc.ChooseInputFiles(ctx, current) })
}

func (i *instrumented) ChooseXMLValidationFile(ctx context.Context) (string, error) {
	return trackValue(i.t, OperationChooseSchema, func() (string, error) { return i.svc.ChooseXMLValidationFile(ctx) })
}

func (i *instrumented) ChooseOutputFile(ctx context.Context) (string, error) {
	return trackValue(i.t, OperationChooseOutput, func() (string, error) { return i.svc.ChooseOutputFile(ctx) })
}

func (i *instrumented) ExecuteRenderingWorkflow(ctx context.Context, p form.Params) (bool, error) {
	return trackValue(i.t, OperationRender, func() (bool, error) { return i.svc.ExecuteRenderingWorkflow(ctx, p) })
}

func (i *instrumented) SavePreset(ctx context.Context, name string, p form.Params) error {
	return i.t.Track(OperationSavePreset, func() error { return i.svc.SavePreset(ctx, name, p) })
}

func (i *instrumented) GetPresetData(ctx context.Context, name string) (form.Params, error) {
	return trackValue(i.t, OperationGetPreset, func() (form.Params, error) { return i.svc.GetPresetData(ctx, name) })
}

func (i *instrumented) GetPresetNames(ctx context.Context) ([]string, error) {
	return trackValue(i.t, OperationGetPresetNames, func() ([]string, error) { return i.svc.GetPresetNames(ctx) })
}

func (i *instrumented) DeletePreset(ctx context.Context, name string) error {
	return i.t.Track(OperationDeletePreset, func() error { return i.svc.DeletePreset(ctx, name) })
}

func (i *instrumented) PromptPresetName(ctx context.Context) (string, error) {
	return trackValue(i.t, OperationPromptPresetName, func() (string, error) { return i.svc.PromptPresetName(ctx) })
}

func (i *instrumented) ValidationTypes(ctx context.Context) ([]form.ValidationOption, error) {
	return trackValue(i.t, OperationValidationTypes, func() ([]form.ValidationOption, error) { return i.svc.ValidationTypes(ctx) })
}
