package monitor

import (
	"sync/atomic"
	"time"
)

// OperationType names one backend call the form makes
type OperationType string

const (
	OperationChooseTemplate   OperationType = "choose_template"
	OperationChooseInputs     OperationType = "choose_input_files"
	OperationChooseSchema     OperationType = "choose_xml_validation_file"
	OperationChooseOutput     OperationType = "choose_output_file"
	OperationRender           OperationType = "execute_rendering_workflow"
	OperationSavePreset       OperationType = "save_preset"
	OperationGetPreset        OperationType = "get_preset_data"
	OperationGetPresetNames   OperationType = "get_preset_names"
	OperationDeletePreset     OperationType = "delete_preset"
	OperationPromptPresetName OperationType = "prompt_preset_name"
	OperationValidationTypes  OperationType = "validation_types"
)

// OperationMetrics holds metrics for one operation type
type OperationMetrics struct {
	Operation    OperationType `json:"operation"`
	Count        int64         `json:"count"`
	TotalTime    int64         `json:"total_time_ns"`
	MinTime      int64         `json:"min_time_ns"`
	MaxTime      int64         `json:"max_time_ns"`
	AvgTime      int64         `json:"avg_time_ns"`
	ErrorCount   int64         `json:"error_count"`
	SuccessCount int64         `json:"success_count"`
}

// Snapshot is a point-in-time view of all tracked operations
type Snapshot struct {
	Timestamp  time.Time          `json:"timestamp"`
	Uptime     time.Duration      `json:"uptime_ns"`
	Operations []OperationMetrics `json:"operations"`
}

// Totals sums calls and failures over all operations
func (s Snapshot) Totals() (calls, failed int64) {
	for _, op := range s.Operations {
		calls += op.Count
		failed += op.ErrorCount
	}
	return calls, failed
}

const noMinTime = int64(^uint64(0) >> 1)

// Timer is a thread-safe timer for measuring operation durations
type Timer struct {
	count     int64
	errors    int64
	totalTime int64
	minTime   int64
	maxTime   int64
	name      string
}

// NewTimer creates a new timer metric
func NewTimer(name string) *Timer {
	return &Timer{
		name:    name,
		minTime: noMinTime,
	}
}

// Record records a duration measurement
func (t *Timer) Record(duration time.Duration, failed bool) {
	nanos := duration.Nanoseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTime, nanos)
	if failed {
		atomic.AddInt64(&t.errors, 1)
	}

	for {
		current := atomic.LoadInt64(&t.minTime)
		if nanos >= current || atomic.CompareAndSwapInt64(&t.minTime, current, nanos) {
			break
		}
	}

	for {
		current := atomic.LoadInt64(&t.maxTime)
		if nanos <= current || atomic.CompareAndSwapInt64(&t.maxTime, current, nanos) {
			break
		}
	}
}

// Count returns the number of recorded measurements
func (t *Timer) Count() int64 {
	return atomic.LoadInt64(&t.count)
}

// Errors returns how many measurements were failures
func (t *Timer) Errors() int64 {
	return atomic.LoadInt64(&t.errors)
}

// TotalTime returns the total time of all measurements
func (t *Timer) TotalTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.totalTime))
}

// MinTime returns the minimum recorded time
func (t *Timer) MinTime() time.Duration {
	minTime := atomic.LoadInt64(&t.minTime)
	if minTime == noMinTime {
		return 0
	}
	return time.Duration(minTime)
}

// MaxTime returns the maximum recorded time
func (t *Timer) MaxTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.maxTime))
}

// AvgTime returns the average time of all measurements
func (t *Timer) AvgTime() time.Duration {
	count := atomic.LoadInt64(&t.count)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&t.totalTime) / count)
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

func (t *Timer) metrics() OperationMetrics {
	count := t.Count()
	errs := t.Errors()
	return OperationMetrics{
		Operation:    OperationType(t.name),
		Count:        count,
		TotalTime:    t.TotalTime().Nanoseconds(),
		MinTime:      t.MinTime().Nanoseconds(),
		MaxTime:      t.MaxTime().Nanoseconds(),
		AvgTime:      t.AvgTime().Nanoseconds(),
		ErrorCount:   errs,
		SuccessCount: count - errs,
	}
}
