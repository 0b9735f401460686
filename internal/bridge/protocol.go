// Package bridge carries RenderingService calls between the form and the
// backend process over a websocket. Both ends may call the other: the form
// calls the backend's dialog, render and preset methods, and the backend
// calls updateLog to push activity lines into the form.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Method names understood by the backend
const (
	MethodChooseTemplate          = "choose_template"
	MethodChooseInputFiles        = "choose_input_files"
	MethodChooseXMLValidationFile = "choose_xml_validation_file"
	MethodChooseOutputFile        = "choose_output_file"
	MethodExecuteRendering        = "execute_rendering_workflow"
	MethodSavePreset              = "save_preset"
	MethodGetPresetData           = "get_preset_data"
	MethodGetPresetNames          = "get_preset_names"
	MethodDeletePreset            = "delete_preset"
	MethodPromptPresetName        = "prompt_preset_name"
	MethodValidationTypes         = "validation_types"

	// MethodUpdateLog is the one method the form exposes to the backend
	MethodUpdateLog = "updateLog"
)

// Frame types
const (
	frameCall  = "call"
	frameReply = "reply"
)

// frame is one websocket text message. ID 0 marks a notification that
// expects no reply.
type frame struct {
	ID     uint64          `json:"id"`
	Type   string          `json:"type"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

var (
	// ErrClosed is returned for calls on, or pending on, a closed connection
	ErrClosed = errors.New("bridge: connection closed")
	// ErrUnknownPreset is returned when the backend has no data for a preset name
	ErrUnknownPreset = errors.New("bridge: unknown preset")
)

// RemoteError is an error reported by the other end of the bridge
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// errUnknownMethod builds the reply error for methods a side does not expose
func errUnknownMethod(method string) error {
	return fmt.Errorf("unknown method %q", method)
}

// decodeArgs splits a positional params array. Missing trailing arguments
// are left as nil so callers can apply defaults.
func decodeArgs(params json.RawMessage, n int) ([]json.RawMessage, error) {
	args := make([]json.RawMessage, n)
	if len(params) == 0 || string(params) == "null" {
		return args, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, fmt.Errorf("params must be an array: %w", err)
	}
	if len(raw) > n {
		return nil, fmt.Errorf("expected at most %d params, got %d", n, len(raw))
	}
	copy(args, raw)
	return args, nil
}

// decodeArg unmarshals one positional argument; a missing one leaves dst untouched
func decodeArg(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
