package form

import "context"

// RenderingService is the backend the controller delegates to. It owns the
// file dialogs, template rendering, output validation and preset storage.
//
// A cancelled dialog is reported as an empty result, not as an error. Errors
// mean the call itself could not be completed.
type RenderingService interface {
	ChooseTemplate(ctx context.Context) (string, error)
	// ChooseInputFiles may use current to pre-seed the dialog; nil or empty means cancelled
	ChooseInputFiles(ctx context.Context, current []string) ([]string, error)
	ChooseXMLValidationFile(ctx context.Context) (string, error)
	ChooseOutputFile(ctx context.Context) (string, error)
	ExecuteRenderingWorkflow(ctx context.Context, p Params) (bool, error)

	SavePreset(ctx context.Context, name string, p Params) error
	GetPresetData(ctx context.Context, name string) (Params, error)
	GetPresetNames(ctx context.Context) ([]string, error)
	DeletePreset(ctx context.Context, name string) error

	// PromptPresetName asks the user for a preset name; "" when dismissed
	PromptPresetName(ctx context.Context) (string, error)
	ValidationTypes(ctx context.Context) ([]ValidationOption, error)
}

// LogSink accepts activity log lines, optionally raising the alert modal.
// The backend reaches the controller through it.
type LogSink interface {
	UpdateLog(msg string, isAlert bool)
}
