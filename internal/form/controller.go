package form

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yildizm/catform/internal/logger"
)

// Messages written to the activity log
const (
	MsgSelectInputFiles     = "Please select input files!"
	MsgSelectXMLValidation  = "Please select an XML validation file!"
	MsgFillRequired         = "Please fill all required fields!"
	MsgNoOutputFile         = "No output file selected!"
	MsgCatalogGenerated     = "The catalog has been generated."
	MsgCatalogFailed        = "Error during catalog generation."
	MsgInputFileRemoved     = "Input file removed."
	MsgPresetNameRequired   = "You must enter a name for the preset!"
	MsgPresetNameDuplicated = "Preset name already exists. Please choose a different name!"
)

const logTimestampLayout = "2006-01-02 15:04"

// Controller mediates between UI events and the RenderingService. It never
// returns errors: every failure ends up in the activity log.
type Controller struct {
	svc   RenderingService
	store *Store
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithStore makes the controller operate on an existing store
func WithStore(s *Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithClock overrides the clock used for log timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the diagnostic logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a controller backed by svc
func NewController(svc RenderingService, opts ...Option) *Controller {
	c := &Controller{
		svc: svc,
		now: time.Now,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewStore(NewState())
	}
	return c
}

// Store returns the store the controller mutates
func (c *Controller) Store() *Store {
	return c.store
}

// State returns a snapshot of the current form state
func (c *Controller) State() State {
	return c.store.Snapshot()
}

// UpdateLog appends a timestamped line to the activity log and, for alerts,
// raises the modal. It is also the entry point for backend log messages.
func (c *Controller) UpdateLog(msg string, isAlert bool) {
	line := fmt.Sprintf("%s | %s\n", c.now().Local().Format(logTimestampLayout), msg)
	c.store.Update(func(s *State) {
		s.Log += line
		if isAlert {
			s.ShowModal = true
			s.ModalMsg = msg
		}
	})
}

// DismissModal hides the alert modal
func (c *Controller) DismissModal() {
	c.store.Update(func(s *State) {
		s.ShowModal = false
	})
}

func (c *Controller) setLoading(v bool) {
	c.store.Update(func(s *State) { s.IsLoading = v })
}

// busy marks the form busy and returns the function that clears it
func (c *Controller) busy() func() {
	c.setLoading(true)
	return func() { c.setLoading(false) }
}

// fail reports a collaborator error to the user and the diagnostic log
func (c *Controller) fail(op string, err error) {
	c.log.ErrorWithFields("backend call failed", []logger.Field{logger.F("operation", op), logger.Error(err)})
	c.UpdateLog(fmt.Sprintf("%s failed: %v", op, err), true)
}

// ChooseTemplate asks the backend for a template path and stores whatever it returns
func (c *Controller) ChooseTemplate(ctx context.Context) {
	defer c.busy()()

	path, err := c.svc.ChooseTemplate(ctx)
	if err != nil {
		c.fail("Choosing template", err)
		return
	}
	c.store.Update(func(s *State) { s.Template = path })
	c.UpdateLog(fmt.Sprintf("New template file loaded: %s", displayPath(path)), false)
}

// ChooseInputFiles lets the backend update the input list. A cancelled
// dialog (nil or empty result) keeps the previous selection.
func (c *Controller) ChooseInputFiles(ctx context.Context) {
	defer c.busy()()

	current := c.store.Snapshot().InputFiles
	files, err := c.svc.ChooseInputFiles(ctx, current)
	if err != nil {
		c.fail("Choosing input files", err)
		return
	}

	var result []string
	c.store.Update(func(s *State) {
		if len(files) > 0 {
			s.InputFiles = cloneStrings(files)
		}
		result = cloneStrings(s.InputFiles)
	})
	c.UpdateLog(fmt.Sprintf("New input files loaded: %s", jsonList(result)), false)
}

// ChooseValidationFile stores the backend's answer, including an empty one
func (c *Controller) ChooseValidationFile(ctx context.Context) {
	defer c.busy()()

	path, err := c.svc.ChooseXMLValidationFile(ctx)
	if err != nil {
		c.fail("Choosing validation file", err)
		return
	}
	c.store.Update(func(s *State) { s.XMLValidationFile = path })
	c.UpdateLog(fmt.Sprintf("New validation file chosen: %s", displayPath(path)), false)
}

// RemoveFile drops the input at index. Indices outside the list are ignored.
func (c *Controller) RemoveFile(index int) {
	removed := false
	c.store.Update(func(s *State) {
		if index < 0 || index >= len(s.InputFiles) {
			return
		}
		files := make([]string, 0, len(s.InputFiles)-1)
		files = append(files, s.InputFiles[:index]...)
		files = append(files, s.InputFiles[index+1:]...)
		s.InputFiles = files
		removed = true
	})
	if removed {
		c.UpdateLog(MsgInputFileRemoved, false)
	}
}

// ResetPresetSelection puts the selector back on the placeholder
func (c *Controller) ResetPresetSelection() {
	c.store.Update(resetPreset)
}

func resetPreset(s *State) {
	s.PresetSelection = PresetPlaceholder
	s.ActivePreset = ""
}

// SelectPreset moves the selector without loading anything
func (c *Controller) SelectPreset(name string) {
	c.store.Update(func(s *State) {
		if name == "" {
			s.PresetSelection = PresetPlaceholder
			return
		}
		s.PresetSelection = name
	})
}

// SetPrettify sets whether output is pretty-printed
func (c *Controller) SetPrettify(v bool) {
	c.store.Update(func(s *State) { s.PrettifyOutput = v })
}

// SetValidationType sets the validation mode; "" disables validation
func (c *Controller) SetValidationType(v string) {
	c.store.Update(func(s *State) { s.ValidationType = v })
}

// SetInputFiles replaces the input file list
func (c *Controller) SetInputFiles(files []string) {
	files = cloneStrings(files)
	if files == nil {
		files = []string{}
	}
	c.store.Update(func(s *State) { s.InputFiles = files })
}

// SetTemplate sets the template path
func (c *Controller) SetTemplate(path string) {
	c.store.Update(func(s *State) { s.Template = path })
}

// SetValidationFile sets the XML schema path
func (c *Controller) SetValidationFile(path string) {
	c.store.Update(func(s *State) { s.XMLValidationFile = path })
}

// ValidateForm checks the form is ready to submit. The first failing check
// is the only one reported.
func (c *Controller) ValidateForm() bool {
	s := c.store.Snapshot()
	if msg := validationMessage(&s); msg != "" {
		c.UpdateLog(msg, true)
		return false
	}
	return true
}

func validationMessage(s *State) string {
	if len(s.InputFiles) == 0 {
		return MsgSelectInputFiles
	}
	if s.RequiresXMLValidation() && s.XMLValidationFile == "" {
		return MsgSelectXMLValidation
	}
	if !(len(s.InputFiles) > 0 && s.Template != "") {
		return MsgFillRequired
	}
	return ""
}

// SubmitForm validates, asks for an output path and runs the render workflow
func (c *Controller) SubmitForm(ctx context.Context) {
	defer c.busy()()

	if !c.ValidateForm() {
		return
	}

	output, err := c.svc.ChooseOutputFile(ctx)
	if err != nil {
		c.fail("Choosing output file", err)
		return
	}
	var params Params
	c.store.Update(func(s *State) {
		s.OutputFile = output
		params = s.Params()
	})
	if output == "" {
		c.UpdateLog(MsgNoOutputFile, true)
		return
	}

	c.log.InfoWithFields("starting render", []logger.Field{logger.Count(len(params.InputFiles)), logger.F("output", output)})
	started := c.now()
	ok, err := c.svc.ExecuteRenderingWorkflow(ctx, params)
	if err != nil {
		c.fail("Rendering", err)
		return
	}
	c.log.DebugWithFields("render finished", []logger.Field{logger.F("ok", ok), logger.Duration(c.now().Sub(started))})

	if ok {
		c.UpdateLog(MsgCatalogGenerated, true)
	} else {
		c.UpdateLog(MsgCatalogFailed, false)
	}
}

// SavePreset stores the current parameters under a name the user provides
func (c *Controller) SavePreset(ctx context.Context) {
	if !c.ValidateForm() {
		return
	}

	name, err := c.svc.PromptPresetName(ctx)
	if err != nil {
		c.fail("Reading preset name", err)
		return
	}
	s := c.store.Snapshot()
	if name == "" {
		c.UpdateLog(MsgPresetNameRequired, true)
		return
	}
	if s.HasPreset(name) {
		c.UpdateLog(MsgPresetNameDuplicated, true)
		return
	}

	if err := c.svc.SavePreset(ctx, name, s.Params()); err != nil {
		c.fail("Saving preset", err)
		return
	}
	if !c.refreshPresetNames(ctx) {
		return
	}
	c.store.Update(func(s *State) {
		s.PresetSelection = name
		s.ActivePreset = name
	})
}

// LoadPreset replaces all six form parameters with the stored tuple
func (c *Controller) LoadPreset(ctx context.Context, name string) {
	params, err := c.svc.GetPresetData(ctx, name)
	if err != nil {
		c.fail("Loading preset", err)
		return
	}
	c.store.Update(func(s *State) {
		s.ApplyParams(params)
		s.ActivePreset = name
		s.PresetSelection = name
	})
}

// RefreshPresetNames reloads the known preset names and resets the selector
func (c *Controller) RefreshPresetNames(ctx context.Context) {
	c.refreshPresetNames(ctx)
}

func (c *Controller) refreshPresetNames(ctx context.Context) bool {
	names, err := c.svc.GetPresetNames(ctx)
	if err != nil {
		c.fail("Loading preset names", err)
		return false
	}
	c.store.Update(func(s *State) {
		s.AllPresetNames = uniqueStrings(names)
		resetPreset(s)
	})
	return true
}

// DeletePreset removes a stored preset and refreshes the selector
func (c *Controller) DeletePreset(ctx context.Context, name string) {
	if name == "" || name == PresetPlaceholder {
		return
	}
	if err := c.svc.DeletePreset(ctx, name); err != nil {
		c.fail("Deleting preset", err)
		return
	}
	c.RefreshPresetNames(ctx)
}

// RefreshValidationTypes loads the validation modes the backend supports
func (c *Controller) RefreshValidationTypes(ctx context.Context) {
	opts, err := c.svc.ValidationTypes(ctx)
	if err != nil {
		c.fail("Loading validation types", err)
		return
	}
	c.store.Update(func(s *State) {
		s.ValidationTypes = append([]ValidationOption(nil), opts...)
	})
}

func displayPath(p string) string {
	if p == "" {
		return "null"
	}
	return p
}

func jsonList(files []string) string {
	if files == nil {
		files = []string{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Sprint(files)
	}
	return string(data)
}
