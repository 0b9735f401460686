package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/bridge"
	"github.com/yildizm/catform/internal/config"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/logger"
	"github.com/yildizm/catform/internal/prompt"
)

// session is one connection to the backend with a controller on top of it
type session struct {
	cfg    *config.Config
	client *bridge.Client
	ctrl   *form.Controller
	log    *logger.Logger
}

// wrapService lets a command adjust what the controller sees of the backend
type wrapService func(form.RenderingService) form.RenderingService

// openSession dials the backend and routes its log lines into a new controller
func openSession(ctx context.Context, cfg *config.Config, log *logger.Logger, wrap ...wrapService) (*session, error) {
	client, err := bridge.Dial(ctx, getEndpoint(cfg), nil,
		bridge.WithHandshakeTimeout(cfg.Bridge.HandshakeTimeout),
		bridge.WithWriteTimeout(cfg.Bridge.WriteTimeout),
		bridge.WithClientLogger(log.WithComponent("bridge")),
	)
	if err != nil {
		return nil, err
	}

	var svc form.RenderingService = client
	for _, w := range wrap {
		svc = w(svc)
	}

	initial := form.NewState()
	initial.PrettifyOutput = cfg.Form.PrettifyDefault
	ctrl := form.NewController(svc,
		form.WithStore(form.NewStore(initial)),
		form.WithLogger(log.WithComponent("form")),
	)
	client.SetSink(ctrl)

	return &session{cfg: cfg, client: client, ctrl: ctrl, log: log}, nil
}

func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		s.log.Debug("failed to close backend connection: %v", err)
	}
}

// alert returns the modal message raised since the command started, if any
func (s *session) alert() error {
	st := s.ctrl.State()
	if st.ShowModal {
		return fmt.Errorf("%s", st.ModalMsg)
	}
	return nil
}

// withConsole answers preset name prompts on the terminal
func withConsole(svc form.RenderingService) form.RenderingService {
	return prompt.WithConsole(svc, prompt.NewConsole())
}

// fixedName answers preset name prompts with name
type fixedName struct {
	form.RenderingService
	name string
}

func (f *fixedName) PromptPresetName(context.Context) (string, error) {
	return f.name, nil
}

// fixedOutput answers the output file dialog with path
type fixedOutput struct {
	form.RenderingService
	path string
}

func (f *fixedOutput) ChooseOutputFile(context.Context) (string, error) {
	return f.path, nil
}

// logEcho prints activity log lines as they are appended
type logEcho struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
}

func (e *logEcho) onState(s form.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(s.Log) <= e.printed {
		return
	}
	fmt.Fprint(e.out, s.Log[e.printed:])
	e.printed = len(s.Log)
}

// formFlags are the form fields settable from the command line
type formFlags struct {
	inputs     []string
	template   string
	validation string
	schema     string
	noPrettify bool
}

func (f *formFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.inputs, "input", "i", nil, "input data file (repeatable)")
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "template file")
	cmd.Flags().StringVar(&f.validation, "validation", "", "validation type (none, xml, json)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "XML schema used for xml validation")
	cmd.Flags().BoolVar(&f.noPrettify, "no-prettify", false, "do not pretty-print the output")
}

// parseValidation maps the flag value to a form validation type
func parseValidation(v string) (string, error) {
	switch strings.ToLower(v) {
	case "", "none":
		return form.ValidationNone, nil
	case form.ValidationXML:
		return form.ValidationXML, nil
	case form.ValidationJSON:
		return form.ValidationJSON, nil
	default:
		return "", fmt.Errorf("invalid validation type: %s (must be one of: none, xml, json)", v)
	}
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(config.ExpandPath(p)); err == nil {
		return abs
	}
	return p
}

// apply sets the flags that were given on the form through the controller
func (f *formFlags) apply(cmd *cobra.Command, ctrl *form.Controller) error {
	validation, err := parseValidation(f.validation)
	if err != nil {
		return err
	}

	if len(f.inputs) > 0 {
		inputs := make([]string, 0, len(f.inputs))
		for _, in := range f.inputs {
			inputs = append(inputs, absPath(in))
		}
		ctrl.SetInputFiles(inputs)
	}
	if f.template != "" {
		ctrl.SetTemplate(absPath(f.template))
	}
	if cmd.Flags().Changed("validation") {
		ctrl.SetValidationType(validation)
	}
	if f.schema != "" {
		ctrl.SetValidationFile(absPath(f.schema))
	}
	if f.noPrettify {
		ctrl.SetPrettify(false)
	}
	return nil
}
