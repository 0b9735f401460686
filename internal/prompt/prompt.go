// Package prompt asks the user for preset names and selections on a plain
// terminal, outside of the full-screen form.
package prompt

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/yildizm/catform/internal/form"
)

// AskFunc matches survey.AskOne
type AskFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Console runs survey prompts. A prompt interrupted with Ctrl+C is treated as
// dismissed and yields the zero answer.
type Console struct {
	ask  AskFunc
	opts []survey.AskOpt
}

// Option configures a Console
type Option func(*Console)

// WithAsk replaces survey.AskOne
func WithAsk(ask AskFunc) Option {
	return func(c *Console) { c.ask = ask }
}

// WithStdio directs prompts to the given terminal streams
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) Option {
	return func(c *Console) {
		c.opts = append(c.opts, survey.WithStdio(in, out, errOut))
	}
}

// NewConsole creates a console prompting on the process terminal
func NewConsole(opts ...Option) *Console {
	c := &Console{ask: survey.AskOne}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PresetName asks for the name of a new preset
func (c *Console) PresetName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var name string
	q := &survey.Input{
		Message: "Preset name:",
		Help:    "Saves the current form under this name. Leave empty to cancel.",
	}
	if err := c.ask(q, &name, c.opts...); err != nil {
		return "", dismissed(err)
	}
	return strings.TrimSpace(name), nil
}

// SelectPreset lets the user pick one of names; "" when there is nothing to pick
func (c *Console) SelectPreset(ctx context.Context, names []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	var name string
	q := &survey.Select{
		Message:  "Preset:",
		Options:  names,
		PageSize: 10,
	}
	if err := c.ask(q, &name, c.opts...); err != nil {
		return "", dismissed(err)
	}
	return name, nil
}

// Confirm asks a yes/no question, defaulting to no
func (c *Console) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	if err := c.ask(&survey.Confirm{Message: message}, &ok, c.opts...); err != nil {
		return false, dismissed(err)
	}
	return ok, nil
}

func dismissed(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return err
}

// WithConsole wraps svc so preset names are asked on console instead of
// through the backend.
func WithConsole(svc form.RenderingService, console *Console) form.RenderingService {
	return &consoleService{RenderingService: svc, console: console}
}

type consoleService struct {
	form.RenderingService
	console *Console
}

func (s *consoleService) PromptPresetName(ctx context.Context) (string, error) {
	return s.console.PresetName(ctx)
}
