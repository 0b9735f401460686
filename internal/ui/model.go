package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/catform/internal/emoji"
	"github.com/yildizm/catform/internal/form"
)

// logLines is how many trailing activity log lines the form shows
const logLines = 8

// Spinner characters
var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FormModel is the terminal rendition of the catalog form
type FormModel struct {
	ctx    context.Context
	ctrl   *form.Controller
	state  form.State
	styles *Styles

	width    int
	height   int
	cursor   int
	quitting bool

	spinnerFrame int
}

// NewFormModel creates a model showing ctrl's form
func NewFormModel(ctx context.Context, ctrl *form.Controller) *FormModel {
	return &FormModel{
		ctx:    ctx,
		ctrl:   ctrl,
		state:  ctrl.State(),
		styles: GetStyles(),
	}
}

// Init loads presets and validation types and starts the spinner
func (m *FormModel) Init() tea.Cmd {
	return tea.Batch(
		m.run(m.ctrl.RefreshValidationTypes),
		m.run(m.ctrl.RefreshPresetNames),
		tick(),
	)
}

func (m *FormModel) run(op func(context.Context)) tea.Cmd {
	return controllerCmd(m.ctx, op)
}

// do wraps a controller call that needs no context
func (m *FormModel) do(op func()) tea.Cmd {
	return m.run(func(context.Context) { op() })
}

// Update handles messages
func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case stateMsg:
		m.setState(msg.state)

	case opDoneMsg:
		m.setState(m.ctrl.State())

	case tickMsg:
		if m.state.IsLoading {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerChars)
		}
		return m, tick()
	}

	return m, nil
}

func (m *FormModel) setState(s form.State) {
	m.state = s
	if m.cursor >= len(s.InputFiles) {
		m.cursor = max(0, len(s.InputFiles)-1)
	}
}

// handleKeyPress maps keys to controller operations
func (m *FormModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "q" || key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.state.ShowModal {
		switch key {
		case "enter", "esc", " ":
			return m, m.do(m.ctrl.DismissModal)
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.state.InputFiles)-1 {
			m.cursor++
		}
		return m, nil
	}

	// the remaining keys start controller work; one call at a time
	if m.state.IsLoading {
		return m, nil
	}

	switch key {
	case "t":
		return m, m.run(m.ctrl.ChooseTemplate)
	case "i":
		return m, m.run(m.ctrl.ChooseInputFiles)
	case "v":
		return m, m.run(m.ctrl.ChooseValidationFile)
	case "x":
		if len(m.state.InputFiles) == 0 {
			return m, nil
		}
		index := m.cursor
		return m, m.do(func() { m.ctrl.RemoveFile(index) })
	case "p":
		prettify := !m.state.PrettifyOutput
		return m, m.do(func() { m.ctrl.SetPrettify(prettify) })
	case "m":
		next := nextValidationType(m.state)
		return m, m.do(func() { m.ctrl.SetValidationType(next) })
	case "s":
		return m, m.run(m.ctrl.SubmitForm)
	case "S":
		return m, m.run(m.ctrl.SavePreset)
	case "tab":
		next := nextPreset(m.state)
		return m, m.do(func() { m.ctrl.SelectPreset(next) })
	case "enter":
		name := m.selectedPreset()
		if name == "" {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { m.ctrl.LoadPreset(ctx, name) })
	case "D":
		name := m.selectedPreset()
		if name == "" {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { m.ctrl.DeletePreset(ctx, name) })
	case "r":
		return m, m.run(m.ctrl.RefreshPresetNames)
	}

	return m, nil
}

// selectedPreset is the selector value, or "" on the placeholder
func (m *FormModel) selectedPreset() string {
	if m.state.PresetSelection == form.PresetPlaceholder {
		return ""
	}
	return m.state.PresetSelection
}

// nextValidationType cycles none -> each offered type -> none
func nextValidationType(s form.State) string {
	values := []string{form.ValidationNone}
	for _, opt := range s.ValidationTypes {
		values = append(values, opt.Value)
	}
	return cycle(values, s.ValidationType)
}

// nextPreset cycles the selector through the placeholder and all names
func nextPreset(s form.State) string {
	values := append([]string{form.PresetPlaceholder}, s.AllPresetNames...)
	next := cycle(values, s.PresetSelection)
	if next == form.PresetPlaceholder {
		return ""
	}
	return next
}

func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// View renders the form
func (m *FormModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderFields(),
		m.renderLog(),
		m.styles.render(m.styles.Help, helpLine),
	}
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.state.ShowModal {
		return m.renderModal(view)
	}
	return view
}

const helpLine = "t template • i inputs • v schema • ↑/↓ select • x remove • p prettify • m validation • " +
	"s generate • S save preset • tab preset • enter load • D delete • r refresh • q quit"

func (m *FormModel) renderHeader() string {
	title := m.styles.render(m.styles.Title, emoji.GetEmoji("rocket")+" catform")
	if m.state.IsLoading {
		busy := m.styles.render(m.styles.Busy, spinnerChars[m.spinnerFrame]+" working...")
		return title + " " + busy + "\n"
	}
	return title + "\n"
}

func (m *FormModel) field(label, value string, required bool) string {
	rendered := m.styles.render(m.styles.Value, value)
	if value == "" {
		text := "(not selected)"
		style := m.styles.Unset
		if required {
			text = "(required)"
			style = m.styles.Required
		}
		rendered = m.styles.render(style, text)
	}
	return m.styles.render(m.styles.Label, label) + rendered
}

func (m *FormModel) renderFields() string {
	s := m.state
	var b strings.Builder

	b.WriteString(m.field(emoji.GetEmoji("template")+" Template", s.Template, true) + "\n")

	b.WriteString(m.styles.render(m.styles.Label, fmt.Sprintf("%s Inputs (%d)", emoji.GetEmoji("input"), len(s.InputFiles))))
	if len(s.InputFiles) == 0 {
		b.WriteString(m.styles.render(m.styles.Required, "(required)"))
	}
	b.WriteString("\n")
	for i, f := range s.InputFiles {
		line := "   " + f
		if i == m.cursor {
			line = m.styles.render(m.styles.Cursor, " > "+f)
		}
		b.WriteString(line + "\n")
	}

	validation := "none"
	for _, opt := range s.ValidationTypes {
		if opt.Value == s.ValidationType && s.ValidationType != "" {
			validation = opt.Text
		}
	}
	b.WriteString(m.field(emoji.GetEmoji("validation")+" Validation", validation, false) + "\n")
	if s.RequiresXMLValidation() {
		b.WriteString(m.field(emoji.GetEmoji("schema")+" Schema", s.XMLValidationFile, true) + "\n")
	}

	check := "[ ]"
	if s.PrettifyOutput {
		check = "[x]"
	}
	b.WriteString(m.field("Prettify", check, false) + "\n")
	b.WriteString(m.field(emoji.GetEmoji("output")+" Output", s.OutputFile, false) + "\n")

	preset := m.styles.render(m.styles.Preset, "< "+s.PresetSelection+" >")
	if s.ActivePreset != "" {
		preset += m.styles.render(m.styles.Unset, "  active: "+s.ActivePreset)
	}
	b.WriteString(m.styles.render(m.styles.Label, emoji.GetEmoji("preset")+" Preset") + preset + "\n")

	return b.String()
}

func (m *FormModel) renderLog() string {
	lines := strings.Split(strings.TrimRight(m.state.Log, "\n"), "\n")
	if len(lines) > logLines {
		lines = lines[len(lines)-logLines:]
	}
	body := emoji.GetEmoji("log") + " Activity\n" + strings.Join(lines, "\n")

	style := m.styles.Log
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return m.styles.render(style, body)
}

func (m *FormModel) renderModal(background string) string {
	box := m.styles.render(m.styles.Modal,
		emoji.GetEmoji("warning")+" "+m.state.ModalMsg+"\n\n"+m.styles.render(m.styles.Help, "enter to close"))
	if m.width == 0 || m.height == 0 {
		return background + "\n" + box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Run shows the form until the user quits or ctx is cancelled
func Run(ctx context.Context, ctrl *form.Controller) error {
	model := NewFormModel(ctx, ctrl)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := ctrl.Store().Subscribe(func(s form.State) {
		p.Send(stateMsg{state: s})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("form UI failed: %w", err)
	}
	return nil
}
