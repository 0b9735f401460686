package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/catform/internal/form"
)

// stateMsg carries a store snapshot into the program
type stateMsg struct {
	state form.State
}

// opDoneMsg reports that a controller call has returned
type opDoneMsg struct{}

// Animation message
type tickMsg time.Time

// Animation command
func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// controllerCmd runs op off the event loop. The store reports its changes
// through Program.Send, which must never be called from Update.
func controllerCmd(ctx context.Context, op func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		op(ctx)
		return opDoneMsg{}
	}
}
