package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/netmgr/network"
)

// ErrorModel shows a failed operation until any key is pressed.
type ErrorModel struct {
	title string
	err   error
}

func NewErrorModel(err error) *ErrorModel {
	return &ErrorModel{title: errorTitle(err), err: err}
}

// errorTitle names the failure by the sentinel it wraps.
func errorTitle(err error) string {
	switch {
	case errors.Is(err, network.ErrOperationFailed):
		return "Could not connect"
	case errors.Is(err, network.ErrNotSupported):
		return "Not supported by this backend"
	case errors.Is(err, network.ErrNotFound):
		return "Connection not found"
	case errors.Is(err, network.ErrNotAvailable):
		return "Network unavailable"
	}
	return "Something went wrong"
}

func (m *ErrorModel) Init() tea.Cmd { return nil }

func (m *ErrorModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, func() tea.Msg { return popViewMsg{} }
	}
	return m, nil
}

func (m *ErrorModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Error).Render(m.title)
	body := lipgloss.NewStyle().Foreground(CurrentTheme.Normal).Width(60).Render(m.err.Error())
	hint := lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render("press any key to go back")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Error).
		Padding(0, 1)
	return lipgloss.NewStyle().Margin(1, 2).Render(
		box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint)),
	)
}

func (m *ErrorModel) IsConsumingInput() bool { return false }
