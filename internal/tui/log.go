package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	netlog "github.com/shazow/netmgr/internal/log"
)

// LogViewModel shows the most recent log records.
type LogViewModel struct {
	logs func() []slog.Record
}

// NewLogViewModel creates a new LogViewModel reading the default logger's
// records.
func NewLogViewModel() *LogViewModel {
	return &LogViewModel{logs: netlog.Logs}
}

func (m *LogViewModel) Init() tea.Cmd { return nil }

func (m *LogViewModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "l":
			return m, func() tea.Msg { return popViewMsg{} }
		}
	}
	// New records arrive as LogMsg and are picked up on the next View.
	return m, nil
}

func (m *LogViewModel) View() string {
	var s strings.Builder
	s.WriteString("Latest logs (press 'q' to return):\n\n")

	for _, r := range m.logs() {
		var style lipgloss.Style
		switch {
		case r.Level >= slog.LevelError:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
		case r.Level < slog.LevelInfo:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Subtle)
		default:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
		}
		s.WriteString(style.Render(fmt.Sprintf("%s [%s] %s", r.Time.Format("15:04:05"), r.Level, r.Message)))
		r.Attrs(func(a slog.Attr) bool {
			s.WriteString(style.Render(fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())))
			return true
		})
		s.WriteString("\n")
	}
	return lipgloss.NewStyle().Margin(1, 2).Render(s.String())
}

func (m *LogViewModel) IsConsumingInput() bool { return false }
