package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/netmgr/network"
)

// PromptModel asks for the passphrase of a connection that is being
// connected. The answer is delivered exactly once on reply.
type PromptModel struct {
	name     string
	input    textinput.Model
	reply    chan<- promptReply
	answered bool
}

// NewPromptModel creates a passphrase prompt for the connection id.
func NewPromptModel(id string, reply chan<- promptReply) *PromptModel {
	ident := network.ParseID(id)
	ti := textinput.New()
	ti.Placeholder = "Passphrase"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 63
	ti.Focus()
	return &PromptModel{
		name:  ident.Name,
		input: ti,
		reply: reply,
	}
}

func (m *PromptModel) Init() tea.Cmd { return textinput.Blink }

func (m *PromptModel) answer(passphrase string, ok bool) tea.Cmd {
	if !m.answered {
		m.answered = true
		m.reply <- promptReply{passphrase: passphrase, ok: ok}
	}
	return func() tea.Msg { return popViewMsg{} }
}

func (m *PromptModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			if m.input.Value() == "" {
				return m, nil
			}
			return m, m.answer(m.input.Value(), true)
		case tea.KeyEsc:
			return m, m.answer("", false)
		case tea.KeyCtrlT:
			if m.input.EchoMode == textinput.EchoPassword {
				m.input.EchoMode = textinput.EchoNormal
			} else {
				m.input.EchoMode = textinput.EchoPassword
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// OnLeave cancels the prompt if the view is dismissed without an answer.
func (m *PromptModel) OnLeave() tea.Cmd {
	if !m.answered {
		m.answered = true
		m.reply <- promptReply{}
	}
	return nil
}

func (m *PromptModel) View() string {
	title := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).
		Render(fmt.Sprintf("Passphrase for %s", m.name))
	help := lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).
		Render("enter: connect • esc: cancel • ctrl+t: show")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		BorderForeground(CurrentTheme.Border).
		Padding(1, 2).
		Render(title + "\n\n" + m.input.View() + "\n\n" + help)
	return lipgloss.NewStyle().Margin(1, 2).Render(box)
}

func (m *PromptModel) IsConsumingInput() bool { return true }
