package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/netmgr/internal/qrwifi"
	"github.com/shazow/netmgr/network"
)

// QRModel renders a scannable code for joining a wireless network.
type QRModel struct {
	name string
	code string
}

// NewQRModel renders the code for item with the given passphrase.
func NewQRModel(item connectionItem, passphrase string) (*QRModel, error) {
	ident := network.ParseID(item.ID)
	code, err := qrwifi.Render(ident.ESSID, passphrase, item.Encryption)
	if err != nil {
		return nil, err
	}
	return &QRModel{name: item.Name, code: code}, nil
}

func (m *QRModel) Init() tea.Cmd { return nil }

func (m *QRModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, func() tea.Msg { return popViewMsg{} }
	}
	return m, nil
}

func (m *QRModel) View() string {
	title := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render("Join " + m.name)
	return lipgloss.NewStyle().Margin(1, 2).Render(title + "\n\n" + m.code)
}

func (m *QRModel) IsConsumingInput() bool { return false }
