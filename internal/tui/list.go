package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/shazow/netmgr/network"
)

const nameColumnWidth = 30

// itemDelegate is our custom list delegate
type itemDelegate struct {
	list.DefaultDelegate
	listModel *ListModel
}

// Each connection renders on a single line.
func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func icon(i connectionItem) string {
	if i.Type == network.TypeWired {
		return CurrentTheme.WiredIcon
	}
	switch i.Encryption {
	case network.EncryptionNone:
		return CurrentTheme.OpenIcon
	case network.EncryptionUnknown:
		return CurrentTheme.UnknownIcon
	}
	return CurrentTheme.SecureIcon
}

// signalColor blends between the low and high signal colors.
func signalColor(strength uint8) lipgloss.Color {
	start, err := colorful.Hex(hexFor(CurrentTheme.SignalLow))
	if err != nil {
		return lipgloss.Color(hexFor(CurrentTheme.Normal))
	}
	end, err := colorful.Hex(hexFor(CurrentTheme.SignalHigh))
	if err != nil {
		return lipgloss.Color(hexFor(CurrentTheme.Normal))
	}
	blend := start.BlendRgb(end, float64(strength)/100.0)
	return lipgloss.Color(blend.Hex())
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(connectionItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, listItem)
		return
	}

	title := []rune(icon(i) + i.Title())
	if len(title) > nameColumnWidth {
		title = append(title[:nameColumnWidth-1], '…')
	}
	padding := strings.Repeat(" ", nameColumnWidth-len(title))

	var titleStyle lipgloss.Style
	switch i.State {
	case network.StateConnected:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Success)
	case network.StateFailure:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
	case network.StateConnecting:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
	default:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	}

	stateTag := ""
	if i.State == network.StateConnected {
		stateTag = CurrentTheme.ConnectedTag
	} else if i.State == network.StateConnecting {
		stateTag = " (Connecting)"
	}

	var desc string
	if i.Type == network.TypeWireless {
		desc = lipgloss.NewStyle().Foreground(signalColor(i.Strength)).Render(i.Description()) + stateTag
	} else {
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(i.Description()) + stateTag
	}

	var line string
	if index == m.Index() {
		if d.listModel.isForgetting {
			desc = lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render("Forget? (Y/n)")
		}
		line = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render("▶ ") + titleStyle.Render(string(title)) + padding + " " + desc
	} else {
		line = "  " + titleStyle.Render(string(title)) + padding + " " + desc
	}
	fmt.Fprint(w, line)
}

// ListModel shows the known connections.
type ListModel struct {
	list         list.Model
	isForgetting bool
	status       statusInfo
	canManage    bool
}

// NewListModel creates the connections view. canManage hides the actions
// that the platform cannot perform.
func NewListModel(canManage bool) *ListModel {
	m := &ListModel{canManage: canManage}
	delegate := itemDelegate{listModel: m}
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = fmt.Sprintf("%-27s %s", CurrentTheme.TitleIcon+"Network", "Signal")
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		keys := []key.Binding{
			key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
			key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		}
		if m.canManage {
			keys = append(keys,
				key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
				key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forget")),
				key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "share")),
			)
		}
		return keys
	}
	l.KeyMap.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
	m.list = l
	return m
}

func (m *ListModel) Init() tea.Cmd { return nil }

// IsConsumingInput returns whether the filter is being edited.
func (m *ListModel) IsConsumingInput() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *ListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// SetConnections replaces the items, keeping the selection on the same
// connection when it is still listed.
func (m *ListModel) SetConnections(snaps []network.Snapshot) tea.Cmd {
	var selectedID string
	if selected, ok := m.list.SelectedItem().(connectionItem); ok {
		selectedID = selected.ID
	}
	items := make([]list.Item, len(snaps))
	selectIndex := -1
	for i, s := range snaps {
		items[i] = connectionItem{Snapshot: s}
		if s.ID == selectedID {
			selectIndex = i
		}
	}
	cmd := m.list.SetItems(items)
	if selectIndex >= 0 {
		m.list.Select(selectIndex)
	}
	return cmd
}

func (m *ListModel) selected() (connectionItem, bool) {
	if len(m.list.Items()) == 0 {
		return connectionItem{}, false
	}
	selected, ok := m.list.SelectedItem().(connectionItem)
	return selected, ok
}

func (m *ListModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if m.isForgetting {
		selected, ok := m.selected()
		if !ok {
			m.isForgetting = false
		} else if finished, cmd := forgetHandler(msg, selected); finished {
			m.isForgetting = false
			return m, cmd
		}
		if _, isKey := msg.(tea.KeyMsg); isKey {
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		listBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(CurrentTheme.Border)
		bh, bv := listBorderStyle.GetFrameSize()
		extraVerticalSpace := 4
		m.SetSize(msg.Width-h-bh, msg.Height-v-bv-extraVerticalSpace)
		return m, nil
	case connectionsLoadedMsg:
		m.status = msg.status
		return m, m.SetConnections(msg.list)
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "s":
			return m, func() tea.Msg { return scanMsg{} }
		case "l":
			return m, func() tea.Msg { return viewLogsMsg{} }
		case "f":
			if _, ok := m.selected(); ok && m.canManage {
				m.isForgetting = true
				return m, nil
			}
		case "c", "enter":
			if selected, ok := m.selected(); ok && m.canManage {
				return m, func() tea.Msg { return connectMsg{item: selected} }
			}
		case "v":
			if selected, ok := m.selected(); ok && selected.Type == network.TypeWireless {
				return m, func() tea.Msg { return shareMsg{item: selected} }
			}
		}
	}

	oldIndex := m.list.Index()
	newList, cmd := m.list.Update(msg)
	m.list = newList
	if m.isForgetting && m.list.Index() != oldIndex {
		m.isForgetting = false
	}
	return m, cmd
}

func (m *ListModel) View() string {
	var viewBuilder strings.Builder
	listBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(CurrentTheme.Border)
	help := fmt.Sprintf("\n\n %s ", m.list.Help.View(m))
	viewBuilder.WriteString(listBorderStyle.Render(m.list.View() + help))

	statusText := m.status.String()
	if len(m.list.Items()) > 0 {
		statusText = fmt.Sprintf("%d/%d  %s", m.list.Index()+1, len(m.list.Items()), statusText)
	}
	viewBuilder.WriteString("\n")
	viewBuilder.WriteString(statusText)
	return lipgloss.NewStyle().Margin(1, 2).Render(viewBuilder.String())
}

func (m *ListModel) FullHelp() [][]key.Binding {
	return m.list.FullHelp()
}

func (m *ListModel) ShortHelp() []key.Binding {
	h := m.list.ShortHelp()
	// Remove up/down from short help
	if len(h) > 2 {
		return h[2:]
	}
	return h
}

// forgetHandler resolves the forget confirmation. It reports whether the
// confirmation is finished.
func forgetHandler(msg tea.Msg, item connectionItem) (bool, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "enter":
		return true, func() tea.Msg { return forgetMsg{item: item} }
	case "n", "N", "esc":
		return true, nil
	}
	return false, nil
}
