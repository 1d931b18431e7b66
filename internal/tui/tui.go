// Package tui is the interactive connections view.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	netlog "github.com/shazow/netmgr/internal/log"
)

// DefaultPollInterval is how often the backend is pumped while the view is
// running.
const DefaultPollInterval = 250 * time.Millisecond

// Options configures the interactive view.
type Options struct {
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// CanManage enables the connect and forget actions.
	CanManage bool
	Logger    *slog.Logger
}

// The main model for our TUI application
type model struct {
	stack    *ComponentStack
	list     *ListModel
	session  *session
	schedule *PollSchedule
	interval time.Duration
	logger   *slog.Logger

	spinner       spinner.Model
	loading       bool
	awaitingList  bool
	statusMessage string
	width, height int
}

// NewModel creates the starting state of our application.
func NewModel(s *session, opts Options) *model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)

	listModel := NewListModel(opts.CanManage)
	s.viewOpen.Store(true)
	return &model{
		stack:         NewComponentStack(listModel),
		list:          listModel,
		session:       s,
		schedule:      NewPollSchedule(s.pump),
		interval:      opts.PollInterval,
		logger:        opts.Logger.With("component", "tui"),
		spinner:       sp,
		loading:       true,
		awaitingList:  true,
		statusMessage: "Loading connections...",
	}
}

// Init is the first command that is run when the program starts
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.session.refresh, m.schedule.SetSchedule(m.interval))
}

func (m *model) push(c Component) tea.Cmd {
	m.stack.Push(c)
	m.session.viewOpen.Store(false)
	var cmds []tea.Cmd
	cmds = append(cmds, c.Init())
	if m.width > 0 {
		_, cmd := c.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *model) pop() tea.Cmd {
	cmd := m.stack.Pop()
	if m.stack.Top() == Component(m.list) {
		m.session.viewOpen.Store(true)
		// Catch up on anything missed while the list was covered.
		return tea.Batch(cmd, m.session.refresh)
	}
	return cmd
}

// Update handles all incoming messages and updates the model accordingly
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.stack.Broadcast(msg)
	case tickMsg:
		return m, m.schedule.Update(msg)
	case popViewMsg:
		return m, m.pop()
	case pushViewMsg:
		return m, m.push(msg.c)
	case errorMsg:
		m.loading = false
		m.awaitingList = false
		m.statusMessage = ""
		m.logger.Warn("operation failed", "error", msg.err)
		return m, m.push(NewErrorModel(msg.err))
	case setStatusMsg:
		m.loading = false
		m.statusMessage = string(msg)
		return m, nil
	case connectionsLoadedMsg:
		if m.awaitingList {
			m.awaitingList = false
			m.loading = false
			m.statusMessage = ""
		}
		// The list keeps receiving updates while covered.
		_, cmd := m.list.Update(msg)
		return m, cmd
	case scanMsg:
		m.loading = true
		m.statusMessage = "Scanning for networks..."
		m.awaitingList = true
		return m, m.session.scan
	case connectMsg:
		m.loading = true
		m.statusMessage = fmt.Sprintf("Connecting to '%s'...", msg.item.Name)
		return m, m.session.connect(msg.item)
	case promptRequestMsg:
		return m, m.push(NewPromptModel(msg.id, msg.reply))
	case connectedMsg:
		m.loading = false
		m.statusMessage = "Connected."
		return m, m.session.refresh
	case forgetMsg:
		m.loading = true
		m.statusMessage = fmt.Sprintf("Forgetting '%s'...", msg.item.Name)
		return m, m.session.forget(msg.item)
	case forgottenMsg:
		m.loading = false
		m.statusMessage = "Forgotten."
		return m, m.session.refresh
	case shareMsg:
		return m, m.session.secret(msg.item)
	case secretMsg:
		qr, err := NewQRModel(msg.item, msg.secret)
		if err != nil {
			return m, func() tea.Msg { return errorMsg{err} }
		}
		return m, m.push(qr)
	case viewLogsMsg:
		return m, m.push(NewLogViewModel())
	case netlog.LogMsg:
		// Redraw so the log view shows the new record.
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmds = append(cmds, m.stack.Update(msg))

	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)
	cmds = append(cmds, spinnerCmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI based on the current model state
func (m *model) View() string {
	var s strings.Builder
	s.WriteString(m.stack.View())

	if m.loading {
		s.WriteString(fmt.Sprintf("\n\n%s %s", m.spinner.View(), lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(m.statusMessage)))
	} else if m.statusMessage != "" {
		s.WriteString(fmt.Sprintf("\n\n%s", lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(m.statusMessage)))
	}
	return s.String()
}

// Session connects a Backend to the view. Hand it to the manager as its
// Notifier and to the service group as its Warner before calling Run.
type Session struct {
	*session
}

// NewSession creates a Session for b. b may be nil and set later with
// SetBackend, since the manager usually needs the Session first.
func NewSession(b Backend) Session {
	return Session{session: newSession(b)}
}

// SetBackend sets the backend. It must be called before Run.
func (s Session) SetBackend(b Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = b
}

// Run starts the interactive view and blocks until the user quits.
func Run(s Session, opts Options) error {
	m := NewModel(s.session, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	s.send = p.Send

	logs := make(chan tea.Msg, netlog.DefaultCapacity)
	netlog.SetOutput(logs)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case msg := <-logs:
				p.Send(msg)
			case <-done:
				return
			}
		}
	}()
	defer func() {
		netlog.SetOutput(nil)
		close(done)
	}()

	_, err := p.Run()
	return err
}
