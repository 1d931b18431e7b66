package tui

import (
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shazow/netmgr/network"
)

// Backend is the part of the connection manager that the views drive.
type Backend interface {
	PumpNetworkEvents() bool
	Connections() []network.Connection
	Connect(id string, prompter network.Prompter) error
	Forget(id string) error
	Scan() error
	Secret(id string) (string, bool, error)
	DefaultConnectionName() string
	DefaultConnectionIP() string
	DefaultConnectionState() network.ConnectionState
}

// session serializes access to a Backend between the poll schedule and
// user actions. It also serves as the manager's Notifier and the services'
// Warner.
type session struct {
	mu      sync.Mutex
	backend Backend

	viewOpen atomic.Bool
	dirty    atomic.Bool

	// send delivers messages to the running program. It is nil until the
	// program starts.
	send func(tea.Msg)
}

func newSession(b Backend) *session {
	return &session{backend: b}
}

// IsConnectionsViewOpen reports whether the list is on top of the stack.
func (s *session) IsConnectionsViewOpen() bool { return s.viewOpen.Load() }

// ConnectionsChanged marks the list stale so the next poll redraws it.
func (s *session) ConnectionsChanged() { s.dirty.Store(true) }

// Warn shows a warning in the status line.
func (s *session) Warn(title, message string) {
	if s.send == nil {
		return
	}
	s.send(setStatusMsg(fmt.Sprintf("%s: %s", title, message)))
}

// loaded snapshots the backend. The caller holds mu.
func (s *session) loaded() connectionsLoadedMsg {
	return connectionsLoadedMsg{
		list: network.SnapAll(s.backend.Connections()),
		status: statusInfo{
			name:    s.backend.DefaultConnectionName(),
			address: s.backend.DefaultConnectionIP(),
			state:   s.backend.DefaultConnectionState(),
		},
	}
}

// refresh loads the list without polling.
func (s *session) refresh() tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded()
}

// pump polls the backend. It skips the poll while another operation, such
// as a connect waiting on a prompt, holds the session.
func (s *session) pump() tea.Msg {
	if !s.mu.TryLock() {
		return nil
	}
	defer s.mu.Unlock()
	changed := s.backend.PumpNetworkEvents()
	if s.dirty.Swap(false) || changed {
		return s.loaded()
	}
	return nil
}

func (s *session) scan() tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Scan(); err != nil {
		return errorMsg{fmt.Errorf("scan failed: %w", err)}
	}
	return s.loaded()
}

func (s *session) connect(item connectionItem) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := s.backend.Connect(item.ID, network.PromptFunc(s.prompt))
		if network.IsCancelled(err) {
			return setStatusMsg(fmt.Sprintf("Cancelled connecting to '%s'", item.Name))
		}
		if err != nil {
			return errorMsg{fmt.Errorf("failed to connect: %w", err)}
		}
		return connectedMsg{id: item.ID}
	}
}

func (s *session) forget(item connectionItem) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.backend.Forget(item.ID); err != nil {
			return errorMsg{fmt.Errorf("failed to forget connection: %w", err)}
		}
		return forgottenMsg{id: item.ID}
	}
}

func (s *session) secret(item connectionItem) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		defer s.mu.Unlock()
		secret, _, err := s.backend.Secret(item.ID)
		if err != nil {
			return errorMsg{fmt.Errorf("failed to get secrets: %w", err)}
		}
		return secretMsg{item: item, secret: secret}
	}
}

// prompt asks the running program for a passphrase and blocks until the
// prompt view answers.
func (s *session) prompt(id string) (string, bool) {
	if s.send == nil {
		return "", false
	}
	reply := make(chan promptReply, 1)
	s.send(promptRequestMsg{id: id, reply: reply})
	r := <-reply
	return r.passphrase, r.ok
}
