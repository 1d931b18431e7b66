package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shazow/netmgr/network"
)

// Component is the interface for a TUI component.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	IsConsumingInput() bool
}

// Leavable is implemented by components that need to run a command when
// they are removed from the stack.
type Leavable interface {
	OnLeave() tea.Cmd
}

// connectionItem holds a single connection in our list.
type connectionItem struct {
	network.Snapshot
}

func (i connectionItem) Title() string { return i.Name }
func (i connectionItem) Description() string {
	if i.Type == network.TypeWired {
		return fmt.Sprintf("%d Mb/s", i.Speed)
	}
	return fmt.Sprintf("%d%%", i.Strength)
}
func (i connectionItem) FilterValue() string { return i.Name + " " + i.Interface }

// Bubbletea messages are used to communicate between the main loop and commands
type (
	// From the session
	connectionsLoadedMsg struct {
		list   []network.Snapshot
		status statusInfo
	}
	connectedMsg struct{ id string }
	forgottenMsg struct{ id string }
	secretMsg    struct {
		item   connectionItem
		secret string
	}
	promptRequestMsg struct {
		id    string
		reply chan<- promptReply
	}
	errorMsg struct{ err error }

	// To the root model
	popViewMsg   struct{}
	pushViewMsg  struct{ c Component }
	scanMsg      struct{}
	connectMsg   struct{ item connectionItem }
	forgetMsg    struct{ item connectionItem }
	shareMsg     struct{ item connectionItem }
	setStatusMsg string
	viewLogsMsg  struct{}
)

type promptReply struct {
	passphrase string
	ok         bool
}

// statusInfo summarizes the default connection for the title bar.
type statusInfo struct {
	name    string
	address string
	state   network.ConnectionState
}

func (s statusInfo) String() string {
	if s.state != network.StateConnected {
		return s.state.String()
	}
	return fmt.Sprintf("%s via %s", s.address, s.name)
}
