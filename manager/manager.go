// Package manager tracks the default connection and starts or stops the
// dependent services as the host gains and loses connectivity.
//
// A Manager is not safe for concurrent use. Callers serialize access, the
// way the TUI's poll schedule does.
package manager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shazow/netmgr/internal/metrics"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/services"
)

// Notifier is the view layer.
type Notifier interface {
	IsConnectionsViewOpen() bool
	// ConnectionsChanged is only called while the view is open.
	ConnectionsChanged()
}

// Factory constructs a platform enumerator. It returns an error when the
// platform is not available on this host.
type Factory func(logger *slog.Logger) (network.Enumerator, error)

// Forgetter is implemented by connections backed by a saved profile that
// can be deleted.
type Forgetter interface {
	Forget() error
}

type Options struct {
	Secrets  network.SecretStore
	Services *services.Group
	Notifier Notifier
	Warner   services.Warner
	Metrics  *metrics.Registry
	Logger   *slog.Logger
}

type Manager struct {
	opts   Options
	logger *slog.Logger

	enumerator network.Enumerator
	list       []network.Connection
	defaultID  string
	state      network.ConnectionState
}

func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Services == nil {
		opts.Services = services.NewGroup(opts.Logger)
	}
	return &Manager{
		opts:       opts,
		logger:     opts.Logger.With("component", "manager"),
		enumerator: network.NullEnumerator{},
		state:      network.StateUnknown,
	}
}

// Initialize uses the first factory that succeeds, or the null enumerator
// when none does, and seeds the list and default from its first pass.
func (m *Manager) Initialize(factories ...Factory) {
	m.enumerator = network.NullEnumerator{}
	m.defaultID = ""
	for i, f := range factories {
		e, err := f(m.opts.Logger)
		if err != nil {
			m.logger.Info("enumerator unavailable", "index", i, "error", err)
			continue
		}
		m.enumerator = e
		break
	}
	m.logger.Info("enumerator selected", "type", fmt.Sprintf("%T", m.enumerator))
	m.OnConnectionListChange(m.enumerator.Connections())
}

// Enumerator returns the selected enumerator.
func (m *Manager) Enumerator() network.Enumerator { return m.enumerator }

// PumpNetworkEvents forwards to the enumerator, which calls back into m.
func (m *Manager) PumpNetworkEvents() bool {
	changed := m.enumerator.PumpNetworkEvents(m)
	if changed && m.opts.Metrics != nil {
		m.opts.Metrics.Polls.Inc()
	}
	return changed
}

func (m *Manager) IsConnectionsViewOpen() bool {
	return m.opts.Notifier != nil && m.opts.Notifier.IsConnectionsViewOpen()
}

func (m *Manager) notify() {
	if m.IsConnectionsViewOpen() {
		m.opts.Notifier.ConnectionsChanged()
	}
}

// OnConnectionListChange replaces the list. The first connection found
// connected becomes the default.
func (m *Manager) OnConnectionListChange(list []network.Connection) {
	m.list = list
	m.recordDiscovered()

	adopted := false
	for _, c := range list {
		if c.ConnectionState() == network.StateConnected {
			m.setDefault(c.ID())
			m.OnConnectionStateChange(network.StateConnected)
			adopted = true
			break
		}
	}
	if !adopted && m.defaultID != "" && m.lookup(m.defaultID) == nil {
		m.logger.Info("default connection disappeared", "id", m.defaultID)
		m.defaultID = ""
		if m.findConnected() == nil {
			m.OnConnectionStateChange(network.StateDisconnected)
		}
	}
	m.notify()
}

// OnConnectionChange adopts c as the default when it is connected. When
// the default itself stops being connected another connected connection
// takes over, and without one the aggregate state drops to Disconnected.
func (m *Manager) OnConnectionChange(c network.Connection) {
	switch {
	case c.State() == network.StateConnected:
		m.setDefault(c.ID())
	case c.ID() == m.defaultID:
		if other := m.findConnected(); other != nil {
			m.setDefault(other.ID())
		} else {
			m.OnConnectionStateChange(network.StateDisconnected)
		}
	}
	m.notify()
}

// OnConnectionStateChange starts services on entering Connected and stops
// them on leaving it.
func (m *Manager) OnConnectionStateChange(state network.ConnectionState) {
	prev := m.state
	if state == prev {
		return
	}
	m.state = state
	m.logger.Info("network state changed", "from", prev.String(), "to", state.String())
	if m.opts.Metrics != nil {
		m.opts.Metrics.RecordTransition(prev.String(), state.String(), int(state))
	}

	switch {
	case state == network.StateConnected:
		for _, name := range m.opts.Services.StartAll(m.opts.Warner) {
			if m.opts.Metrics != nil {
				m.opts.Metrics.RecordServiceFailure(name)
			}
		}
	case prev == network.StateConnected:
		m.opts.Services.StopAll()
	}
}

func (m *Manager) setDefault(id string) {
	if id != m.defaultID {
		m.logger.Info("default connection", "id", id)
	}
	m.defaultID = id
}

func (m *Manager) lookup(id string) network.Connection {
	for _, c := range m.list {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// findConnected queries fresh state, since connections later in the list
// may not have been pumped yet.
func (m *Manager) findConnected() network.Connection {
	for _, c := range m.list {
		if c.ID() != m.defaultID && c.ConnectionState() == network.StateConnected {
			return c
		}
	}
	return nil
}

func (m *Manager) recordDiscovered() {
	if m.opts.Metrics == nil {
		return
	}
	counts := map[string]int{}
	for _, c := range m.list {
		counts[c.Type().String()]++
	}
	m.opts.Metrics.SetDiscovered(counts)
}

// DefaultConnection returns the default, or the null connection.
func (m *Manager) DefaultConnection() network.Connection {
	if c := m.lookup(m.defaultID); c != nil {
		return c
	}
	return network.NullConnection{}
}

// The default connection accessors return "" without a default.
func (m *Manager) DefaultConnectionName() string       { return m.DefaultConnection().Name() }
func (m *Manager) DefaultConnectionIP() string         { return m.DefaultConnection().Address() }
func (m *Manager) DefaultConnectionNetmask() string    { return m.DefaultConnection().Netmask() }
func (m *Manager) DefaultConnectionMacAddress() string { return m.DefaultConnection().MacAddress() }
func (m *Manager) DefaultConnectionGateway() string    { return m.DefaultConnection().Gateway() }

// DefaultConnectionState is the aggregate state.
func (m *Manager) DefaultConnectionState() network.ConnectionState { return m.state }

func (m *Manager) IsConnected() bool { return m.state == network.StateConnected }

func (m *Manager) CanManageConnections() bool { return m.enumerator.CanManageConnections() }

func (m *Manager) Connections() []network.Connection { return m.list }

// Connection looks up a connection by id.
func (m *Manager) Connection(id string) (network.Connection, error) {
	if c := m.lookup(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("connection %q: %w", id, network.ErrNotFound)
}

// Connect runs a connection job for id. prompter may be nil when only
// stored secrets should be used.
func (m *Manager) Connect(id string, prompter network.Prompter) error {
	c, err := m.Connection(id)
	if err != nil {
		return err
	}
	if !m.CanManageConnections() {
		return fmt.Errorf("connect %s: %w", id, network.ErrNotSupported)
	}
	secrets := m.opts.Secrets
	if secrets == nil {
		return fmt.Errorf("connect %s: no secret store: %w", id, network.ErrNotAvailable)
	}

	err = network.NewConnectionJob(c, secrets, prompter, m.opts.Logger).Run()
	if m.opts.Metrics != nil {
		switch {
		case err == nil:
			m.opts.Metrics.RecordConnect("success")
		case network.IsCancelled(err):
			m.opts.Metrics.RecordConnect("cancelled")
		default:
			m.opts.Metrics.RecordConnect("failure")
		}
	}
	return err
}

// Forget erases the stored passphrase for id and any saved profile.
func (m *Manager) Forget(id string) error {
	if m.opts.Secrets != nil {
		if err := m.opts.Secrets.EraseSecret(network.SecretNamespace, id); err != nil {
			return fmt.Errorf("erase secret: %w", err)
		}
	}
	if c := m.lookup(id); c != nil {
		if f, ok := c.(Forgetter); ok {
			if err := f.Forget(); err != nil && !errors.Is(err, network.ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// Secret returns the stored passphrase for id.
func (m *Manager) Secret(id string) (string, bool, error) {
	if m.opts.Secrets == nil {
		return "", false, nil
	}
	return m.opts.Secrets.FindSecret(network.SecretNamespace, id)
}

// Scan asks the enumerator for a fresh list.
func (m *Manager) Scan() error {
	s, ok := m.enumerator.(network.Scanner)
	if !ok {
		return fmt.Errorf("scan: %w", network.ErrNotSupported)
	}
	list, err := s.Scan()
	if err != nil {
		return err
	}
	m.OnConnectionListChange(list)
	return nil
}

// SendWakeOnLAN wakes the host with the given hardware address.
func (m *Manager) SendWakeOnLAN(mac string) error {
	w, ok := m.enumerator.(network.WakeOnLANSender)
	if !ok {
		return fmt.Errorf("wake on lan: %w", network.ErrNotSupported)
	}
	return w.SendWakeOnLAN(mac)
}

// Close stops services when connected and releases the enumerator.
func (m *Manager) Close() error {
	if m.state == network.StateConnected {
		m.opts.Services.StopAll()
	}
	m.state = network.StateUnknown
	if c, ok := m.enumerator.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
