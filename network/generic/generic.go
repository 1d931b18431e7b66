// Package generic reports wired connections using only the portable net
// package. It cannot change settings, so connections are read-only.
package generic

import (
	"fmt"
	"log/slog"
	"net"
	"slices"
	"time"

	"github.com/shazow/netmgr/network"
)

// Interface is the subset of net.Interface this package reads.
type Interface struct {
	Name         string
	Flags        net.Flags
	HardwareAddr net.HardwareAddr
	Addrs        []net.Addr
}

// Lister enumerates interfaces.
type Lister func() ([]Interface, error)

// SystemInterfaces lists the host's interfaces with their addresses.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	list := make([]Interface, 0, len(ifaces))
	for _, ifi := range ifaces {
		addrs, _ := ifi.Addrs()
		list = append(list, Interface{
			Name:         ifi.Name,
			Flags:        ifi.Flags,
			HardwareAddr: ifi.HardwareAddr,
			Addrs:        addrs,
		})
	}
	return list, nil
}

// Enumerator implements network.Enumerator for hosts without a dedicated
// backend.
type Enumerator struct {
	List     Lister
	Throttle *network.Throttle
	Now      func() time.Time

	logger *slog.Logger
	conns  []*Connection
}

// New lists the interfaces once. A nil lister selects SystemInterfaces.
func New(list Lister, logger *slog.Logger) (*Enumerator, error) {
	if list == nil {
		list = SystemInterfaces
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Enumerator{
		List:     list,
		Throttle: network.NewThrottle(),
		Now:      time.Now,
		logger:   logger.With("enumerator", "generic"),
	}
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Enumerator) refresh() error {
	ifaces, err := e.List()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}
	existing := make(map[string]*Connection, len(e.conns))
	for _, c := range e.conns {
		existing[c.id] = c
	}

	var conns []*Connection
	seen := make(map[string]bool)
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagLoopback != 0 || len(ifi.HardwareAddr) == 0 {
			continue
		}
		id := network.WiredID(network.FormatMAC(ifi.HardwareAddr))
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := existing[id]
		if !ok {
			c = &Connection{id: id, state: network.StateUnknown}
		}
		c.ifi = ifi
		conns = append(conns, c)
	}
	e.conns = conns
	return nil
}

func (e *Enumerator) CanManageConnections() bool { return false }

func (e *Enumerator) Connections() []network.Connection {
	list := make([]network.Connection, len(e.conns))
	for i, c := range e.conns {
		list[i] = c
	}
	return list
}

func (e *Enumerator) PumpNetworkEvents(cb network.EventsCallback) bool {
	now := e.Now()
	if !e.Throttle.Ready(now) {
		return false
	}
	e.Throttle.Schedule(now, cb.IsConnectionsViewOpen())

	before := e.ids()
	if err := e.refresh(); err != nil {
		e.logger.Warn("refresh failed", "error", err)
		return false
	}
	changed := false
	if !slices.Equal(before, e.ids()) {
		cb.OnConnectionListChange(e.Connections())
		changed = true
	}
	for _, c := range e.conns {
		prev := c.state
		if !c.PumpNetworkEvents() {
			continue
		}
		changed = true
		switch {
		case c.state == network.StateConnected:
			cb.OnConnectionChange(c)
			cb.OnConnectionStateChange(network.StateConnected)
		case prev == network.StateConnected:
			cb.OnConnectionChange(c)
		}
	}
	return changed
}

func (e *Enumerator) ids() []string {
	ids := make([]string, len(e.conns))
	for i, c := range e.conns {
		ids[i] = c.id
	}
	return ids
}

// Connection is a wired port.
type Connection struct {
	id    string
	ifi   Interface
	state network.ConnectionState
}

func (c *Connection) ID() string                     { return c.id }
func (c *Connection) Name() string                   { return network.WiredName }
func (c *Connection) Interface() string              { return c.ifi.Name }
func (c *Connection) Type() network.ConnectionType   { return network.TypeWired }
func (c *Connection) Encryption() network.Encryption { return network.EncryptionNone }
func (c *Connection) State() network.ConnectionState { return c.state }
func (c *Connection) Gateway() string                { return "" }
func (c *Connection) Strength() uint8                { return 100 }
func (c *Connection) Speed() uint                    { return 100 }
func (c *Connection) MacAddress() string             { return network.FormatMAC(c.ifi.HardwareAddr) }

func (c *Connection) ipv4() *net.IPNet {
	for _, a := range c.ifi.Addrs {
		if n, ok := a.(*net.IPNet); ok && n.IP.To4() != nil && !n.IP.IsLoopback() {
			return n
		}
	}
	return nil
}

// ConnectionState is Connected when the port is up and has an IPv4 address.
func (c *Connection) ConnectionState() network.ConnectionState {
	if c.ifi.Flags&net.FlagUp == 0 || c.ifi.Flags&net.FlagRunning == 0 || c.ipv4() == nil {
		return network.StateDisconnected
	}
	return network.StateConnected
}

func (c *Connection) PumpNetworkEvents() bool {
	state := c.ConnectionState()
	if state == c.state {
		return false
	}
	c.state = state
	return true
}

func (c *Connection) Address() string {
	if n := c.ipv4(); n != nil {
		return n.IP.String()
	}
	return ""
}

func (c *Connection) Netmask() string {
	if n := c.ipv4(); n != nil && len(n.Mask) == net.IPv4len {
		return net.IP(n.Mask).String()
	}
	return ""
}

func (c *Connection) Connect(network.PassphraseStorage) (network.IPConfig, error) {
	return network.IPConfig{Interface: c.ifi.Name}, fmt.Errorf("connect %s: %w", c.id, network.ErrNotSupported)
}
