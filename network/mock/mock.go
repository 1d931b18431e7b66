// Package mock is an in-memory network.Enumerator with a scripted set of
// connections, used by the mock build and by tests.
package mock

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shazow/netmgr/network"
)

var DefaultActionSleep = 500 * time.Millisecond

// Connection is a scripted connection.
type Connection struct {
	id         string
	ident      network.Identity
	iface      string
	strength   uint8
	speed      uint
	state      network.ConnectionState

	// Secret is the passphrase Connect accepts. Empty accepts any.
	Secret string

	m *Enumerator
}

// Enumerator is a mock implementation of network.Enumerator.
type Enumerator struct {
	list   []*Connection
	active string

	ConnectError error
	// ActionSleep is a delay before Connect and Scan, to better emulate a
	// real backend for the frontend. Set to 0 during testing.
	ActionSleep time.Duration
	Throttle    *network.Throttle
	Now         func() time.Time

	listChanged bool
}

// New creates an enumerator with one wired port, which is connected, and a
// list of fun wireless networks.
func New() *Enumerator {
	m := &Enumerator{
		ActionSleep: DefaultActionSleep,
		Throttle:    network.NewThrottle(),
		Now:         time.Now,
	}
	wired := m.Add(network.WiredID("52:54:00:12:34:56"), "eth0", 100, "")
	m.Add(network.WirelessID("HideYoKidsHideYoWiFi", "02:00:00:00:00:01", network.EncryptionWPA2), "wlan0", 82, "hidden")
	m.Add(network.WirelessID("GET off my LAN", "02:00:00:00:00:02", network.EncryptionWPA), "wlan0", 64, "")
	m.Add(network.WirelessID("NeverGonnaGiveYouIP", "02:00:00:00:00:03", network.EncryptionWEP), "wlan0", 55, "")
	m.Add(network.WirelessID("Unencrypted_Honeypot", "02:00:00:00:00:04", network.EncryptionNone), "wlan0", 71, "")
	m.Add(network.WirelessID("Password is password", "02:00:00:00:00:05", network.EncryptionWPA2), "wlan0", 87, "password")
	m.Add(network.WirelessID("TacoBoutAGoodSignal", "02:00:00:00:00:06", network.EncryptionWPA2), "wlan0", 99, "")
	m.Add(network.WirelessID("Dunder MiffLAN", "02:00:00:00:00:07", network.EncryptionWPA2), "wlan0", 31, "")
	m.Add(network.WirelessID("Multi-AP Network", "00:11:22:33:44:55", network.EncryptionWPA2), "wlan0", 80, "")
	m.Add(network.WirelessID("Multi-AP Network", "AA:BB:CC:DD:EE:FF", network.EncryptionWPA2), "wlan0", 60, "")
	m.active = wired.id
	m.listChanged = false
	return m
}

// Add appends a connection and returns it. The list change is reported on
// the next pump.
func (m *Enumerator) Add(id, iface string, strength uint8, secret string) *Connection {
	c := &Connection{
		id:       id,
		ident:    network.ParseID(id),
		iface:    iface,
		strength: strength,
		speed:    54,
		state:    network.StateUnknown,
		Secret:   secret,
		m:        m,
	}
	if c.ident.Type == network.TypeWired {
		c.speed = 1000
	}
	m.list = append(m.list, c)
	m.listChanged = true
	return c
}

// Remove drops the connection with the given id.
func (m *Enumerator) Remove(id string) {
	for i, c := range m.list {
		if c.id == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			m.listChanged = true
			break
		}
	}
	if m.active == id {
		m.active = ""
	}
}

// SetActive makes id the connected connection. An empty id disconnects.
func (m *Enumerator) SetActive(id string) { m.active = id }

// Active returns the id of the connected connection.
func (m *Enumerator) Active() string { return m.active }

// Get returns the connection with the given id.
func (m *Enumerator) Get(id string) (*Connection, bool) {
	for _, c := range m.list {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

func (m *Enumerator) CanManageConnections() bool { return true }

func (m *Enumerator) Connections() []network.Connection {
	list := make([]network.Connection, len(m.list))
	for i, c := range m.list {
		list[i] = c
	}
	return list
}

// Scan re-randomizes the wireless signal strengths.
func (m *Enumerator) Scan() ([]network.Connection, error) {
	time.Sleep(m.ActionSleep)
	r := rand.New(rand.NewSource(m.Now().Unix()))
	for _, c := range m.list {
		if c.ident.Type == network.TypeWireless {
			c.strength = uint8(r.Intn(70) + 30)
		}
	}
	return m.Connections(), nil
}

func (m *Enumerator) PumpNetworkEvents(cb network.EventsCallback) bool {
	now := m.Now()
	if !m.Throttle.Ready(now) {
		return false
	}
	m.Throttle.Schedule(now, cb.IsConnectionsViewOpen())

	changed := false
	if m.listChanged {
		m.listChanged = false
		cb.OnConnectionListChange(m.Connections())
		changed = true
	}
	for _, c := range m.list {
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

func (c *Connection) ID() string                     { return c.id }
func (c *Connection) Name() string                   { return c.ident.Name }
func (c *Connection) Interface() string              { return c.iface }
func (c *Connection) Type() network.ConnectionType   { return c.ident.Type }
func (c *Connection) Encryption() network.Encryption { return c.ident.Encryption }
func (c *Connection) State() network.ConnectionState { return c.state }
func (c *Connection) Strength() uint8                { return c.strength }
func (c *Connection) Speed() uint                    { return c.speed }

func (c *Connection) ConnectionState() network.ConnectionState {
	if c.m.active == c.id {
		return network.StateConnected
	}
	return network.StateDisconnected
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
	if c.ConnectionState() != network.StateConnected {
		return ""
	}
	return "192.168.1.23"
}

func (c *Connection) Netmask() string {
	if c.ConnectionState() != network.StateConnected {
		return ""
	}
	return "255.255.255.0"
}

func (c *Connection) Gateway() string {
	if c.ConnectionState() != network.StateConnected {
		return ""
	}
	return "192.168.1.1"
}

func (c *Connection) MacAddress() string {
	if c.ident.Type == network.TypeWired {
		return c.ident.MAC
	}
	return "52:54:00:AB:CD:EF"
}

// Connect checks the passphrase against Secret and marks the connection
// active. A rejected passphrase is invalidated.
func (c *Connection) Connect(storage network.PassphraseStorage) (network.IPConfig, error) {
	time.Sleep(c.m.ActionSleep)
	cfg := network.IPConfig{
		Method:     network.MethodDHCP,
		Interface:  c.iface,
		ESSID:      c.ident.ESSID,
		Encryption: c.ident.Encryption,
	}
	if c.m.ConnectError != nil {
		return cfg, c.m.ConnectError
	}

	if c.ident.Type == network.TypeWireless && c.ident.Encryption != network.EncryptionNone {
		p, err := storage.GetPassphrase(c.id)
		if err != nil {
			return cfg, err
		}
		if c.Secret != "" && p != c.Secret {
			if err := storage.InvalidatePassphrase(c.id); err != nil {
				return cfg, err
			}
			return cfg, fmt.Errorf("wrong passphrase for %s: %w", c.ident.Name, network.ErrOperationFailed)
		}
		cfg.Passphrase = p
		if err := storage.StorePassphrase(c.id, p); err != nil {
			return cfg, err
		}
	}
	c.m.active = c.id
	return cfg, nil
}
