//go:build linux

// Package networkmanager discovers and activates connections through
// NetworkManager over D-Bus.
package networkmanager

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	gonetworkmanager "github.com/Wifx/gonetworkmanager/v3"
	"github.com/godbus/dbus/v5"

	"github.com/shazow/netmgr/network"
)

const (
	busName = "org.freedesktop.NetworkManager"

	connectionTimeout     = 30 * time.Second
	DefaultRescanInterval = 60 * time.Second
)

// Options configures an Enumerator. Zero values select the defaults.
type Options struct {
	RescanInterval time.Duration
	Throttle       *network.Throttle
	Now            func() time.Time
	Logger         *slog.Logger
}

// Enumerator implements network.Enumerator on top of NetworkManager.
type Enumerator struct {
	NM       gonetworkmanager.NetworkManager
	Settings gonetworkmanager.Settings

	opts        Options
	logger      *slog.Logger
	connections []*Connection
	lastScan    time.Time
}

// Available reports whether NetworkManager owns its name on the system bus.
func Available() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", network.ErrNotAvailable)
	}
	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, busName).Store(&owned)
	if err != nil || !owned {
		return fmt.Errorf("%s not running: %w", busName, network.ErrNotAvailable)
	}
	return nil
}

// New connects to NetworkManager and performs the first scan.
func New(opts Options) (*Enumerator, error) {
	if err := Available(); err != nil {
		return nil, err
	}
	nm, err := gonetworkmanager.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create network manager client: %w", network.ErrNotAvailable)
	}
	settings, err := gonetworkmanager.NewSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", network.ErrOperationFailed)
	}

	e := newEnumerator(nm, settings, opts)
	if _, err := e.Scan(); err != nil {
		return nil, err
	}
	return e, nil
}

func newEnumerator(nm gonetworkmanager.NetworkManager, settings gonetworkmanager.Settings, opts Options) *Enumerator {
	if opts.Throttle == nil {
		opts.Throttle = network.NewThrottle()
	}
	if opts.RescanInterval == 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Enumerator{
		NM:       nm,
		Settings: settings,
		opts:     opts,
		logger:   opts.Logger.With("enumerator", "networkmanager"),
	}
}

// CanManageConnections reports whether NetworkManager accepts changes from
// us, which it does unless networking is disabled.
func (e *Enumerator) CanManageConnections() bool {
	enabled, err := e.NM.GetPropertyNetworkingEnabled()
	return err == nil && enabled
}

func (e *Enumerator) Connections() []network.Connection {
	list := make([]network.Connection, len(e.connections))
	for i, c := range e.connections {
		list[i] = c
	}
	return list
}

// Scan rebuilds the connection list from the devices NetworkManager knows.
func (e *Enumerator) Scan() ([]network.Connection, error) {
	e.lastScan = e.opts.Now()

	devices, err := e.NM.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	existing := make(map[string]*Connection, len(e.connections))
	for _, c := range e.connections {
		existing[c.id] = c
	}
	var conns []*Connection
	seen := make(map[string]bool)
	add := func(c *Connection) {
		if seen[c.id] {
			return
		}
		seen[c.id] = true
		if old, ok := existing[c.id]; ok {
			c.state = old.state
		}
		conns = append(conns, c)
	}

	for _, device := range devices {
		iface, _ := device.GetPropertyInterface()
		switch dev := device.(type) {
		case gonetworkmanager.DeviceWireless:
			for _, c := range e.wirelessConnections(dev, iface) {
				add(c)
			}
		case gonetworkmanager.DeviceWired:
			mac, err := dev.GetPropertyHwAddress()
			if err != nil {
				e.logger.Warn("failed to read hardware address", "interface", iface, "error", err)
				continue
			}
			add(e.newConnection(network.WiredID(mac), iface, device, nil))
		}
	}

	e.connections = conns
	e.logger.Debug("connections enumerated", "count", len(conns))
	return e.Connections(), nil
}

func (e *Enumerator) wirelessConnections(dev gonetworkmanager.DeviceWireless, iface string) []*Connection {
	if err := dev.RequestScan(); err != nil {
		e.logger.Debug("scan request refused", "interface", iface, "error", err)
	}
	aps, err := dev.GetAccessPoints()
	if err != nil {
		e.logger.Warn("failed to list access points", "interface", iface, "error", err)
		return nil
	}

	var conns []*Connection
	for _, ap := range aps {
		ssid, err := ap.GetPropertySSID()
		if err != nil || ssid == "" {
			continue
		}
		bssid, err := ap.GetPropertyHWAddress()
		if err != nil {
			continue
		}
		flags, _ := ap.GetPropertyFlags()
		wpaFlags, _ := ap.GetPropertyWPAFlags()
		rsnFlags, _ := ap.GetPropertyRSNFlags()
		enc := encryptionFromFlags(uint32(flags), uint32(wpaFlags), uint32(rsnFlags))

		c := e.newConnection(network.WirelessID(ssid, bssid, enc), iface, dev, ap)
		c.strength, _ = ap.GetPropertyStrength()
		conns = append(conns, c)
	}
	return conns
}

// encryptionFromFlags maps access point capability flags to an Encryption.
func encryptionFromFlags(flags, wpaFlags, rsnFlags uint32) network.Encryption {
	switch {
	case rsnFlags > 0:
		return network.EncryptionWPA2
	case wpaFlags > 0:
		return network.EncryptionWPA
	case flags&uint32(gonetworkmanager.Nm80211APFlagsPrivacy) != 0:
		return network.EncryptionWEP
	}
	return network.EncryptionNone
}

// PumpNetworkEvents polls every connection, at most once per throttle
// interval, and reports transitions into and out of Connected.
func (e *Enumerator) PumpNetworkEvents(cb network.EventsCallback) bool {
	now := e.opts.Now()
	if !e.opts.Throttle.Ready(now) {
		return false
	}
	e.opts.Throttle.Schedule(now, cb.IsConnectionsViewOpen())

	changed := false
	if e.opts.RescanInterval > 0 && now.Sub(e.lastScan) >= e.opts.RescanInterval {
		before := e.ids()
		if _, err := e.Scan(); err != nil {
			e.logger.Warn("rescan failed", "error", err)
		} else if !slices.Equal(before, e.ids()) {
			cb.OnConnectionListChange(e.Connections())
			changed = true
		}
	}

	for _, c := range e.connections {
		prev := c.State()
		if !c.PumpNetworkEvents() {
			continue
		}
		changed = true
		switch {
		case c.State() == network.StateConnected:
			cb.OnConnectionChange(c)
			cb.OnConnectionStateChange(network.StateConnected)
		case prev == network.StateConnected:
			cb.OnConnectionChange(c)
		}
	}
	return changed
}

func (e *Enumerator) ids() []string {
	ids := make([]string, len(e.connections))
	for i, c := range e.connections {
		ids[i] = c.id
	}
	return ids
}

// findKnownConnection returns the saved profile for ssid, if any.
func (e *Enumerator) findKnownConnection(ssid string) gonetworkmanager.Connection {
	known, err := e.Settings.ListConnections()
	if err != nil {
		e.logger.Warn("failed to list saved connections", "error", err)
		return nil
	}
	for _, kc := range known {
		s, err := kc.GetSettings()
		if err != nil {
			continue
		}
		if wireless, ok := s["802-11-wireless"]; ok {
			if ssidBytes, ok := wireless["ssid"].([]byte); ok && string(ssidBytes) == ssid {
				return kc
			}
		}
	}
	return nil
}
