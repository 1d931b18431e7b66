//go:build linux

package networkmanager

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	gonetworkmanager "github.com/Wifx/gonetworkmanager/v3"
	"github.com/google/uuid"

	"github.com/shazow/netmgr/network"
)

// Connection is a wired device or one access point of a wireless device.
type Connection struct {
	id         string
	name       string
	essid      string
	bssid      string
	iface      string
	typ        network.ConnectionType
	encryption network.Encryption
	strength   uint8
	state      network.ConnectionState

	device gonetworkmanager.Device
	ap     gonetworkmanager.AccessPoint
	e      *Enumerator
	logger *slog.Logger
}

func (e *Enumerator) newConnection(id, iface string, device gonetworkmanager.Device, ap gonetworkmanager.AccessPoint) *Connection {
	ident := network.ParseID(id)
	return &Connection{
		id:         id,
		name:       ident.Name,
		essid:      ident.ESSID,
		bssid:      ident.BSSID,
		iface:      iface,
		typ:        ident.Type,
		encryption: ident.Encryption,
		state:      network.StateUnknown,
		device:     device,
		ap:         ap,
		e:          e,
		logger:     e.logger.With("id", id),
	}
}

func (c *Connection) ID() string                     { return c.id }
func (c *Connection) Name() string                   { return c.name }
func (c *Connection) Interface() string              { return c.iface }
func (c *Connection) Type() network.ConnectionType   { return c.typ }
func (c *Connection) Encryption() network.Encryption { return c.encryption }
func (c *Connection) State() network.ConnectionState { return c.state }

// ConnectionState maps the device state. A wireless connection only
// reflects the device when its access point is the active one.
func (c *Connection) ConnectionState() network.ConnectionState {
	st, err := c.device.GetPropertyState()
	if err != nil {
		return network.StateUnknown
	}
	if c.typ == network.TypeWireless && !c.isActiveAccessPoint() {
		return network.StateDisconnected
	}
	return stateFromDevice(st)
}

func stateFromDevice(st gonetworkmanager.NmDeviceState) network.ConnectionState {
	switch {
	case st == gonetworkmanager.NmDeviceStateActivated:
		return network.StateConnected
	case st == gonetworkmanager.NmDeviceStateFailed:
		return network.StateFailure
	case st >= gonetworkmanager.NmDeviceStatePrepare && st < gonetworkmanager.NmDeviceStateActivated:
		return network.StateConnecting
	}
	return network.StateDisconnected
}

func (c *Connection) isActiveAccessPoint() bool {
	dev, ok := c.device.(gonetworkmanager.DeviceWireless)
	if !ok {
		return false
	}
	active, err := dev.GetPropertyActiveAccessPoint()
	if err != nil || active == nil {
		return false
	}
	bssid, err := active.GetPropertyHWAddress()
	return err == nil && strings.EqualFold(bssid, c.bssid)
}

func (c *Connection) PumpNetworkEvents() bool {
	state := c.ConnectionState()
	if state == c.state {
		return false
	}
	c.logger.Debug("connection state changed", "from", c.state.String(), "to", state.String())
	c.state = state
	return true
}

func (c *Connection) ip4() (gonetworkmanager.IP4Config, bool) {
	cfg, err := c.device.GetPropertyIP4Config()
	if err != nil || cfg == nil {
		return nil, false
	}
	return cfg, true
}

func (c *Connection) addressData() (net.IP, net.IPMask, bool) {
	cfg, ok := c.ip4()
	if !ok {
		return nil, nil, false
	}
	data, err := cfg.GetPropertyAddressData()
	if err != nil || len(data) == 0 {
		return nil, nil, false
	}
	ip := net.ParseIP(data[0].Address)
	if ip == nil {
		return nil, nil, false
	}
	return ip, net.CIDRMask(int(data[0].Prefix), 32), true
}

func (c *Connection) Address() string {
	ip, _, ok := c.addressData()
	if !ok {
		return ""
	}
	return ip.String()
}

func (c *Connection) Netmask() string {
	_, mask, ok := c.addressData()
	if !ok {
		return ""
	}
	return net.IP(mask).String()
}

func (c *Connection) Gateway() string {
	cfg, ok := c.ip4()
	if !ok {
		return ""
	}
	gw, err := cfg.GetPropertyGateway()
	if err != nil {
		return ""
	}
	return gw
}

func (c *Connection) MacAddress() string {
	var mac string
	var err error
	switch dev := c.device.(type) {
	case gonetworkmanager.DeviceWireless:
		mac, err = dev.GetPropertyHwAddress()
	case gonetworkmanager.DeviceWired:
		mac, err = dev.GetPropertyHwAddress()
	default:
		return network.FormatMAC(nil)
	}
	hw, perr := net.ParseMAC(mac)
	if err != nil || perr != nil {
		return network.FormatMAC(nil)
	}
	return network.FormatMAC(hw)
}

func (c *Connection) Strength() uint8 {
	if c.typ != network.TypeWireless {
		return 100
	}
	if c.ap != nil {
		if s, err := c.ap.GetPropertyStrength(); err == nil {
			return min(s, 100)
		}
	}
	return min(c.strength, 100)
}

// Speed is reported in Mbit/s.
func (c *Connection) Speed() uint {
	switch dev := c.device.(type) {
	case gonetworkmanager.DeviceWireless:
		if kbit, err := dev.GetPropertyBitrate(); err == nil && kbit > 0 {
			return uint(kbit / 1000)
		}
	case gonetworkmanager.DeviceWired:
		if mbit, err := dev.GetPropertySpeed(); err == nil && mbit > 0 {
			return uint(mbit)
		}
	}
	return 100
}

// Connect activates the connection and blocks until NetworkManager reports
// it activated or deactivated.
func (c *Connection) Connect(storage network.PassphraseStorage) (network.IPConfig, error) {
	cfg := network.IPConfig{
		Method:     network.MethodDHCP,
		Interface:  c.iface,
		ESSID:      c.essid,
		Encryption: c.encryption,
	}

	var active gonetworkmanager.ActiveConnection
	var err error
	switch c.typ {
	case network.TypeWired:
		active, err = c.activateWired()
	case network.TypeWireless:
		if known := c.e.findKnownConnection(c.essid); known != nil {
			active, err = c.e.NM.ActivateWirelessConnection(known, c.device, c.ap)
			break
		}
		if c.encryption != network.EncryptionNone {
			cfg.Passphrase, err = storage.GetPassphrase(c.id)
			if err != nil {
				return cfg, err
			}
		}
		active, err = c.e.NM.AddAndActivateWirelessConnection(wirelessSettings(cfg), c.device, c.ap)
	default:
		return cfg, fmt.Errorf("connect %s: %w", c.id, network.ErrNotSupported)
	}
	if err != nil {
		return cfg, fmt.Errorf("activate %s: %w", c.id, err)
	}

	if err := waitActivated(active, connectionTimeout); err != nil {
		if cfg.Passphrase != "" {
			if ierr := storage.InvalidatePassphrase(c.id); ierr != nil {
				c.logger.Warn("failed to invalidate passphrase", "error", ierr)
			}
		}
		return cfg, err
	}
	if cfg.Passphrase != "" {
		if err := storage.StorePassphrase(c.id, cfg.Passphrase); err != nil {
			c.logger.Warn("failed to store passphrase", "error", err)
		}
	}
	return cfg, nil
}

func (c *Connection) activateWired() (gonetworkmanager.ActiveConnection, error) {
	available, err := c.device.GetPropertyAvailableConnections()
	if err == nil && len(available) > 0 {
		return c.e.NM.ActivateConnection(available[0], c.device, nil)
	}
	settings := map[string]map[string]interface{}{
		"connection": {
			"id":             c.name + " " + c.iface,
			"uuid":           uuid.New().String(),
			"type":           "802-3-ethernet",
			"interface-name": c.iface,
			"autoconnect":    true,
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "auto"},
	}
	return c.e.NM.AddAndActivateConnection(settings, c.device)
}

// wirelessSettings builds the profile for a network NetworkManager has not
// seen before.
func wirelessSettings(cfg network.IPConfig) map[string]map[string]interface{} {
	settings := map[string]map[string]interface{}{
		"connection": {
			"id":             cfg.ESSID,
			"uuid":           uuid.New().String(),
			"type":           "802-11-wireless",
			"interface-name": cfg.Interface,
			"autoconnect":    true,
		},
		"802-11-wireless": {
			"mode": "infrastructure",
			"ssid": []byte(cfg.ESSID),
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "auto"},
	}

	switch cfg.Encryption {
	case network.EncryptionNone:
	case network.EncryptionWEP:
		settings["802-11-wireless"]["security"] = "802-11-wireless-security"
		settings["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "none",
			"wep-key0": cfg.Passphrase,
		}
	default:
		settings["802-11-wireless"]["security"] = "802-11-wireless-security"
		settings["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "wpa-psk",
			"psk":      cfg.Passphrase,
		}
	}
	return settings
}

func waitActivated(active gonetworkmanager.ActiveConnection, timeout time.Duration) error {
	stateChanges := make(chan gonetworkmanager.StateChange, 1)
	done := make(chan struct{})
	defer close(done)
	if err := active.SubscribeState(stateChanges, done); err != nil {
		return err
	}

	initial, err := active.GetPropertyState()
	if err != nil {
		return err
	}
	if initial == gonetworkmanager.NmActiveConnectionStateActivated {
		return nil
	}

	deadline := time.After(timeout)
	for {
		select {
		case change := <-stateChanges:
			switch change.State {
			case gonetworkmanager.NmActiveConnectionStateActivated:
				return nil
			case gonetworkmanager.NmActiveConnectionStateDeactivated:
				return fmt.Errorf("connection deactivated: %w", network.ErrOperationFailed)
			}
		case <-deadline:
			return fmt.Errorf("connection timed out: %w", network.ErrOperationFailed)
		}
	}
}

// Forget deletes the saved profile for this connection, if there is one.
func (c *Connection) Forget() error {
	if c.typ != network.TypeWireless {
		return fmt.Errorf("forget %s: %w", c.id, network.ErrNotSupported)
	}
	known := c.e.findKnownConnection(c.essid)
	if known == nil {
		return fmt.Errorf("no saved profile for %s: %w", c.essid, network.ErrNotFound)
	}
	return known.Delete()
}
