package posix

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/shazow/netmgr/network"
)

const (
	applyTimeout = 2 * time.Minute

	wiredStrength = 100
	defaultSpeed  = 100
)

// Settings persists an IP configuration and applies it to the OS.
type Settings interface {
	Apply(ctx context.Context, cfg network.IPConfig, typ network.ConnectionType) error
}

// Connection is a wired port or a wireless network seen through one access
// point. It implements network.Connection.
type Connection struct {
	id         string
	name       string
	essid      string
	iface      string
	typ        network.ConnectionType
	encryption network.Encryption

	// Signal as seen by the last scan.
	quality    uint8
	maxQuality uint8

	state network.ConnectionState

	sys      Sys
	settings Settings
	logger   *slog.Logger
}

// NewConnection creates the connection described by id on iface.
func NewConnection(id, iface string, sys Sys, settings Settings, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	ident := network.ParseID(id)
	if ident.Type == network.TypeUnknown {
		iface = "unknown"
	}
	return &Connection{
		id:         id,
		name:       ident.Name,
		essid:      ident.ESSID,
		iface:      iface,
		typ:        ident.Type,
		encryption: ident.Encryption,
		state:      network.StateUnknown,
		sys:        sys,
		settings:   settings,
		logger:     logger.With("id", id),
	}
}

func (c *Connection) ID() string                         { return c.id }
func (c *Connection) Name() string                       { return c.name }
func (c *Connection) Interface() string                  { return c.iface }
func (c *Connection) Type() network.ConnectionType       { return c.typ }
func (c *Connection) Encryption() network.Encryption     { return c.encryption }
func (c *Connection) State() network.ConnectionState     { return c.state }
func (c *Connection) setSignal(quality, maxQuality uint8) { c.quality, c.maxQuality = quality, maxQuality }

// ConnectionState evaluates, in order: link usable, address assigned,
// associated to our network (wireless only), default route present.
func (c *Connection) ConnectionState() network.ConnectionState {
	link, err := c.sys.Link(c.iface)
	if err != nil || !link.Usable() {
		return network.StateDisconnected
	}

	ip, _, err := c.sys.IPv4(c.iface)
	if err != nil || ip == nil || ip.IsUnspecified() {
		return network.StateDisconnected
	}

	if c.typ == network.TypeWireless {
		essid, err := c.sys.AssociatedESSID(c.iface)
		if err != nil || essid == "" || !strings.Contains(c.essid, essid) {
			return network.StateDisconnected
		}
	}

	gw, err := c.sys.DefaultGateway(c.iface)
	if err != nil || gw == nil {
		return network.StateDisconnected
	}
	return network.StateConnected
}

// PumpNetworkEvents refreshes the cached state and reports a change.
func (c *Connection) PumpNetworkEvents() bool {
	state := c.ConnectionState()
	if state == c.state {
		return false
	}
	c.logger.Debug("connection state changed", "from", c.state.String(), "to", state.String())
	c.state = state
	return true
}

func (c *Connection) Address() string {
	ip, _, err := c.sys.IPv4(c.iface)
	if err != nil || ip == nil {
		return ""
	}
	return ip.String()
}

func (c *Connection) Netmask() string {
	_, mask, err := c.sys.IPv4(c.iface)
	if err != nil || len(mask) == 0 {
		return ""
	}
	return net.IP(mask).String()
}

func (c *Connection) Gateway() string {
	gw, err := c.sys.DefaultGateway(c.iface)
	if err != nil || gw == nil {
		return ""
	}
	return gw.String()
}

// MacAddress returns all zeros when the interface cannot be queried.
func (c *Connection) MacAddress() string {
	link, err := c.sys.Link(c.iface)
	if err != nil {
		return network.FormatMAC(nil)
	}
	return network.FormatMAC(link.HardwareAddr)
}

func (c *Connection) Strength() uint8 {
	if c.typ != network.TypeWireless {
		return wiredStrength
	}
	quality := c.quality
	if c.state == network.StateConnected {
		if q, err := c.sys.LinkQuality(c.iface); err == nil {
			quality = q
		}
	}
	return percent(quality, c.maxQuality)
}

func percent(quality, maxQuality uint8) uint8 {
	if maxQuality == 0 {
		maxQuality = 100
	}
	p := uint(quality) * 100 / uint(maxQuality)
	if p > 100 {
		p = 100
	}
	return uint8(p)
}

func (c *Connection) Speed() uint {
	speed, err := c.sys.LinkSpeed(c.iface)
	if err != nil || speed == 0 {
		return defaultSpeed
	}
	return speed
}

// Connect writes this connection into the settings file and cycles the
// interfaces. The passphrase is stored once the settings were applied.
func (c *Connection) Connect(storage network.PassphraseStorage) (network.IPConfig, error) {
	cfg := network.IPConfig{
		Method:     network.MethodDHCP,
		Interface:  c.iface,
		ESSID:      c.essid,
		Encryption: c.encryption,
	}

	switch c.typ {
	case network.TypeWired:
	case network.TypeWireless:
		if needsPassphrase(c.encryption) {
			passphrase, err := storage.GetPassphrase(c.id)
			if err != nil {
				return cfg, err
			}
			cfg.Passphrase = passphrase
		}
	default:
		return cfg, fmt.Errorf("connect %s: %w", c.id, network.ErrNotSupported)
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()
	if err := c.settings.Apply(ctx, cfg, c.typ); err != nil {
		return cfg, fmt.Errorf("apply settings: %w", err)
	}

	if cfg.Passphrase != "" {
		if err := storage.StorePassphrase(c.id, cfg.Passphrase); err != nil {
			c.logger.Warn("failed to store passphrase", "error", err)
		}
	}
	return cfg, nil
}

func needsPassphrase(enc network.Encryption) bool {
	switch enc {
	case network.EncryptionWEP, network.EncryptionWPA, network.EncryptionWPA2:
		return true
	}
	return false
}
