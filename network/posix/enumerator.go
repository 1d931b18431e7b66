package posix

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/shazow/netmgr/network"
)

const (
	maxScanAttempts   = 3
	scanBufferInitial = 4096
	// The result length travels in a 16 bit field.
	scanBufferMax    = 0xFFFF
	scanPollInterval = 250 * time.Millisecond
	scanWaitMax      = 15 * time.Second

	DefaultRescanInterval = 60 * time.Second
)

// Options configures an Enumerator. Zero values select the defaults.
type Options struct {
	Sys      Sys
	Settings Settings

	// WiredInterface and WirelessInterface name the managed devices. When
	// empty the first matching physical device is used.
	WiredInterface    string
	WirelessInterface string

	// RescanInterval is how often the connection list is rebuilt while
	// pumping events. Negative disables rescans.
	RescanInterval time.Duration
	Throttle       *network.Throttle

	Now    func() time.Time
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// Enumerator discovers the wired port and the wireless networks in range.
// It implements network.Enumerator.
type Enumerator struct {
	opts        Options
	logger      *slog.Logger
	connections []*Connection
	lastScan    time.Time
}

// New creates an Enumerator and performs the first scan.
func New(opts Options) (*Enumerator, error) {
	if opts.Sys == nil {
		return nil, fmt.Errorf("posix enumerator without OS access: %w", network.ErrNotAvailable)
	}
	if opts.Throttle == nil {
		opts.Throttle = network.NewThrottle()
	}
	if opts.RescanInterval == 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Enumerator{
		opts:   opts,
		logger: opts.Logger.With("enumerator", "posix"),
	}
	if _, err := e.Scan(); err != nil {
		return nil, err
	}
	return e, nil
}

// CanManageConnections is always true: the settings file is writable by us.
func (e *Enumerator) CanManageConnections() bool { return true }

func (e *Enumerator) Connections() []network.Connection {
	list := make([]network.Connection, len(e.connections))
	for i, c := range e.connections {
		list[i] = c
	}
	return list
}

// Scan rebuilds the connection list from fresh objects. Connections that
// are still present carry over their cached state.
func (e *Enumerator) Scan() ([]network.Connection, error) {
	e.lastScan = e.opts.Now()

	names, err := e.opts.Sys.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	wired, wireless := e.classify(names)

	cached := make(map[string]network.ConnectionState, len(e.connections))
	for _, c := range e.connections {
		cached[c.id] = c.state
	}
	var conns []*Connection
	seen := make(map[string]bool)
	add := func(id, iface string) *Connection {
		if seen[id] {
			return nil
		}
		seen[id] = true
		c := NewConnection(id, iface, e.opts.Sys, e.opts.Settings, e.logger)
		if state, ok := cached[id]; ok {
			c.state = state
		}
		conns = append(conns, c)
		return c
	}

	if wired != "" {
		link, err := e.opts.Sys.Link(wired)
		if err != nil {
			e.logger.Warn("failed to query wired interface", "interface", wired, "error", err)
		} else if link.Ethernet && !link.Loopback() {
			add(network.WiredID(network.FormatMAC(link.HardwareAddr)), wired)
		}
	}

	if wireless != "" {
		aps, rng, err := e.scanWireless(wireless)
		if err != nil {
			e.logger.Warn("wireless scan failed", "interface", wireless, "error", err)
		}
		for _, ap := range aps {
			if c := add(ap.ID(), wireless); c != nil {
				c.setSignal(ap.Quality, rng.MaxQuality)
			}
		}
	}

	e.connections = conns
	e.logger.Debug("connections enumerated", "count", len(conns), "wired", wired, "wireless", wireless)
	return e.Connections(), nil
}

// classify picks the wired and wireless devices among names.
func (e *Enumerator) classify(names []string) (wired, wireless string) {
	for _, name := range names {
		if name == "lo" {
			continue
		}
		switch {
		case e.opts.WirelessInterface != "":
			if name == e.opts.WirelessInterface {
				wireless = name
			}
		case wireless == "" && e.opts.Sys.IsWireless(name):
			wireless = name
		}
		switch {
		case e.opts.WiredInterface != "":
			if name == e.opts.WiredInterface {
				wired = name
			}
		case wired == "" && name != wireless && !e.opts.Sys.IsWireless(name) && e.opts.Sys.IsPhysical(name):
			wired = name
		}
	}
	return wired, wireless
}

// scanWireless retries a full scan a few times before giving up.
func (e *Enumerator) scanWireless(iface string) ([]accessPoint, WirelessRange, error) {
	var lastErr error
	for attempt := 1; attempt <= maxScanAttempts; attempt++ {
		aps, rng, err := e.scanOnce(iface)
		if err == nil {
			return aps, rng, nil
		}
		e.logger.Debug("scan attempt failed", "interface", iface, "attempt", attempt, "error", err)
		lastErr = err
	}
	return nil, WirelessRange{}, lastErr
}

func (e *Enumerator) scanOnce(iface string) ([]accessPoint, WirelessRange, error) {
	rng, err := e.opts.Sys.WirelessRange(iface)
	if err != nil {
		return nil, rng, fmt.Errorf("query range: %w", err)
	}
	if err := e.opts.Sys.TriggerScan(iface); err != nil {
		return nil, rng, fmt.Errorf("trigger scan: %w", err)
	}

	buf := make([]byte, scanBufferInitial)
	var waited time.Duration
	for {
		n, err := e.opts.Sys.ScanResults(iface, buf)
		switch {
		case errors.Is(err, ErrScanBufferTooSmall):
			if len(buf) >= scanBufferMax {
				return nil, rng, err
			}
			buf = make([]byte, min(len(buf)*2, scanBufferMax))
			continue
		case errors.Is(err, ErrScanPending):
			if waited >= scanWaitMax {
				return nil, rng, fmt.Errorf("scan did not finish after %s: %w", waited, err)
			}
			e.opts.Sleep(scanPollInterval)
			waited += scanPollInterval
			continue
		case err != nil:
			return nil, rng, fmt.Errorf("read scan results: %w", err)
		}
		return parseScanEvents(buf[:n], rng.WEVersion), rng, nil
	}
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

// Close releases the OS handles held by the query surface.
func (e *Enumerator) Close() error {
	if closer, ok := e.opts.Sys.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
