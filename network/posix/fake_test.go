package posix

import (
	"context"
	"errors"
	"net"

	"github.com/shazow/netmgr/network"
)

var errNoSuchDevice = errors.New("no such device")

// fakeSys is an in-memory Sys.
type fakeSys struct {
	ifaces   []string
	wireless map[string]bool
	physical map[string]bool
	links    map[string]LinkInfo
	addrs    map[string]net.IP
	masks    map[string]net.IPMask
	gateways map[string]net.IP
	essids   map[string]string
	quality  uint8
	speed    uint

	rng        WirelessRange
	rngErr     error
	triggerErr error
	scan       []byte
	// pending is the number of ScanResults calls answered with
	// ErrScanPending before results are ready. Negative never finishes.
	pending     int
	resultCalls int
	bufSizes    []int
}

func newFakeSys() *fakeSys {
	return &fakeSys{
		wireless: map[string]bool{},
		physical: map[string]bool{},
		links:    map[string]LinkInfo{},
		addrs:    map[string]net.IP{},
		masks:    map[string]net.IPMask{},
		gateways: map[string]net.IP{},
		essids:   map[string]string{},
		rng:      WirelessRange{WEVersion: 22, MaxQuality: 70},
	}
}

var upFlags = net.FlagUp | net.FlagRunning | net.FlagBroadcast

// connected configures iface as up with an address and a default route.
func (s *fakeSys) connected(iface string, wireless bool, mac string) {
	hw, _ := net.ParseMAC(mac)
	s.ifaces = append(s.ifaces, iface)
	s.wireless[iface] = wireless
	s.physical[iface] = true
	s.links[iface] = LinkInfo{Flags: upFlags, HardwareAddr: hw, Ethernet: true}
	s.addrs[iface] = net.IPv4(192, 168, 1, 20).To4()
	s.masks[iface] = net.CIDRMask(24, 32)
	s.gateways[iface] = net.IPv4(192, 168, 1, 1).To4()
}

func (s *fakeSys) Interfaces() ([]string, error) { return s.ifaces, nil }
func (s *fakeSys) IsWireless(iface string) bool  { return s.wireless[iface] }
func (s *fakeSys) IsPhysical(iface string) bool  { return s.physical[iface] }

func (s *fakeSys) Link(iface string) (LinkInfo, error) {
	l, ok := s.links[iface]
	if !ok {
		return LinkInfo{}, errNoSuchDevice
	}
	return l, nil
}

func (s *fakeSys) IPv4(iface string) (net.IP, net.IPMask, error) {
	ip, ok := s.addrs[iface]
	if !ok {
		return nil, nil, errNoSuchDevice
	}
	return ip, s.masks[iface], nil
}

func (s *fakeSys) DefaultGateway(iface string) (net.IP, error) {
	gw, ok := s.gateways[iface]
	if !ok {
		return nil, network.ErrNotFound
	}
	return gw, nil
}

func (s *fakeSys) LinkSpeed(iface string) (uint, error) {
	if s.speed == 0 {
		return 0, errNoSuchDevice
	}
	return s.speed, nil
}

func (s *fakeSys) AssociatedESSID(iface string) (string, error) {
	essid, ok := s.essids[iface]
	if !ok {
		return "", errNoSuchDevice
	}
	return essid, nil
}

func (s *fakeSys) WirelessRange(iface string) (WirelessRange, error) { return s.rng, s.rngErr }
func (s *fakeSys) LinkQuality(iface string) (uint8, error)          { return s.quality, nil }
func (s *fakeSys) TriggerScan(iface string) error                   { return s.triggerErr }

func (s *fakeSys) ScanResults(iface string, buf []byte) (int, error) {
	s.resultCalls++
	s.bufSizes = append(s.bufSizes, len(buf))
	if s.pending != 0 {
		if s.pending > 0 {
			s.pending--
		}
		return 0, ErrScanPending
	}
	if len(buf) < len(s.scan) {
		return 0, ErrScanBufferTooSmall
	}
	return copy(buf, s.scan), nil
}

// fakeSettings records applied configurations.
type fakeSettings struct {
	applied []network.IPConfig
	err     error
}

func (f *fakeSettings) Apply(ctx context.Context, cfg network.IPConfig, typ network.ConnectionType) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, cfg)
	return nil
}

// fakeStorage is a PassphraseStorage with a scripted answer.
type fakeStorage struct {
	passphrase string
	cancel     bool
	stored     map[string]string
}

func (f *fakeStorage) GetPassphrase(id string) (string, error) {
	if f.cancel {
		return "", network.ErrCancelled
	}
	return f.passphrase, nil
}

func (f *fakeStorage) StorePassphrase(id, passphrase string) error {
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[id] = passphrase
	return nil
}

func (f *fakeStorage) InvalidatePassphrase(id string) error {
	delete(f.stored, id)
	return nil
}

// recorder is an EventsCallback that records every call.
type recorder struct {
	viewOpen    bool
	changed     []string
	states      []network.ConnectionState
	listChanges int
}

func (r *recorder) OnConnectionChange(c network.Connection) { r.changed = append(r.changed, c.ID()) }
func (r *recorder) OnConnectionStateChange(s network.ConnectionState) {
	r.states = append(r.states, s)
}
func (r *recorder) OnConnectionListChange(list []network.Connection) { r.listChanges++ }
func (r *recorder) IsConnectionsViewOpen() bool                      { return r.viewOpen }
