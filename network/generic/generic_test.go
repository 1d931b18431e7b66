package generic

import (
	"errors"
	"net"
	"testing"

	"github.com/shazow/netmgr/network"
)

type callbacks struct {
	changed []string
	states  []network.ConnectionState
	lists   int
}

func (c *callbacks) OnConnectionChange(conn network.Connection) { c.changed = append(c.changed, conn.ID()) }
func (c *callbacks) OnConnectionStateChange(s network.ConnectionState) {
	c.states = append(c.states, s)
}
func (c *callbacks) OnConnectionListChange([]network.Connection) { c.lists++ }
func (c *callbacks) IsConnectionsViewOpen() bool                 { return true }

func TestEnumerator(t *testing.T) {
	mac, _ := net.ParseMAC("00:1a:2b:3c:4d:5e")
	ifaces := []Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{
			Name:         "en0",
			Flags:        net.FlagUp | net.FlagRunning,
			HardwareAddr: mac,
			Addrs:        []net.Addr{&net.IPNet{IP: net.IPv4(10, 0, 0, 5).To4(), Mask: net.CIDRMask(8, 32)}},
		},
	}
	e, err := New(func() ([]Interface, error) { return ifaces, nil }, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	conns := e.Connections()
	if len(conns) != 1 {
		t.Fatalf("len(Connections())=%d, want 1", len(conns))
	}
	c := conns[0]
	if got, want := c.ID(), "wired_00:1A:2B:3C:4D:5E"; got != want {
		t.Errorf("ID()=%q, want %q", got, want)
	}

	if c.State() != network.StateUnknown {
		t.Errorf("State() before the first pump=%v, want unknown", c.State())
	}

	cb := &callbacks{}
	if !e.PumpNetworkEvents(cb) {
		t.Fatal("PumpNetworkEvents()=false, want true")
	}
	if len(cb.states) != 1 || cb.states[0] != network.StateConnected {
		t.Errorf("states=%v, want [connected]", cb.states)
	}
	if got := c.Address(); got != "10.0.0.5" {
		t.Errorf("Address()=%q, want %q", got, "10.0.0.5")
	}
	if got := c.Netmask(); got != "255.0.0.0" {
		t.Errorf("Netmask()=%q, want %q", got, "255.0.0.0")
	}
	if e.CanManageConnections() {
		t.Error("CanManageConnections()=true, want false")
	}
	if _, err := c.Connect(nil); !errors.Is(err, network.ErrNotSupported) {
		t.Errorf("Connect() err=%v, want ErrNotSupported", err)
	}
}
