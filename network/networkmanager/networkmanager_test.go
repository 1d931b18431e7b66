//go:build linux

package networkmanager

import (
	"errors"
	"testing"
	"time"

	gonetworkmanager "github.com/Wifx/gonetworkmanager/v3"

	"github.com/shazow/netmgr/network"
)

type mockNM struct {
	gonetworkmanager.NetworkManager
	devices []gonetworkmanager.Device
	enabled bool

	addAndActivateFunc func(map[string]map[string]interface{}) (gonetworkmanager.ActiveConnection, error)
	activatedKnown     gonetworkmanager.Connection
	active             gonetworkmanager.ActiveConnection
}

func (m *mockNM) GetDevices() ([]gonetworkmanager.Device, error) { return m.devices, nil }

func (m *mockNM) GetPropertyNetworkingEnabled() (bool, error) { return m.enabled, nil }

func (m *mockNM) AddAndActivateWirelessConnection(s map[string]map[string]interface{}, d gonetworkmanager.Device, ap gonetworkmanager.AccessPoint) (gonetworkmanager.ActiveConnection, error) {
	return m.addAndActivateFunc(s)
}

func (m *mockNM) ActivateWirelessConnection(c gonetworkmanager.Connection, d gonetworkmanager.Device, ap gonetworkmanager.AccessPoint) (gonetworkmanager.ActiveConnection, error) {
	m.activatedKnown = c
	return m.active, nil
}

type mockSettings struct {
	gonetworkmanager.Settings
	known []gonetworkmanager.Connection
}

func (m *mockSettings) ListConnections() ([]gonetworkmanager.Connection, error) { return m.known, nil }

type mockSavedConnection struct {
	gonetworkmanager.Connection
	ssid    string
	deleted bool
}

func (m *mockSavedConnection) GetSettings() (gonetworkmanager.ConnectionSettings, error) {
	return gonetworkmanager.ConnectionSettings{
		"connection":      {"type": "802-11-wireless"},
		"802-11-wireless": {"ssid": []byte(m.ssid)},
	}, nil
}

func (m *mockSavedConnection) Delete() error {
	m.deleted = true
	return nil
}

type mockAP struct {
	gonetworkmanager.AccessPoint
	ssid, bssid string
	strength    uint8
	rsn         uint32
}

func (m *mockAP) GetPropertySSID() (string, error)      { return m.ssid, nil }
func (m *mockAP) GetPropertyHWAddress() (string, error) { return m.bssid, nil }
func (m *mockAP) GetPropertyStrength() (uint8, error)   { return m.strength, nil }
func (m *mockAP) GetPropertyFlags() (uint32, error)     { return 0, nil }
func (m *mockAP) GetPropertyWPAFlags() (uint32, error)  { return 0, nil }
func (m *mockAP) GetPropertyRSNFlags() (uint32, error)  { return m.rsn, nil }

type mockDeviceWireless struct {
	gonetworkmanager.DeviceWireless
	aps    []gonetworkmanager.AccessPoint
	active gonetworkmanager.AccessPoint
	state  gonetworkmanager.NmDeviceState
}

func (m *mockDeviceWireless) GetPropertyInterface() (string, error) { return "wlan0", nil }
func (m *mockDeviceWireless) RequestScan() error                    { return nil }
func (m *mockDeviceWireless) GetAccessPoints() ([]gonetworkmanager.AccessPoint, error) {
	return m.aps, nil
}
func (m *mockDeviceWireless) GetPropertyActiveAccessPoint() (gonetworkmanager.AccessPoint, error) {
	return m.active, nil
}
func (m *mockDeviceWireless) GetPropertyState() (gonetworkmanager.NmDeviceState, error) {
	return m.state, nil
}

type mockDeviceWired struct {
	gonetworkmanager.DeviceWired
	mac   string
	state gonetworkmanager.NmDeviceState
}

func (m *mockDeviceWired) GetPropertyInterface() (string, error) { return "eth0", nil }
func (m *mockDeviceWired) GetPropertyHwAddress() (string, error) { return m.mac, nil }
func (m *mockDeviceWired) GetPropertySpeed() (uint32, error)     { return 1000, nil }
func (m *mockDeviceWired) GetPropertyState() (gonetworkmanager.NmDeviceState, error) {
	return m.state, nil
}

type mockActive struct {
	gonetworkmanager.ActiveConnection
	initial gonetworkmanager.NmActiveConnectionState
	next    []gonetworkmanager.NmActiveConnectionState
}

func (m *mockActive) SubscribeState(ch chan gonetworkmanager.StateChange, exit chan struct{}) error {
	go func() {
		for _, s := range m.next {
			select {
			case ch <- gonetworkmanager.StateChange{State: s}:
			case <-exit:
				return
			}
		}
	}()
	return nil
}

func (m *mockActive) GetPropertyState() (gonetworkmanager.NmActiveConnectionState, error) {
	return m.initial, nil
}

type storage struct {
	passphrase  string
	stored      []string
	invalidated []string
}

func (s *storage) GetPassphrase(id string) (string, error) {
	if s.passphrase == "" {
		return "", network.ErrCancelled
	}
	return s.passphrase, nil
}
func (s *storage) StorePassphrase(id, p string) error {
	s.stored = append(s.stored, id)
	return nil
}
func (s *storage) InvalidatePassphrase(id string) error {
	s.invalidated = append(s.invalidated, id)
	return nil
}

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
func (c *callbacks) IsConnectionsViewOpen() bool                 { return false }

const homeID = "wifi_Home_AA:BB:CC:DD:EE:01_wpa2"

func testEnumerator(t *testing.T) (*Enumerator, *mockNM, *mockDeviceWireless, *mockDeviceWired) {
	t.Helper()
	home := &mockAP{ssid: "Home", bssid: "aa:bb:cc:dd:ee:01", strength: 80, rsn: 0x100}
	wifi := &mockDeviceWireless{
		aps: []gonetworkmanager.AccessPoint{
			home,
			&mockAP{ssid: "Cafe", bssid: "AA:BB:CC:DD:EE:02", strength: 40},
			&mockAP{ssid: "", bssid: "AA:BB:CC:DD:EE:03"},
		},
		state: gonetworkmanager.NmDeviceStateDisconnected,
	}
	wired := &mockDeviceWired{mac: "00:11:22:33:44:55", state: gonetworkmanager.NmDeviceStateUnavailable}
	nm := &mockNM{devices: []gonetworkmanager.Device{wired, wifi}, enabled: true}

	now := time.Unix(1000, 0)
	e := newEnumerator(nm, &mockSettings{}, Options{Now: func() time.Time { return now }, RescanInterval: -1})
	if _, err := e.Scan(); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	return e, nm, wifi, wired
}

func TestScan(t *testing.T) {
	e, _, _, _ := testEnumerator(t)

	var got []string
	for _, c := range e.Connections() {
		got = append(got, c.ID())
	}
	want := []string{
		"wired_00:11:22:33:44:55",
		homeID,
		"wifi_Cafe_AA:BB:CC:DD:EE:02_none",
	}
	if len(got) != len(want) {
		t.Fatalf("Connections()=%q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Connections()[%d]=%q, want %q", i, got[i], want[i])
		}
	}
	if !e.CanManageConnections() {
		t.Error("CanManageConnections()=false, want true")
	}
}

func TestEncryptionFromFlags(t *testing.T) {
	tests := []struct {
		name            string
		flags, wpa, rsn uint32
		want            network.Encryption
	}{
		{"open", 0, 0, 0, network.EncryptionNone},
		{"wep", uint32(gonetworkmanager.Nm80211APFlagsPrivacy), 0, 0, network.EncryptionWEP},
		{"wpa", uint32(gonetworkmanager.Nm80211APFlagsPrivacy), 0x100, 0, network.EncryptionWPA},
		{"wpa2", uint32(gonetworkmanager.Nm80211APFlagsPrivacy), 0x100, 0x100, network.EncryptionWPA2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encryptionFromFlags(tt.flags, tt.wpa, tt.rsn); got != tt.want {
				t.Errorf("encryptionFromFlags()=%v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateFromDevice(t *testing.T) {
	tests := []struct {
		in   gonetworkmanager.NmDeviceState
		want network.ConnectionState
	}{
		{gonetworkmanager.NmDeviceStateActivated, network.StateConnected},
		{gonetworkmanager.NmDeviceStateConfig, network.StateConnecting},
		{gonetworkmanager.NmDeviceStateIpConfig, network.StateConnecting},
		{gonetworkmanager.NmDeviceStateFailed, network.StateFailure},
		{gonetworkmanager.NmDeviceStateDisconnected, network.StateDisconnected},
		{gonetworkmanager.NmDeviceStateUnavailable, network.StateDisconnected},
	}
	for _, tt := range tests {
		if got := stateFromDevice(tt.in); got != tt.want {
			t.Errorf("stateFromDevice(%d)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPumpReportsActiveAccessPoint(t *testing.T) {
	e, _, wifi, _ := testEnumerator(t)
	wifi.state = gonetworkmanager.NmDeviceStateActivated
	wifi.active = wifi.aps[0]

	for _, c := range e.Connections() {
		if c.State() != network.StateUnknown {
			t.Fatalf("%s State() before the first pump=%v, want unknown", c.ID(), c.State())
		}
	}
	cb := &callbacks{}
	if !e.PumpNetworkEvents(cb) {
		t.Fatal("PumpNetworkEvents()=false, want true")
	}
	if len(cb.changed) != 1 || cb.changed[0] != homeID {
		t.Errorf("changed=%q, want [%q]", cb.changed, homeID)
	}
	if len(cb.states) != 1 || cb.states[0] != network.StateConnected {
		t.Errorf("states=%v, want [connected]", cb.states)
	}
	for _, c := range e.Connections() {
		if c.ID() == "wifi_Cafe_AA:BB:CC:DD:EE:02_none" && c.State() != network.StateDisconnected {
			t.Errorf("Cafe state=%v, want disconnected", c.State())
		}
	}

	// Throttled until the next poll.
	if e.PumpNetworkEvents(cb) {
		t.Error("second PumpNetworkEvents()=true, want throttled")
	}
}

func TestConnectNewNetwork(t *testing.T) {
	e, nm, _, _ := testEnumerator(t)
	var got map[string]map[string]interface{}
	nm.addAndActivateFunc = func(s map[string]map[string]interface{}) (gonetworkmanager.ActiveConnection, error) {
		got = s
		return &mockActive{
			initial: gonetworkmanager.NmActiveConnectionStateActivating,
			next:    []gonetworkmanager.NmActiveConnectionState{gonetworkmanager.NmActiveConnectionStateActivated},
		}, nil
	}

	st := &storage{passphrase: "hunter22"}
	cfg, err := e.Connections()[1].Connect(st)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if cfg.ESSID != "Home" || cfg.Passphrase != "hunter22" {
		t.Errorf("Connect() cfg=%+v", cfg)
	}
	if psk := got["802-11-wireless-security"]["psk"]; psk != "hunter22" {
		t.Errorf("psk=%v, want %q", psk, "hunter22")
	}
	if len(st.stored) != 1 || st.stored[0] != homeID {
		t.Errorf("stored=%q, want [%q]", st.stored, homeID)
	}
}

func TestConnectDeactivatedInvalidates(t *testing.T) {
	e, nm, _, _ := testEnumerator(t)
	nm.addAndActivateFunc = func(map[string]map[string]interface{}) (gonetworkmanager.ActiveConnection, error) {
		return &mockActive{
			initial: gonetworkmanager.NmActiveConnectionStateActivating,
			next:    []gonetworkmanager.NmActiveConnectionState{gonetworkmanager.NmActiveConnectionStateDeactivated},
		}, nil
	}

	st := &storage{passphrase: "wrong"}
	_, err := e.Connections()[1].Connect(st)
	if !errors.Is(err, network.ErrOperationFailed) {
		t.Fatalf("Connect() err=%v, want ErrOperationFailed", err)
	}
	if len(st.invalidated) != 1 || st.invalidated[0] != homeID {
		t.Errorf("invalidated=%q, want [%q]", st.invalidated, homeID)
	}
	if len(st.stored) != 0 {
		t.Errorf("stored=%q, want none", st.stored)
	}
}

func TestConnectCancelled(t *testing.T) {
	e, nm, _, _ := testEnumerator(t)
	nm.addAndActivateFunc = func(map[string]map[string]interface{}) (gonetworkmanager.ActiveConnection, error) {
		t.Fatal("activation attempted after cancelled prompt")
		return nil, nil
	}
	_, err := e.Connections()[1].Connect(&storage{})
	if !errors.Is(err, network.ErrCancelled) {
		t.Fatalf("Connect() err=%v, want ErrCancelled", err)
	}
}

func TestConnectKnownProfile(t *testing.T) {
	e, nm, _, _ := testEnumerator(t)
	saved := &mockSavedConnection{ssid: "Home"}
	e.Settings = &mockSettings{known: []gonetworkmanager.Connection{saved}}
	nm.active = &mockActive{initial: gonetworkmanager.NmActiveConnectionStateActivated}

	st := &storage{}
	if _, err := e.Connections()[1].Connect(st); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if nm.activatedKnown != saved {
		t.Error("saved profile was not activated")
	}

	if err := e.Connections()[1].(*Connection).Forget(); err != nil {
		t.Fatalf("Forget() failed: %v", err)
	}
	if !saved.deleted {
		t.Error("saved profile was not deleted")
	}
}

func TestWiredDetails(t *testing.T) {
	e, _, _, _ := testEnumerator(t)
	c := e.Connections()[0]
	if got := c.MacAddress(); got != "00:11:22:33:44:55" {
		t.Errorf("MacAddress()=%q", got)
	}
	if got := c.Speed(); got != 1000 {
		t.Errorf("Speed()=%d, want 1000", got)
	}
	if got := c.Strength(); got != 100 {
		t.Errorf("Strength()=%d, want 100", got)
	}
}
