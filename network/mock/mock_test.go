package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/shazow/netmgr/network"
)

type storage struct {
	passphrase  string
	stored      map[string]string
	invalidated []string
}

func (s *storage) GetPassphrase(id string) (string, error) { return s.passphrase, nil }
func (s *storage) StorePassphrase(id, p string) error {
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	s.stored[id] = p
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

func newTestEnumerator() (*Enumerator, *time.Time) {
	m := New()
	m.ActionSleep = 0
	now := time.Unix(1000, 0)
	m.Now = func() time.Time { return now }
	return m, &now
}

var passwordID = network.WirelessID("Password is password", "02:00:00:00:00:05", network.EncryptionWPA2)

func TestConnectChecksSecret(t *testing.T) {
	m, _ := newTestEnumerator()
	c, ok := m.Get(passwordID)
	if !ok {
		t.Fatalf("Get(%q) not found", passwordID)
	}

	st := &storage{passphrase: "nope"}
	if _, err := c.Connect(st); !errors.Is(err, network.ErrOperationFailed) {
		t.Fatalf("Connect() err=%v, want ErrOperationFailed", err)
	}
	if len(st.invalidated) != 1 {
		t.Errorf("invalidated=%q, want one entry", st.invalidated)
	}

	st.passphrase = "password"
	cfg, err := c.Connect(st)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if cfg.ESSID != "Password is password" {
		t.Errorf("ESSID=%q", cfg.ESSID)
	}
	if got := st.stored[passwordID]; got != "password" {
		t.Errorf("stored=%q, want %q", got, "password")
	}
	if m.Active() != passwordID {
		t.Errorf("Active()=%q, want %q", m.Active(), passwordID)
	}
}

func TestPump(t *testing.T) {
	m, now := newTestEnumerator()
	cb := &callbacks{}

	for _, c := range m.Connections() {
		if c.State() != network.StateUnknown {
			t.Fatalf("%s State() before the first pump=%v, want unknown", c.ID(), c.State())
		}
	}
	if !m.PumpNetworkEvents(cb) {
		t.Fatal("first PumpNetworkEvents()=false, want true")
	}
	wiredID := m.Connections()[0].ID()
	if len(cb.states) != 1 || cb.states[0] != network.StateConnected {
		t.Errorf("states=%v, want [connected]", cb.states)
	}
	if len(cb.changed) != 1 || cb.changed[0] != wiredID {
		t.Errorf("changed=%q, want [%q]", cb.changed, wiredID)
	}

	m.SetActive("")
	*now = now.Add(network.PollSlow)
	cb = &callbacks{}
	m.PumpNetworkEvents(cb)
	if len(cb.changed) != 1 || len(cb.states) != 0 {
		t.Errorf("after disconnect changed=%q states=%v, want one change and no state", cb.changed, cb.states)
	}

	m.Remove(passwordID)
	*now = now.Add(network.PollSlow)
	cb = &callbacks{}
	m.PumpNetworkEvents(cb)
	if cb.lists != 1 {
		t.Errorf("lists=%d, want 1", cb.lists)
	}
}
