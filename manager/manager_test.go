package manager

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/netmgr/internal/metrics"
	"github.com/shazow/netmgr/keyring"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/network/mock"
	"github.com/shazow/netmgr/services"
)

type serviceLog struct {
	starts, stops int
	startErr      error
}

func (l *serviceLog) service(name string) services.Func {
	return services.Func{
		ServiceName: name,
		OnStart: func() error {
			l.starts++
			return l.startErr
		},
		OnStop: func(wait bool) {
			if wait {
				l.stops++
			}
		},
	}
}

type notifier struct {
	open    bool
	changes int
}

func (n *notifier) IsConnectionsViewOpen() bool { return n.open }
func (n *notifier) ConnectionsChanged()         { n.changes++ }

type warnings []string

func (w *warnings) Warn(title, message string) { *w = append(*w, message) }

type fixture struct {
	m        *Manager
	mock     *mock.Enumerator
	now      *time.Time
	log      *serviceLog
	notifier *notifier
	secrets  *keyring.Memory
	metrics  *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	e := mock.New()
	e.ActionSleep = 0
	now := time.Unix(1000, 0)
	e.Now = func() time.Time { return now }

	f := &fixture{
		mock:     e,
		now:      &now,
		log:      &serviceLog{},
		notifier: &notifier{},
		secrets:  keyring.NewMemory(),
		metrics:  metrics.NewRegistry(),
	}
	f.m = New(Options{
		Secrets:  f.secrets,
		Services: services.NewGroup(nil, f.log.service("timesync")),
		Notifier: f.notifier,
		Metrics:  f.metrics,
	})
	f.m.Initialize(func(*slog.Logger) (network.Enumerator, error) { return e, nil })
	return f
}

// pump advances past the throttle and pumps once.
func (f *fixture) pump() bool {
	*f.now = f.now.Add(network.PollSlow)
	return f.m.PumpNetworkEvents()
}

func TestInitializeSeedsDefault(t *testing.T) {
	f := newFixture(t)
	wired := f.mock.Active()

	assert.Equal(t, network.StateConnected, f.m.DefaultConnectionState())
	assert.True(t, f.m.IsConnected())
	assert.Equal(t, wired, f.m.DefaultConnection().ID())
	assert.Equal(t, network.WiredName, f.m.DefaultConnectionName())
	assert.Equal(t, "192.168.1.23", f.m.DefaultConnectionIP())
	assert.Equal(t, "255.255.255.0", f.m.DefaultConnectionNetmask())
	assert.Equal(t, "192.168.1.1", f.m.DefaultConnectionGateway())
	assert.Equal(t, 1, f.log.starts)
}

func TestInitializeFallsBackToNull(t *testing.T) {
	m := New(Options{})
	m.Initialize(func(*slog.Logger) (network.Enumerator, error) { return nil, network.ErrNotAvailable })

	assert.IsType(t, network.NullEnumerator{}, m.Enumerator())
	assert.False(t, m.CanManageConnections())
	assert.Equal(t, network.StateUnknown, m.DefaultConnectionState())
	assert.Equal(t, "", m.DefaultConnectionName())
	assert.Equal(t, "", m.DefaultConnectionIP())
	assert.Equal(t, "", m.DefaultConnectionMacAddress())
	assert.False(t, m.PumpNetworkEvents())
	assert.ErrorIs(t, m.Scan(), network.ErrNotSupported)
}

func TestLosingDefaultStopsServices(t *testing.T) {
	f := newFixture(t)
	f.pump() // cache the wired state

	f.mock.SetActive("")
	require.True(t, f.pump())
	assert.Equal(t, network.StateDisconnected, f.m.DefaultConnectionState())
	assert.Equal(t, 1, f.log.stops)

	// Nothing crosses the boundary again.
	assert.False(t, f.pump())
	assert.Equal(t, 1, f.log.starts)
	assert.Equal(t, 1, f.log.stops)
}

func TestSwitchingDefaultKeepsServices(t *testing.T) {
	f := newFixture(t)
	f.pump()

	wireless := network.WirelessID("Unencrypted_Honeypot", "02:00:00:00:00:04", network.EncryptionNone)
	f.mock.SetActive(wireless)
	f.pump()

	assert.Equal(t, wireless, f.m.DefaultConnection().ID())
	assert.True(t, f.m.IsConnected())
	assert.Equal(t, 1, f.log.starts)
	assert.Equal(t, 0, f.log.stops)
}

func TestNotifiesOnlyWhenOpen(t *testing.T) {
	f := newFixture(t)
	f.mock.SetActive("")
	f.pump()
	assert.Equal(t, 0, f.notifier.changes)

	f.notifier.open = true
	f.mock.SetActive(f.mock.Connections()[0].ID())
	f.pump()
	assert.Positive(t, f.notifier.changes)
}

func TestConnectStoresSecret(t *testing.T) {
	f := newFixture(t)
	id := network.WirelessID("Password is password", "02:00:00:00:00:05", network.EncryptionWPA2)

	prompted := 0
	prompt := network.PromptFunc(func(string) (string, bool) {
		prompted++
		return "password", true
	})
	require.NoError(t, f.m.Connect(id, prompt))
	assert.Equal(t, 1, prompted)

	secret, ok, err := f.m.Secret(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "password", secret)

	f.pump()
	assert.Equal(t, id, f.m.DefaultConnection().ID())

	require.NoError(t, f.m.Forget(id))
	_, ok, _ = f.m.Secret(id)
	assert.False(t, ok)
}

func TestConnectCancelled(t *testing.T) {
	f := newFixture(t)
	id := network.WirelessID("Password is password", "02:00:00:00:00:05", network.EncryptionWPA2)
	cancel := network.PromptFunc(func(string) (string, bool) { return "", false })

	err := f.m.Connect(id, cancel)
	assert.True(t, network.IsCancelled(err), "Connect() err=%v", err)
	assert.NotEqual(t, id, f.mock.Active())

	assert.ErrorIs(t, f.m.Connect("wifi_Nowhere_00:00:00:00:00:00_none", nil), network.ErrNotFound)
}

func TestServiceFailureWarns(t *testing.T) {
	log := &serviceLog{startErr: errors.New("boom")}
	w := &warnings{}
	m := New(Options{Services: services.NewGroup(nil, log.service("webserver")), Warner: w})
	m.OnConnectionStateChange(network.StateConnected)

	assert.Equal(t, 1, log.starts)
	assert.Len(t, *w, 1)
	assert.True(t, m.IsConnected())
}

func TestScanReportsList(t *testing.T) {
	f := newFixture(t)
	f.notifier.open = true
	before := f.notifier.changes
	require.NoError(t, f.m.Scan())
	assert.Greater(t, f.notifier.changes, before)
	assert.Len(t, f.m.Connections(), len(f.mock.Connections()))
}

func TestDefaultRemovedFromList(t *testing.T) {
	f := newFixture(t)
	f.pump()
	wired := f.mock.Active()

	f.mock.Remove(wired)
	f.pump()
	assert.Equal(t, "", f.m.DefaultConnection().ID())
	assert.Equal(t, network.StateDisconnected, f.m.DefaultConnectionState())
	assert.Equal(t, 1, f.log.stops)
}

// Services start once per entry into Connected and stop once per exit.
func TestServiceTransitionsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	states := gen.IntRange(int(network.StateUnknown), int(network.StateFailure))
	properties.Property("starts and stops match boundary crossings", prop.ForAll(
		func(seq []int) bool {
			log := &serviceLog{}
			m := New(Options{Services: services.NewGroup(nil, log.service("s"))})
			prev := network.StateUnknown
			wantStarts, wantStops := 0, 0
			for _, raw := range seq {
				s := network.ConnectionState(raw)
				if s != prev {
					if s == network.StateConnected {
						wantStarts++
					} else if prev == network.StateConnected {
						wantStops++
					}
				}
				prev = s
				m.OnConnectionStateChange(s)
			}
			return log.starts == wantStarts && log.stops == wantStops
		},
		gen.SliceOf(states),
	))
	properties.TestingRun(t)
}
