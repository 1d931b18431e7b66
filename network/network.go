// Package network holds the connection model shared by every platform
// enumerator and the callbacks an enumerator uses to report changes.
package network

// ConnectionState is the externally observable status of a Connection.
type ConnectionState int

const (
	StateUnknown ConnectionState = iota
	StateDisconnected
	StateConnecting
	StateConnected
	StateFailure
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailure:
		return "failure"
	}
	return "unknown"
}

// ConnectionType is the physical medium of a Connection.
type ConnectionType int

const (
	TypeUnknown ConnectionType = iota
	TypeWired
	TypeWireless
)

func (t ConnectionType) String() string {
	switch t {
	case TypeWired:
		return "wired"
	case TypeWireless:
		return "wireless"
	}
	return "unknown"
}

// Encryption is the security scheme of a wireless network.
type Encryption int

const (
	EncryptionNone Encryption = iota
	EncryptionWEP
	EncryptionWPA
	EncryptionWPA2
	EncryptionUnknown
)

// String returns the label used in connection identifiers.
func (e Encryption) String() string {
	switch e {
	case EncryptionNone:
		return "none"
	case EncryptionWEP:
		return "wep"
	case EncryptionWPA:
		return "wpa"
	case EncryptionWPA2:
		return "wpa2"
	}
	return "unknown"
}

// ParseEncryption is the inverse of Encryption.String. Unrecognized labels
// map to EncryptionUnknown.
func ParseEncryption(label string) Encryption {
	switch label {
	case "none":
		return EncryptionNone
	case "wep":
		return EncryptionWEP
	case "wpa":
		return EncryptionWPA
	case "wpa2":
		return EncryptionWPA2
	}
	return EncryptionUnknown
}

// Method is how an interface obtains its IPv4 address.
type Method int

const (
	MethodDHCP Method = iota
	MethodStatic
)

func (m Method) String() string {
	if m == MethodStatic {
		return "static"
	}
	return "dhcp"
}

// IPConfig is the configuration applied to an interface when connecting.
type IPConfig struct {
	Method     Method
	Address    string
	Netmask    string
	Gateway    string
	Interface  string
	ESSID      string
	Encryption Encryption
	Passphrase string
}

// Connection is a single candidate way of reaching the network: a wired
// port or a wireless network seen through one access point.
//
// Getters never fail: OS query errors surface as empty strings, zero values
// or StateDisconnected.
type Connection interface {
	// ID is the synthetic identifier, see WiredID and WirelessID.
	ID() string
	// Name is the ESSID for wireless connections and "Wired" otherwise.
	Name() string
	Interface() string
	Type() ConnectionType
	Encryption() Encryption

	// State is the state recorded by the last PumpNetworkEvents.
	State() ConnectionState
	// ConnectionState evaluates the state from the OS without touching the
	// cached value.
	ConnectionState() ConnectionState

	Address() string
	Netmask() string
	Gateway() string
	MacAddress() string
	// Strength is the signal quality in percent; wired connections report 100.
	Strength() uint8
	// Speed is the link speed in Mbit/s.
	Speed() uint

	// Connect applies this connection's configuration to the OS. Passphrases
	// are obtained from storage when the connection is encrypted.
	Connect(storage PassphraseStorage) (IPConfig, error)

	// PumpNetworkEvents re-evaluates the state, caches it and reports
	// whether it changed since the previous call.
	PumpNetworkEvents() bool
}

// EventsCallback receives change notifications from an Enumerator.
type EventsCallback interface {
	OnConnectionChange(c Connection)
	OnConnectionStateChange(state ConnectionState)
	OnConnectionListChange(list []Connection)
	// IsConnectionsViewOpen reports whether a user is looking at the
	// connections list, which makes enumerators poll faster.
	IsConnectionsViewOpen() bool
}

// Enumerator discovers connections on one platform.
type Enumerator interface {
	CanManageConnections() bool
	Connections() []Connection
	// PumpNetworkEvents polls the connections and reports transitions to cb.
	// It returns true when anything changed.
	PumpNetworkEvents(cb EventsCallback) bool
}

// Scanner is implemented by enumerators that can rebuild their connection
// list on demand.
type Scanner interface {
	Scan() ([]Connection, error)
}

// WakeOnLANSender is implemented by enumerators that can wake a remote host.
type WakeOnLANSender interface {
	SendWakeOnLAN(mac string) error
}
