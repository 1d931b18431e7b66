package network

// NullConnection is the placeholder default connection. Every query returns
// the empty value and Connect always fails.
type NullConnection struct{}

func (NullConnection) ID() string                       { return "" }
func (NullConnection) Name() string                     { return "" }
func (NullConnection) Interface() string                { return "" }
func (NullConnection) Type() ConnectionType             { return TypeUnknown }
func (NullConnection) Encryption() Encryption           { return EncryptionNone }
func (NullConnection) State() ConnectionState           { return StateUnknown }
func (NullConnection) ConnectionState() ConnectionState { return StateUnknown }
func (NullConnection) Address() string                  { return "" }
func (NullConnection) Netmask() string                  { return "" }
func (NullConnection) Gateway() string                  { return "" }
func (NullConnection) MacAddress() string               { return "" }
func (NullConnection) Strength() uint8                  { return 0 }
func (NullConnection) Speed() uint                      { return 0 }
func (NullConnection) PumpNetworkEvents() bool          { return false }

func (NullConnection) Connect(PassphraseStorage) (IPConfig, error) {
	return IPConfig{}, ErrNotSupported
}

// NullEnumerator is used when no platform enumerator is available.
type NullEnumerator struct{}

func (NullEnumerator) CanManageConnections() bool                { return false }
func (NullEnumerator) Connections() []Connection                 { return nil }
func (NullEnumerator) PumpNetworkEvents(cb EventsCallback) bool { return false }
