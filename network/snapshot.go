package network

// Snapshot is a point-in-time copy of a Connection, safe to hand to views
// and encoders.
type Snapshot struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Interface  string          `json:"interface"`
	Type       ConnectionType  `json:"-"`
	Encryption Encryption      `json:"-"`
	State      ConnectionState `json:"-"`
	Strength   uint8           `json:"strength"`
	Speed      uint            `json:"speed"`
	Address    string          `json:"address,omitempty"`
	Netmask    string          `json:"netmask,omitempty"`
	Gateway    string          `json:"gateway,omitempty"`
	MacAddress string          `json:"mac,omitempty"`

	TypeLabel       string `json:"type"`
	EncryptionLabel string `json:"encryption"`
	StateLabel      string `json:"state"`
}

// Snap copies the cached view of c. Address details are only queried for
// connected connections.
func Snap(c Connection) Snapshot {
	s := Snapshot{
		ID:         c.ID(),
		Name:       c.Name(),
		Interface:  c.Interface(),
		Type:       c.Type(),
		Encryption: c.Encryption(),
		State:      c.State(),
		Strength:   c.Strength(),
		Speed:      c.Speed(),
		MacAddress: c.MacAddress(),
	}
	if s.State == StateConnected {
		s.Address = c.Address()
		s.Netmask = c.Netmask()
		s.Gateway = c.Gateway()
	}
	s.TypeLabel = s.Type.String()
	s.EncryptionLabel = s.Encryption.String()
	s.StateLabel = s.State.String()
	return s
}

// SnapAll snapshots and sorts a connection list.
func SnapAll(list []Connection) []Snapshot {
	snaps := make([]Snapshot, 0, len(list))
	for _, c := range list {
		snaps = append(snaps, Snap(c))
	}
	SortSnapshots(snaps)
	return snaps
}
