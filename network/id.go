package network

import (
	"net"
	"strings"
)

const (
	wiredPrefix    = "wired_"
	wirelessPrefix = "wifi_"

	// WiredName is the display name of every wired connection.
	WiredName = "Wired"
	// UnknownName is the display name of identifiers that cannot be parsed.
	UnknownName = "Unknown"
)

// FormatMAC renders a hardware address as upper-case colon separated hex.
// A missing address renders as all zeros.
func FormatMAC(hw net.HardwareAddr) string {
	if len(hw) == 0 {
		hw = make(net.HardwareAddr, 6)
	}
	return strings.ToUpper(hw.String())
}

// WiredID returns the identifier of the wired connection on the port with
// the given hardware address.
func WiredID(mac string) string {
	return wiredPrefix + strings.ToUpper(mac)
}

// WirelessID returns the identifier of a wireless network seen through the
// access point bssid.
func WirelessID(essid, bssid string, enc Encryption) string {
	return wirelessPrefix + essid + "_" + strings.ToUpper(bssid) + "_" + enc.String()
}

// Identity is what can be recovered from a connection identifier.
type Identity struct {
	Type       ConnectionType
	Name       string
	ESSID      string
	BSSID      string
	MAC        string
	Encryption Encryption
}

// ParseID decodes an identifier produced by WiredID or WirelessID.
//
// The encryption label and the BSSID are taken from the right so that
// network names may contain underscores.
func ParseID(id string) Identity {
	switch {
	case strings.HasPrefix(id, wiredPrefix):
		return Identity{
			Type:       TypeWired,
			Name:       WiredName,
			ESSID:      WiredName,
			MAC:        strings.TrimPrefix(id, wiredPrefix),
			Encryption: EncryptionNone,
		}
	case strings.HasPrefix(id, wirelessPrefix):
		rest := strings.TrimPrefix(id, wirelessPrefix)
		ident := Identity{Type: TypeWireless, Encryption: EncryptionNone}

		if i := strings.LastIndexByte(rest, '_'); i >= 0 {
			if enc := ParseEncryption(rest[i+1:]); enc != EncryptionUnknown {
				ident.Encryption = enc
				rest = rest[:i]
			}
		}
		if i := strings.LastIndexByte(rest, '_'); i >= 0 {
			if _, err := net.ParseMAC(rest[i+1:]); err == nil {
				ident.BSSID = rest[i+1:]
				rest = rest[:i]
			}
		}
		ident.ESSID = rest
		ident.Name = rest
		return ident
	}
	return Identity{
		Type:       TypeUnknown,
		Name:       UnknownName,
		ESSID:      UnknownName,
		Encryption: EncryptionUnknown,
	}
}
