package posix

import (
	"encoding/binary"
	"net"
	"strconv"

	"github.com/shazow/netmgr/network"
)

// Wireless extension event codes found in scan results.
const (
	evAccessPoint = 0x8B15 // SIOCGIWAP
	evESSID       = 0x8B1B // SIOCGIWESSID
	evEncode      = 0x8B2B // SIOCGIWENCODE
	evQuality     = 0x8C01 // IWEVQUAL
	evCustom      = 0x8C02 // IWEVCUSTOM
	evGenericIE   = 0x8C05 // IWEVGENIE

	eventHeaderLen = 4
	pointHeaderLen = 4

	encodeDisabled = 0x8000

	ieVendor = 0xDD
	ieRSN    = 0x30

	// Wireless extension versions up to this one keep a pointer slot in
	// variable length events.
	legacyPointerVersion = 18
)

// accessPoint is one scan result.
type accessPoint struct {
	ESSID      string
	BSSID      string
	Encryption network.Encryption
	Quality    uint8
	Level      uint8
}

// ID is the connection identifier of the access point.
func (ap accessPoint) ID() string {
	return network.WirelessID(ap.ESSID, ap.BSSID, ap.Encryption)
}

// parseScanEvents decodes the packed event stream returned by SIOCGIWSCAN.
// Every access point event starts a new result. Parsing stops at the first
// truncated event and returns what was decoded so far.
func parseScanEvents(buf []byte, weVersion int) []accessPoint {
	pointerGap := 0
	if weVersion <= legacyPointerVersion {
		pointerGap = strconv.IntSize / 8
	}

	var results []accessPoint
	var current accessPoint
	pending := false

	for pos := 0; pos+eventHeaderLen <= len(buf); {
		length := int(binary.NativeEndian.Uint16(buf[pos:]))
		cmd := binary.NativeEndian.Uint16(buf[pos+2:])
		if length <= eventHeaderLen || pos+length > len(buf) {
			break
		}
		payload := buf[pos+eventHeaderLen : pos+length]
		pos += length

		switch cmd {
		case evAccessPoint:
			// sockaddr: family then the hardware address.
			if len(payload) < 8 {
				continue
			}
			if pending {
				results = append(results, current)
			}
			current = accessPoint{
				BSSID:      network.FormatMAC(net.HardwareAddr(payload[2:8])),
				Encryption: network.EncryptionNone,
			}
			pending = true
		case evQuality:
			if len(payload) < 2 {
				continue
			}
			current.Quality = payload[0]
			current.Level = payload[1]
		case evESSID:
			if data, _, ok := pointData(payload, pointerGap); ok {
				current.ESSID = string(data)
			}
		case evEncode:
			_, flags, ok := pointData(payload, pointerGap)
			if ok && flags&encodeDisabled == 0 && current.Encryption == network.EncryptionNone {
				current.Encryption = network.EncryptionWEP
			}
		case evGenericIE:
			if data, _, ok := pointData(payload, pointerGap); ok {
				current.Encryption = encryptionFromIEs(data, current.Encryption)
			}
		case evCustom:
			// Driver specific text, nothing we use.
		}
	}

	if pending {
		results = append(results, current)
	}
	return results
}

// pointData returns the data and flags of a variable length event payload.
func pointData(payload []byte, pointerGap int) ([]byte, uint16, bool) {
	if len(payload) < pointerGap+pointHeaderLen {
		return nil, 0, false
	}
	hdr := payload[pointerGap:]
	n := int(binary.NativeEndian.Uint16(hdr))
	flags := binary.NativeEndian.Uint16(hdr[2:])
	data := hdr[pointHeaderLen:]
	if n > len(data) {
		n = len(data)
	}
	return data[:n], flags, true
}

// encryptionFromIEs upgrades enc from the information elements in ies.
// WPA2 is never downgraded.
func encryptionFromIEs(ies []byte, enc network.Encryption) network.Encryption {
	for offset := 0; offset+2 <= len(ies); offset += int(ies[offset+1]) + 2 {
		switch ies[offset] {
		case ieVendor:
			if enc != network.EncryptionWPA2 {
				enc = network.EncryptionWPA
			}
		case ieRSN:
			enc = network.EncryptionWPA2
		}
	}
	return enc
}
