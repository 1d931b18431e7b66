// Package posix implements connection discovery and management for Linux
// hosts configured through ifupdown and the wireless extensions.
package posix

import (
	"errors"
	"net"
)

var (
	// ErrScanBufferTooSmall is returned by Sys.ScanResults when the results
	// do not fit into the provided buffer.
	ErrScanBufferTooSmall = errors.New("scan results exceed buffer")
	// ErrScanPending is returned by Sys.ScanResults while the driver is
	// still scanning.
	ErrScanPending = errors.New("scan results not ready")
)

// LinkInfo is the link layer view of an interface.
type LinkInfo struct {
	Flags        net.Flags
	HardwareAddr net.HardwareAddr
	// Ethernet is set for ARPHRD_ETHER links.
	Ethernet bool
}

// Usable reports whether the link is administratively up, running and not
// a loopback device.
func (l LinkInfo) Usable() bool {
	return l.Flags&net.FlagUp != 0 && l.Flags&net.FlagRunning != 0 && l.Flags&net.FlagLoopback == 0
}

// Loopback reports whether the link is a loopback device.
func (l LinkInfo) Loopback() bool {
	return l.Flags&net.FlagLoopback != 0
}

// WirelessRange is the subset of the driver range information that scanning
// and signal reporting need.
type WirelessRange struct {
	WEVersion  int
	MaxQuality uint8
}

// Sys is the set of OS queries the posix enumerator depends on.
type Sys interface {
	// Interfaces lists interface names in kernel order.
	Interfaces() ([]string, error)
	IsWireless(iface string) bool
	// IsPhysical reports whether iface is backed by a device rather than
	// being virtual.
	IsPhysical(iface string) bool
	Link(iface string) (LinkInfo, error)
	IPv4(iface string) (net.IP, net.IPMask, error)
	DefaultGateway(iface string) (net.IP, error)
	LinkSpeed(iface string) (uint, error)

	AssociatedESSID(iface string) (string, error)
	WirelessRange(iface string) (WirelessRange, error)
	LinkQuality(iface string) (uint8, error)
	TriggerScan(iface string) error
	// ScanResults copies the raw event stream into buf and returns its
	// length.
	ScanResults(iface string, buf []byte) (int, error)
}
