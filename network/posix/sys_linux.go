//go:build linux

package posix

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/shazow/netmgr/network"
)

// Wireless extension ioctl requests.
const (
	siocgiwrange = 0x8B0B
	siocgiwstats = 0x8B0F
	siocsiwscan  = 0x8B18
	siocgiwscan  = 0x8B19
	siocgiwessid = 0x8B1B

	essidMaxSize = 32
	rangeBufSize = 4096
	statsBufSize = 32

	// Offsets into struct iw_range and struct iw_statistics.
	rangeMaxQualOffset   = 44
	rangeWEVersionOffset = 280
	statsQualOffset      = 2

	iwreqDataSize = 16
)

// iwPoint mirrors struct iw_point inside union iwreq_data.
type iwPoint struct {
	pointer uintptr
	length  uint16
	flags   uint16
	_       [iwreqDataSize - unsafe.Sizeof(uintptr(0)) - 4]byte
}

// iwreq mirrors struct iwreq.
type iwreq struct {
	name [unix.IFNAMSIZ]byte
	data iwPoint
}

// linuxSys answers Sys queries from rtnetlink, procfs, sysfs and the
// wireless extension ioctls.
type linuxSys struct {
	rt *rtnetlink.Conn

	procNetDev   string
	procNetRoute string
	sysClassNet  string
}

// NewSys opens a route netlink socket for link and address queries.
func NewSys() (Sys, error) {
	rt, err := rtnetlink.Dial(&netlink.Config{})
	if err != nil {
		return nil, fmt.Errorf("dial rtnetlink: %w", network.ErrNotAvailable)
	}
	return &linuxSys{
		rt:           rt,
		procNetDev:   "/proc/net/dev",
		procNetRoute: "/proc/net/route",
		sysClassNet:  "/sys/class/net",
	}, nil
}

func (s *linuxSys) Close() error {
	return s.rt.Close()
}

func (s *linuxSys) Interfaces() ([]string, error) {
	f, err := os.Open(s.procNetDev)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseNetDev(f)
}

func (s *linuxSys) IsWireless(iface string) bool {
	_, err := os.Stat(filepath.Join(s.sysClassNet, iface, "wireless"))
	return err == nil
}

func (s *linuxSys) IsPhysical(iface string) bool {
	_, err := os.Stat(filepath.Join(s.sysClassNet, iface, "device"))
	return err == nil
}

func (s *linuxSys) link(iface string) (rtnetlink.LinkMessage, error) {
	links, err := s.rt.Link.List()
	if err != nil {
		return rtnetlink.LinkMessage{}, err
	}
	for _, link := range links {
		if link.Attributes != nil && link.Attributes.Name == iface {
			return link, nil
		}
	}
	return rtnetlink.LinkMessage{}, fmt.Errorf("link %s: %w", iface, network.ErrNotFound)
}

func (s *linuxSys) Link(iface string) (LinkInfo, error) {
	link, err := s.link(iface)
	if err != nil {
		return LinkInfo{}, err
	}
	return LinkInfo{
		Flags:        linkFlags(link.Flags),
		HardwareAddr: link.Attributes.Address,
		Ethernet:     link.Type == unix.ARPHRD_ETHER,
	}, nil
}

func linkFlags(raw uint32) net.Flags {
	var f net.Flags
	if raw&unix.IFF_UP != 0 {
		f |= net.FlagUp
	}
	if raw&unix.IFF_BROADCAST != 0 {
		f |= net.FlagBroadcast
	}
	if raw&unix.IFF_LOOPBACK != 0 {
		f |= net.FlagLoopback
	}
	if raw&unix.IFF_POINTOPOINT != 0 {
		f |= net.FlagPointToPoint
	}
	if raw&unix.IFF_MULTICAST != 0 {
		f |= net.FlagMulticast
	}
	if raw&unix.IFF_RUNNING != 0 {
		f |= net.FlagRunning
	}
	return f
}

func (s *linuxSys) IPv4(iface string) (net.IP, net.IPMask, error) {
	link, err := s.link(iface)
	if err != nil {
		return nil, nil, err
	}
	addrs, err := s.rt.Address.List()
	if err != nil {
		return nil, nil, err
	}
	for _, addr := range addrs {
		if addr.Index != link.Index || addr.Family != unix.AF_INET || addr.Attributes == nil {
			continue
		}
		ip := addr.Attributes.Local
		if ip == nil {
			ip = addr.Attributes.Address
		}
		if ip == nil {
			continue
		}
		return ip.To4(), net.CIDRMask(int(addr.PrefixLength), 32), nil
	}
	return net.IPv4zero.To4(), nil, nil
}

func (s *linuxSys) DefaultGateway(iface string) (net.IP, error) {
	f, err := os.Open(s.procNetRoute)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDefaultGateway(f, iface)
}

func (s *linuxSys) LinkSpeed(iface string) (uint, error) {
	raw, err := os.ReadFile(filepath.Join(s.sysClassNet, iface, "speed"))
	if err != nil {
		return 0, err
	}
	speed, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, err
	}
	if speed <= 0 {
		return 0, fmt.Errorf("link speed of %s: %w", iface, network.ErrNotAvailable)
	}
	return uint(speed), nil
}

func (s *linuxSys) AssociatedESSID(iface string) (string, error) {
	buf := make([]byte, essidMaxSize+1)
	n, err := iwIoctl(iface, siocgiwessid, buf, 0)
	if err != nil {
		return "", err
	}
	if int(n) > essidMaxSize {
		n = essidMaxSize
	}
	return string(bytes.TrimRight(buf[:n], "\x00")), nil
}

func (s *linuxSys) WirelessRange(iface string) (WirelessRange, error) {
	buf := make([]byte, rangeBufSize)
	if _, err := iwIoctl(iface, siocgiwrange, buf, 0); err != nil {
		return WirelessRange{}, err
	}
	return WirelessRange{
		WEVersion:  int(buf[rangeWEVersionOffset]),
		MaxQuality: buf[rangeMaxQualOffset],
	}, nil
}

func (s *linuxSys) LinkQuality(iface string) (uint8, error) {
	buf := make([]byte, statsBufSize)
	// Flag 1 asks the driver to clear the updated bits.
	if _, err := iwIoctl(iface, siocgiwstats, buf, 1); err != nil {
		return 0, err
	}
	return buf[statsQualOffset], nil
}

func (s *linuxSys) TriggerScan(iface string) error {
	_, err := iwIoctl(iface, siocsiwscan, nil, 0)
	return err
}

func (s *linuxSys) ScanResults(iface string, buf []byte) (int, error) {
	n, err := iwIoctl(iface, siocgiwscan, buf, 0)
	switch {
	case errors.Is(err, unix.E2BIG):
		return 0, ErrScanBufferTooSmall
	case errors.Is(err, unix.EAGAIN):
		return 0, ErrScanPending
	case err != nil:
		return 0, err
	}
	return int(n), nil
}

// iwIoctl issues a wireless extension request whose payload is buf. It
// returns the length reported back by the driver.
func iwIoctl(iface string, req uintptr, buf []byte, flags uint16) (uint16, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("wireless socket: %w", err)
	}
	defer unix.Close(fd)

	var wrq iwreq
	copy(wrq.name[:unix.IFNAMSIZ-1], iface)
	if len(buf) > 0 {
		wrq.data.pointer = uintptr(unsafe.Pointer(&buf[0]))
		wrq.data.length = uint16(min(len(buf), scanBufferMax))
	}
	wrq.data.flags = flags

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&wrq)))
	runtime.KeepAlive(buf)
	if errno != 0 {
		return 0, errno
	}
	return wrq.data.length, nil
}
