package posix

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/shazow/netmgr/network"
)

// hostHex renders an IPv4 address the way the kernel writes it to
// /proc/net/route.
func hostHex(a, b, c, d byte) string {
	return fmt.Sprintf("%08X", binary.NativeEndian.Uint32([]byte{a, b, c, d}))
}

func routeTable(rows ...string) string {
	return "Iface\tDestination\tGateway \tFlags\tRefCnt\tUse\tMetric\tMask\t\tMTU\tWindow\tIRTT\n" +
		strings.Join(rows, "\n") + "\n"
}

func TestParseDefaultGateway(t *testing.T) {
	table := routeTable(
		"wlan0\t"+hostHex(192, 168, 1, 0)+"\t00000000\t0001\t0\t0\t600\t00FFFFFF\t0\t0\t0",
		"eth0\t00000000\t"+hostHex(10, 0, 0, 1)+"\t0003\t0\t0\t100\t00000000\t0\t0\t0",
		"wlan0\t00000000\t"+hostHex(192, 168, 1, 1)+"\t0003\t0\t0\t600\t00000000\t0\t0\t0",
	)

	gw, err := parseDefaultGateway(strings.NewReader(table), "wlan0")
	if err != nil {
		t.Fatalf("parseDefaultGateway() failed: %v", err)
	}
	if gw.String() != "192.168.1.1" {
		t.Errorf("gateway got=%q, want=%q", gw, "192.168.1.1")
	}

	gw, err = parseDefaultGateway(strings.NewReader(table), "eth0")
	if err != nil {
		t.Fatalf("parseDefaultGateway() failed: %v", err)
	}
	if gw.String() != "10.0.0.1" {
		t.Errorf("gateway got=%q, want=%q", gw, "10.0.0.1")
	}
}

func TestParseDefaultGatewayMissing(t *testing.T) {
	table := routeTable(
		"wlan0\t" + hostHex(192, 168, 1, 0) + "\t00000000\t0001\t0\t0\t600\t00FFFFFF\t0\t0\t0",
	)
	_, err := parseDefaultGateway(strings.NewReader(table), "wlan0")
	if !errors.Is(err, network.ErrNotFound) {
		t.Errorf("parseDefaultGateway() error got=%v, want ErrNotFound", err)
	}

	// The header line is never treated as a route.
	_, err = parseDefaultGateway(strings.NewReader("Iface 00000000 0101A8C0\n"), "Iface")
	if !errors.Is(err, network.ErrNotFound) {
		t.Errorf("header row parsed as a route: %v", err)
	}
}

func TestParseNetDev(t *testing.T) {
	dev := `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:  123456     100    0    0    0     0          0         0   123456     100    0    0    0     0       0          0
  eth0: 9876543    5000    0    0    0     0          0         0  1234567    4000    0    0    0     0       0          0
 wlan0:       0       0    0    0    0     0          0         0        0       0    0    0    0     0       0          0
`
	names, err := parseNetDev(strings.NewReader(dev))
	if err != nil {
		t.Fatalf("parseNetDev() failed: %v", err)
	}
	if want := []string{"lo", "eth0", "wlan0"}; !reflect.DeepEqual(names, want) {
		t.Errorf("parseNetDev() got=%v, want=%v", names, want)
	}
}
