package posix

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/shazow/netmgr/network"
)

// parseDefaultGateway finds the default route of iface in the contents of
// /proc/net/route. Addresses in that file are hex in host byte order.
func parseDefaultGateway(r io.Reader, iface string) (net.IP, error) {
	scanner := bufio.NewScanner(r)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != iface {
			continue
		}
		if fields[1] != "00000000" || fields[2] == "00000000" {
			continue
		}
		gw, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		ip := make(net.IP, 4)
		binary.NativeEndian.PutUint32(ip, uint32(gw))
		return ip, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("default route for %s: %w", iface, network.ErrNotFound)
}

// parseNetDev lists the interface names in the contents of /proc/net/dev.
func parseNetDev(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for n := 0; scanner.Scan(); n++ {
		if n < 2 {
			continue
		}
		line := scanner.Text()
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		if name := strings.TrimSpace(line[:i]); name != "" {
			names = append(names, name)
		}
	}
	return names, scanner.Err()
}
