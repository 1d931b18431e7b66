// Package ifupdown reads and rewrites the Debian style interfaces file and
// brings interfaces down and up after a change.
package ifupdown

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/shazow/netmgr/network"
)

// DefaultPath is the settings file managed on Debian derived systems.
const DefaultPath = "/etc/network/interfaces"

// Rewrite returns src with the stanza for cfg.Interface updated to carry cfg,
// and the names of every non-loopback interface declared in the file.
//
// auto/allow-* lines, the loopback stanza and comments are copied verbatim.
// Every other iface line is kept but its option lines are dropped; the target
// stanza gets freshly generated keys. Rewriting its own output with the same
// cfg yields the same bytes.
func Rewrite(src []byte, cfg network.IPConfig, typ network.ConnectionType) ([]byte, []string) {
	var out bytes.Buffer
	var ifaces []string
	// Set while inside a non-loopback iface stanza, whose options are dropped.
	inIface := false

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)

		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			out.WriteString(line + "\n")
			continue
		}

		keyword := fields[0]
		if isStanzaStart(keyword) {
			inIface = false
		}

		switch {
		case keyword == "auto" || strings.HasPrefix(keyword, "allow-"):
			out.WriteString(line + "\n")
		case keyword == "iface" && len(fields) >= 2 && fields[1] == "lo":
			out.WriteString(line + "\n")
		case keyword == "iface" && len(fields) >= 2:
			name := fields[1]
			ifaces = append(ifaces, name)
			inIface = true
			if name != cfg.Interface {
				out.WriteString(line + "\n")
				continue
			}
			if cfg.Method == network.MethodStatic {
				family := "inet"
				if len(fields) >= 3 {
					family = fields[2]
				}
				fmt.Fprintf(&out, "iface %s %s static\n", name, family)
			} else {
				out.WriteString(line + "\n")
			}
			writeTargetKeys(&out, cfg, typ)
		case inIface:
			// Stale option; the target's keys are regenerated above.
		default:
			out.WriteString(line + "\n")
		}
	}
	return out.Bytes(), ifaces
}

func writeTargetKeys(out *bytes.Buffer, cfg network.IPConfig, typ network.ConnectionType) {
	if cfg.Method == network.MethodStatic {
		fmt.Fprintf(out, "  address %s\n", cfg.Address)
		fmt.Fprintf(out, "  netmask %s\n", cfg.Netmask)
		if cfg.Gateway != "" {
			fmt.Fprintf(out, "  gateway %s\n", cfg.Gateway)
		}
	}
	if typ != network.TypeWireless {
		return
	}
	switch cfg.Encryption {
	case network.EncryptionNone:
		fmt.Fprintf(out, "  wireless-essid \"%s\"\n", cfg.ESSID)
	case network.EncryptionWEP:
		fmt.Fprintf(out, "  wireless-essid \"%s\"\n", cfg.ESSID)
		fmt.Fprintf(out, "  wireless-key s:%s\n", cfg.Passphrase)
	case network.EncryptionWPA, network.EncryptionWPA2:
		fmt.Fprintf(out, "  wpa-ssid \"%s\"\n", cfg.ESSID)
		if isHex(cfg.Passphrase) {
			fmt.Fprintf(out, "  wpa-psk %s\n", cfg.Passphrase)
		} else {
			fmt.Fprintf(out, "  wpa-psk \"%s\"\n", cfg.Passphrase)
		}
		proto := "WPA"
		if cfg.Encryption == network.EncryptionWPA2 {
			proto = "WPA2"
		}
		fmt.Fprintf(out, "  wpa-proto %s\n", proto)
	}
}

func isStanzaStart(keyword string) bool {
	switch keyword {
	case "iface", "auto", "mapping", "source", "source-directory":
		return true
	}
	return strings.HasPrefix(keyword, "allow-")
}

// isHex reports whether s looks like a raw hex key rather than a passphrase.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Read extracts the configuration of iface from src. It reports false when
// the file has no stanza for iface.
func Read(src []byte, iface string) (network.IPConfig, bool) {
	cfg := network.IPConfig{Interface: iface, Encryption: network.EncryptionNone}
	found := false
	inTarget := false
	var proto string

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if isStanzaStart(fields[0]) {
			inTarget = fields[0] == "iface" && len(fields) >= 2 && fields[1] == iface
			if inTarget {
				found = true
				if len(fields) >= 4 && fields[3] == "static" {
					cfg.Method = network.MethodStatic
				}
			}
			continue
		}
		if !inTarget || len(fields) < 2 {
			continue
		}

		value := unquote(strings.Join(fields[1:], " "))
		switch fields[0] {
		case "address":
			cfg.Address = value
		case "netmask":
			cfg.Netmask = value
		case "gateway":
			cfg.Gateway = value
		case "wireless-essid", "wpa-ssid":
			cfg.ESSID = value
		case "wireless-key":
			cfg.Passphrase = strings.TrimPrefix(value, "s:")
			cfg.Encryption = network.EncryptionWEP
		case "wpa-psk":
			cfg.Passphrase = value
		case "wpa-proto":
			proto = value
		}
	}

	switch {
	case proto == "WPA2" || proto == "RSN":
		cfg.Encryption = network.EncryptionWPA2
	case proto == "WPA":
		cfg.Encryption = network.EncryptionWPA
	case proto == "" && cfg.Encryption == network.EncryptionNone && cfg.Passphrase != "":
		cfg.Encryption = network.EncryptionWPA
	}
	return cfg, found
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
