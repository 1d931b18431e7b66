package posix

import (
	"bytes"
	"fmt"
	"net"

	"github.com/shazow/netmgr/network"
)

const wakeOnLANAddr = "255.255.255.255:9"

// magicPacket is six 0xFF bytes followed by the target address sixteen
// times.
func magicPacket(hw net.HardwareAddr) []byte {
	packet := bytes.Repeat([]byte{0xFF}, 6)
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet
}

// SendWakeOnLAN broadcasts a magic packet for mac on the local network.
func (e *Enumerator) SendWakeOnLAN(mac string) error {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return fmt.Errorf("wake on lan: %w", err)
	}
	if len(hw) != 6 {
		return fmt.Errorf("wake on lan: %s is not an ethernet address", mac)
	}
	conn, err := net.Dial("udp4", wakeOnLANAddr)
	if err != nil {
		return fmt.Errorf("wake on lan: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write(magicPacket(hw)); err != nil {
		return fmt.Errorf("wake on lan: %w", err)
	}
	e.logger.Info("sent wake on lan", "mac", network.FormatMAC(hw))
	return nil
}
