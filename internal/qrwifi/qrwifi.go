// Package qrwifi renders the WIFI: join string used by phone cameras.
package qrwifi

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/shazow/netmgr/network"
)

// Escape handles the special character escaping for SSID and password.
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`;`, `\;`,
		`,`, `\,`,
		`:`, `\:`,
		`"`, `\"`,
	)
	return r.Replace(s)
}

// String builds the join string for a wireless network.
func String(essid, passphrase string, enc network.Encryption) string {
	var b strings.Builder
	b.WriteString("WIFI:S:")
	b.WriteString(Escape(essid))
	b.WriteString(";")

	switch enc {
	case network.EncryptionWPA, network.EncryptionWPA2:
		b.WriteString("T:WPA;P:")
		b.WriteString(Escape(passphrase))
		b.WriteString(";")
	case network.EncryptionWEP:
		b.WriteString("T:WEP;P:")
		b.WriteString(Escape(passphrase))
		b.WriteString(";")
	case network.EncryptionNone:
		b.WriteString("T:nopass;")
	default:
		// Readers assume WPA without a T field.
	}
	b.WriteString(";")
	return b.String()
}

// Render returns the join string as a terminal-friendly QR code.
func Render(essid, passphrase string, enc network.Encryption) (string, error) {
	q, err := qrcode.New(String(essid, passphrase, enc), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
