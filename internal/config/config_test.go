package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "netmgr.toml", `
backend = "posix"
wireless_interface = "wlan1"
metrics_listen = ":9108"

[keyring]
path = "/var/lib/netmgr/secrets.toml"

[poll]
slow = "10s"

[[services]]
name = "timesync"
start = "systemctl start systemd-timesyncd"
stop = "systemctl stop systemd-timesyncd"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != BackendPosix || cfg.WirelessInterface != "wlan1" {
		t.Errorf("got backend=%q wireless=%q", cfg.Backend, cfg.WirelessInterface)
	}
	if cfg.Poll.Slow != 10*time.Second {
		t.Errorf("Poll.Slow=%v, want 10s", cfg.Poll.Slow)
	}
	if cfg.Poll.Fast != time.Second {
		t.Errorf("Poll.Fast=%v, want default 1s", cfg.Poll.Fast)
	}
	if cfg.InterfacesFile != "/etc/network/interfaces" {
		t.Errorf("InterfacesFile=%q, want default", cfg.InterfacesFile)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].Name != "timesync" {
		t.Errorf("Services=%+v", cfg.Services)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "netmgr.yaml", `
backend: networkmanager
poll:
  rescan: 2m
keyring:
  passphrase: correct horse
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != BackendNetworkManager {
		t.Errorf("Backend=%q", cfg.Backend)
	}
	if cfg.Poll.Rescan != 2*time.Minute {
		t.Errorf("Poll.Rescan=%v, want 2m", cfg.Poll.Rescan)
	}
	if cfg.Keyring.Passphrase != "correct horse" {
		t.Errorf("Keyring.Passphrase=%q", cfg.Keyring.Passphrase)
	}
}

func TestLoadErrors(t *testing.T) {
	if cfg, err := Load(""); err != nil || cfg.Backend != BackendAuto {
		t.Errorf("Load(\"\")=%+v, %v", cfg, err)
	}
	if _, err := Load(writeFile(t, "netmgr.json", "{}")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Load(json) err=%v, want ErrUnknownFormat", err)
	}
	if _, err := Load(writeFile(t, "bad.toml", `backend = "connman"`)); err == nil {
		t.Error("Load() accepted unknown backend")
	}
	if _, err := Load(writeFile(t, "svc.toml", "[[services]]\nname = \"x\"\n")); err == nil {
		t.Error("Load() accepted service without start")
	}
}
