// Package config loads the netmgr configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown config format")

// Backend names accepted by Config.Backend.
const (
	BackendAuto           = "auto"
	BackendNetworkManager = "networkmanager"
	BackendPosix          = "posix"
)

type Keyring struct {
	// Path of the encrypted secrets file. Empty keeps secrets in memory.
	Path       string `toml:"path" yaml:"path"`
	Passphrase string `toml:"passphrase" yaml:"passphrase"`
}

type Poll struct {
	// Tick is how often the event pump runs. The enumerator throttle
	// decides whether the OS is actually queried.
	Tick   time.Duration `toml:"tick" yaml:"tick"`
	Fast   time.Duration `toml:"fast" yaml:"fast"`
	Slow   time.Duration `toml:"slow" yaml:"slow"`
	Rescan time.Duration `toml:"rescan" yaml:"rescan"`
}

type Service struct {
	Name  string `toml:"name" yaml:"name"`
	Start string `toml:"start" yaml:"start"`
	Stop  string `toml:"stop" yaml:"stop"`
}

type Config struct {
	Backend           string    `toml:"backend" yaml:"backend"`
	InterfacesFile    string    `toml:"interfaces_file" yaml:"interfaces_file"`
	WiredInterface    string    `toml:"wired_interface" yaml:"wired_interface"`
	WirelessInterface string    `toml:"wireless_interface" yaml:"wireless_interface"`
	MetricsListen     string    `toml:"metrics_listen" yaml:"metrics_listen"`
	Keyring           Keyring   `toml:"keyring" yaml:"keyring"`
	Poll              Poll      `toml:"poll" yaml:"poll"`
	Services          []Service `toml:"services" yaml:"services"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:        BackendAuto,
		InterfacesFile: "/etc/network/interfaces",
		Poll: Poll{
			Tick:   250 * time.Millisecond,
			Fast:   1 * time.Second,
			Slow:   5 * time.Second,
			Rescan: 60 * time.Second,
		},
	}
}

// Load reads path over Default. The format is chosen by extension: .yaml
// and .yml are YAML, anything else TOML. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	case ".toml", "":
		_, err = toml.Decode(string(raw), &cfg)
	default:
		return cfg, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail far from the file.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendNetworkManager, BackendPosix:
	default:
		return fmt.Errorf("backend %q: must be one of auto, networkmanager, posix", c.Backend)
	}
	if c.Poll.Tick <= 0 || c.Poll.Fast <= 0 || c.Poll.Slow <= 0 {
		return errors.New("poll intervals must be positive")
	}
	for i, s := range c.Services {
		if s.Name == "" || s.Start == "" {
			return fmt.Errorf("services[%d]: name and start are required", i)
		}
	}
	return nil
}
