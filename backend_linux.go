//go:build linux && !mock

package main

import (
	"log/slog"

	"github.com/shazow/netmgr/internal/config"
	"github.com/shazow/netmgr/manager"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/network/ifupdown"
	"github.com/shazow/netmgr/network/networkmanager"
	"github.com/shazow/netmgr/network/posix"
)

// factories returns the enumerators to try, in order. NetworkManager is
// preferred when its bus name is owned; the posix enumerator drives
// /etc/network/interfaces otherwise.
func factories(cfg config.Config) []manager.Factory {
	throttle := func() *network.Throttle {
		return &network.Throttle{Fast: cfg.Poll.Fast, Slow: cfg.Poll.Slow}
	}
	nm := func(logger *slog.Logger) (network.Enumerator, error) {
		e, err := networkmanager.New(networkmanager.Options{
			RescanInterval: cfg.Poll.Rescan,
			Throttle:       throttle(),
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	px := func(logger *slog.Logger) (network.Enumerator, error) {
		sys, err := posix.NewSys()
		if err != nil {
			return nil, err
		}
		e, err := posix.New(posix.Options{
			Sys:               sys,
			Settings:          ifupdown.NewFile(cfg.InterfacesFile, logger),
			WiredInterface:    cfg.WiredInterface,
			WirelessInterface: cfg.WirelessInterface,
			RescanInterval:    cfg.Poll.Rescan,
			Throttle:          throttle(),
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	switch cfg.Backend {
	case config.BackendNetworkManager:
		return []manager.Factory{nm}
	case config.BackendPosix:
		return []manager.Factory{px}
	}
	return []manager.Factory{nm, px}
}
