//go:build mock

package main

import (
	"log/slog"

	"github.com/shazow/netmgr/internal/config"
	"github.com/shazow/netmgr/manager"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/network/mock"
)

// factories returns the simulated enumerator for demos and UI work.
func factories(cfg config.Config) []manager.Factory {
	return []manager.Factory{
		func(logger *slog.Logger) (network.Enumerator, error) {
			e := mock.New()
			e.Throttle = &network.Throttle{Fast: cfg.Poll.Fast, Slow: cfg.Poll.Slow}
			return e, nil
		},
	}
}
