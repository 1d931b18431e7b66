//go:build !linux && !mock

package main

import (
	"log/slog"

	"github.com/shazow/netmgr/internal/config"
	"github.com/shazow/netmgr/manager"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/network/generic"
)

// factories returns the read-only enumerator, the only one available on
// this platform.
func factories(cfg config.Config) []manager.Factory {
	return []manager.Factory{
		func(logger *slog.Logger) (network.Enumerator, error) {
			e, err := generic.New(nil, logger)
			if err != nil {
				return nil, err
			}
			e.Throttle = &network.Throttle{Fast: cfg.Poll.Fast, Slow: cfg.Poll.Slow}
			return e, nil
		},
	}
}
