package main

import (
	"fmt"
	"log/slog"

	"github.com/shazow/netmgr/internal/config"
	"github.com/shazow/netmgr/internal/metrics"
	"github.com/shazow/netmgr/keyring"
	"github.com/shazow/netmgr/manager"
	"github.com/shazow/netmgr/network"
	"github.com/shazow/netmgr/services"
)

// app holds the wired-up manager and what it depends on.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	secrets network.SecretStore
	metrics *metrics.Registry
	group   *services.Group
	manager *manager.Manager
}

// newApp builds the manager for cfg. notifier and warner may be nil when
// no view is attached.
func newApp(cfg config.Config, logger *slog.Logger, notifier manager.Notifier, warner services.Warner) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
	}

	if cfg.Keyring.Path != "" {
		f, err := keyring.OpenFile(cfg.Keyring.Path, cfg.Keyring.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("open keyring: %w", err)
		}
		a.secrets = f
	} else {
		a.secrets = keyring.NewMemory()
	}

	a.group = services.NewGroup(logger)
	if cfg.MetricsListen != "" {
		a.group.Add(services.NewMetricsServer(cfg.MetricsListen, a.metrics.GetPrometheusRegistry(), logger))
	}
	for _, s := range cfg.Services {
		a.group.Add(services.NewCommand(s.Name, s.Start, s.Stop, logger))
	}

	a.manager = manager.New(manager.Options{
		Secrets:  a.secrets,
		Services: a.group,
		Notifier: notifier,
		Warner:   warner,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	return a, nil
}

// start selects an enumerator.
func (a *app) start(fs ...manager.Factory) {
	a.manager.Initialize(fs...)
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Warn("failed to close enumerator", "error", err)
	}
}
