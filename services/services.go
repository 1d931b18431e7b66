// Package services runs the processes that only make sense while the host
// is connected, such as time sync or a web server.
package services

import (
	"errors"
	"log/slog"
)

var ErrAlreadyRunning = errors.New("service already running")

// Service is a dependent service. Stop(false) begins stopping and must not
// block; Stop(true) waits until the service has stopped.
type Service interface {
	Name() string
	Start() error
	Stop(wait bool)
}

// Warner shows a notification to the user.
type Warner interface {
	Warn(title, message string)
}

// Group starts and stops services in registration order.
type Group struct {
	services []Service
	logger   *slog.Logger
}

func NewGroup(logger *slog.Logger, services ...Service) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{services: services, logger: logger.With("component", "services")}
}

// Add registers a service.
func (g *Group) Add(s Service) { g.services = append(g.services, s) }

// Services returns the registered services.
func (g *Group) Services() []Service { return g.services }

// StartAll starts every service. A failure is logged and reported through
// w, and does not prevent the remaining services from starting. The names
// of failed services are returned.
func (g *Group) StartAll(w Warner) []string {
	var failed []string
	for _, s := range g.services {
		if err := s.Start(); err != nil {
			g.logger.Error("failed to start service", "service", s.Name(), "error", err)
			if w != nil {
				w.Warn("Network", "Failed to start "+s.Name())
			}
			failed = append(failed, s.Name())
			continue
		}
		g.logger.Info("service started", "service", s.Name())
	}
	return failed
}

// StopAll signals every service to stop, then waits for each.
func (g *Group) StopAll() {
	for _, s := range g.services {
		s.Stop(false)
	}
	for _, s := range g.services {
		s.Stop(true)
		g.logger.Info("service stopped", "service", s.Name())
	}
}

// Func adapts plain functions to a Service.
type Func struct {
	ServiceName string
	OnStart     func() error
	OnStop      func(wait bool)
}

func (f Func) Name() string { return f.ServiceName }

func (f Func) Start() error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart()
}

func (f Func) Stop(wait bool) {
	if f.OnStop != nil {
		f.OnStop(wait)
	}
}
