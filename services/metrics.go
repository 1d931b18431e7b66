package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// MetricsServer serves a Prometheus registry over HTTP at /metrics.
type MetricsServer struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

func NewMetricsServer(addr string, gatherer prometheus.Gatherer, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsServer{addr: addr, gatherer: gatherer, logger: logger.With("service", "metrics")}
}

func (m *MetricsServer) Name() string { return "metrics" }

// Addr returns the bound address while running.
func (m *MetricsServer) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *MetricsServer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.listener = ln
	m.done = nil

	srv := m.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server failed", "error", err)
		}
	}()
	m.logger.Info("metrics server listening", "addr", ln.Addr().String())
	return nil
}

// Stop begins a graceful shutdown on the first pass and waits for it on
// the second.
func (m *MetricsServer) Stop(wait bool) {
	m.mu.Lock()
	if m.server != nil && m.done == nil {
		done := make(chan struct{})
		srv := m.server
		go func() {
			defer close(done)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				m.logger.Warn("metrics server shutdown", "error", err)
			}
		}()
		m.done = done
	}
	done := m.done
	m.mu.Unlock()

	if !wait || done == nil {
		return
	}
	<-done

	m.mu.Lock()
	m.server, m.listener, m.done = nil, nil, nil
	m.mu.Unlock()
}
