// Package exporter serves Prometheus metrics and watchdog health over HTTP.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/radvsup/internal/radvdmgr"
	"github.com/veesix-networks/radvsup/internal/watchdog"
	"github.com/veesix-networks/radvsup/pkg/component"
	"github.com/veesix-networks/radvsup/pkg/config/system"
	"github.com/veesix-networks/radvsup/pkg/logger"
)

type StatusProvider interface {
	Status() []radvdmgr.InterfaceStatus
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	addr     string
	gatherer prometheus.Gatherer
	health   watchdog.StateProvider
	status   StatusProvider

	mu            sync.RWMutex
	server        *http.Server
	listenAddr    string
	serverRunning bool
}

// New returns the exporter, or nil when monitoring is disabled.
func New(cfg system.MonitoringConfig, gatherer prometheus.Gatherer, health watchdog.StateProvider, status StatusProvider) *Component {
	if !cfg.IsEnabled() {
		return nil
	}

	addr := system.DefaultMonitoringListen
	if cfg.Listen != "" {
		addr = cfg.Listen
	}

	return &Component{
		Base:     component.NewBase("exporter"),
		logger:   logger.Get(logger.Metrics),
		addr:     addr,
		gatherer: gatherer,
		health:   health,
		status:   status,
	}
}

// Addr returns the bound address once the server is listening, otherwise
// the configured one.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listenAddr != "" {
		return c.listenAddr
	}
	return c.addr
}

func (c *Component) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverRunning
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}))
	if c.health != nil {
		mux.Handle("/healthz", watchdog.HealthzHandler(c.health))
		mux.Handle("/readyz", watchdog.ReadyzHandler(c.health))
	}
	if c.status != nil {
		mux.HandleFunc("/status", c.handleStatus)
	}
	return mux
}

func (c *Component) handleStatus(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(rw).Encode(c.status.Status()); err != nil {
		c.logger.Warn("Failed to write status response", "error", err)
	}
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting metrics exporter", "addr", c.addr)

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.addr, err)
	}

	c.mu.Lock()
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	c.listenAddr = ln.Addr().String()
	c.serverRunning = true
	server := c.server
	c.mu.Unlock()

	err = c.Go(func(context.Context) {
		c.logger.Info("Metrics HTTP server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Metrics HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.serverRunning = false
		c.mu.Unlock()
	})
	if err != nil {
		ln.Close()
		return err
	}

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping metrics exporter")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	var err error
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return err
}
