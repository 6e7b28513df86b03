// Package server exposes a local HTTP control plane over the runtime
// manager: catalog listing, installs, removals, a WebSocket stream of
// registry events and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/registry"
)

// Config holds the server configuration.
type Config struct {
	Host            string
	Port            int
	EnableMetrics   bool
	EnableCORS      bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            7401,
		EnableMetrics:   true,
		EnableCORS:      true,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Minute, // installs stream through handlers
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server is the javelin control server.
type Server struct {
	config    *Config
	registry  *registry.Registry
	installer *install.Installer
	catalog   catalog.Source

	server   *http.Server
	upgrader websocket.Upgrader
	hub      *eventHub
	metrics  *metrics
}

// New creates a control server over the given collaborators.
func New(config *Config, reg *registry.Registry, inst *install.Installer, cat catalog.Source) *Server {
	return NewWithRegisterer(config, reg, inst, cat, prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a control server with a custom metrics
// registerer, used by tests.
func NewWithRegisterer(config *Config, reg *registry.Registry, inst *install.Installer, cat catalog.Source, registerer prometheus.Registerer) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:    config,
		registry:  reg,
		installer: inst,
		catalog:   cat,
		hub:       newEventHub(),
		metrics:   newMetrics(registerer),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS
			},
		},
	}
	s.watchRegistry()
	return s
}

// watchRegistry forwards registry events to WebSocket clients and
// keeps the registry-size gauge current.
func (s *Server) watchRegistry() {
	forward := func(ev registry.Event) {
		s.metrics.registrySize.Set(float64(len(s.registry.List())))
		s.hub.broadcast(ev)
	}
	s.registry.Subscribe(registry.RuntimeAdded, forward)
	s.registry.Subscribe(registry.RuntimeRemoved, forward)
	s.registry.Subscribe(registry.RuntimeUpdated, forward)
}

// Router builds the HTTP routes; exposed for handler tests.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/runtimes", s.listRuntimes).Methods("GET")
	api.HandleFunc("/runtimes", s.installRuntime).Methods("POST")
	api.HandleFunc("/runtimes", s.dropRuntime).Methods("DELETE")
	api.HandleFunc("/events", s.streamEvents).Methods("GET")

	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler())
	}
	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Info().
		Str("addr", addr).
		Int("runtimes", len(s.registry.List())).
		Bool("metrics", s.config.EnableMetrics).
		Msg("starting javelin control server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("control server failed to start")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("shutting down control server")
	s.hub.closeAll()
	return s.server.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and blocks until
// SIGINT/SIGTERM, then shuts down within the configured timeout.
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// eventHub fans registry events out to WebSocket clients.
type eventHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *eventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *eventHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *eventHub) broadcast(ev registry.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Msg("dropping event for stalled client")
		}
	}
}

func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

// metrics holds the Prometheus instruments of the control server.
type metrics struct {
	installsTotal   *prometheus.CounterVec
	installDuration prometheus.Histogram
	registrySize    prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	m := &metrics{
		installsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javelin_installs_total",
			Help: "Total runtime installs by status",
		}, []string{"status"}),
		installDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "javelin_install_duration_seconds",
			Help: "Runtime install duration in seconds",
		}),
		registrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "javelin_registry_runtimes",
			Help: "Number of runtimes currently in the catalog",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.installsTotal, m.installDuration, m.registrySize)
	}
	return m
}
