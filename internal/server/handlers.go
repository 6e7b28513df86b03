package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// installRequest asks the server to resolve and install a runtime.
type installRequest struct {
	Range  string `json:"range"`
	Vendor string `json:"vendor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// listRuntimes returns the current catalog entries.
func (s *Server) listRuntimes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

// installRuntime resolves the requested range against the catalog
// source and runs the install pipeline.
func (s *Server) installRuntime(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	rng, err := version.ParseRange(req.Range)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid version range: %v", err))
		return
	}
	vendor := req.Vendor
	if vendor == "" {
		vendor = jvm.VendorAny
	}

	remote, err := s.catalog.Resolve(r.Context(), rng, vendor, jvm.LocalSystem())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrNoMatch) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return
	}

	timer := prometheus.NewTimer(s.metrics.installDuration)
	local, err := s.installer.Install(r.Context(), remote, nil)
	timer.ObserveDuration()
	if err != nil {
		s.metrics.installsTotal.WithLabelValues("failure").Inc()
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.installsTotal.WithLabelValues("success").Inc()

	s.writeJSON(w, http.StatusCreated, local)
}

// dropRuntime removes the posted runtime from the catalog: managed
// runtimes are deleted from disk, unmanaged ones are only deregistered.
func (s *Server) dropRuntime(w http.ResponseWriter, r *http.Request) {
	var rt jvm.LocalRuntime
	if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var err error
	if rt.Managed {
		err = s.registry.Delete(rt)
	} else {
		err = s.registry.Remove(rt)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrManaged) || errors.Is(err, registry.ErrUnmanaged) {
			status = http.StatusConflict
		}
		s.writeError(w, status, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// streamEvents upgrades the connection and forwards registry events
// until the client disconnects.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		_ = conn.Close()
	}()

	// Drain control frames; the read loop ends when the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// healthCheck reports liveness and the catalog size.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"runtimes": len(s.registry.List()),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
