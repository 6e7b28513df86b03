package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
	_ "github.com/javelinws/javelin/internal/testhelper"
)

// stubSource returns a fixed remote runtime for every resolution.
type stubSource struct {
	remote jvm.RemoteRuntime
	err    error
}

func (s *stubSource) Resolve(ctx context.Context, rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.RemoteRuntime, error) {
	if s.err != nil {
		return jvm.RemoteRuntime{}, s.err
	}
	return s.remote, nil
}

type testEnv struct {
	server   *Server
	registry *registry.Registry
	cfg      *config.Config
	http     *httptest.Server
}

func newTestEnv(t *testing.T, source catalog.Source) *testEnv {
	t.Helper()

	cacheDir := t.TempDir()
	cfg := &config.Config{CacheDir: cacheDir, HTTPTimeout: config.DefaultHTTPTimeout}
	reg := registry.New(filepath.Join(cacheDir, "runtimes.json"))
	installer := install.New(cfg, reg)

	srv := NewWithRegisterer(DefaultConfig(), reg, installer, source, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: srv, registry: reg, cfg: cfg, http: ts}
}

func addRuntime(t *testing.T, reg *registry.Registry, vendor, ver string, managed bool) jvm.LocalRuntime {
	t.Helper()
	rt := jvm.LocalRuntime{
		Vendor:   vendor,
		Version:  version.MustParse(ver),
		OS:       jvm.LocalSystem(),
		JavaHome: t.TempDir(),
		Managed:  managed,
		Active:   true,
	}
	require.NoError(t, reg.Add(rt))
	return rt
}

func TestListRuntimes(t *testing.T) {
	env := newTestEnv(t, &stubSource{})
	addRuntime(t, env.registry, "eclipse", "11.0.2", false)

	resp, err := http.Get(env.http.URL + "/api/v1/runtimes")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runtimes []jvm.LocalRuntime
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runtimes))
	require.Len(t, runtimes, 1)
	assert.Equal(t, "eclipse", runtimes[0].Vendor)
}

func TestInstallRuntimeEndpoint(t *testing.T) {
	// Serve a tiny zip as the runtime package.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("jdk-17/bin/java")
	require.NoError(t, err)
	_, err = f.Write([]byte("#!/bin/sh\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(archive.Close)

	source := &stubSource{remote: jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("17.0.1"),
		OS:       jvm.LocalSystem(),
		Endpoint: archive.URL + "/jre.zip",
	}}
	env := newTestEnv(t, source)

	resp, err := http.Post(env.http.URL+"/api/v1/runtimes", "application/json",
		strings.NewReader(`{"range": "17+"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var installed jvm.LocalRuntime
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&installed))
	assert.True(t, installed.Managed)
	assert.Equal(t, "17.0.1", installed.Version.String())
	assert.Len(t, env.registry.List(), 1)
}

func TestInstallRuntimeBadRange(t *testing.T) {
	env := newTestEnv(t, &stubSource{})

	resp, err := http.Post(env.http.URL+"/api/v1/runtimes", "application/json",
		strings.NewReader(`{"range": ""}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInstallRuntimeNoCatalogMatch(t *testing.T) {
	env := newTestEnv(t, &stubSource{err: catalog.ErrNoMatch})

	resp, err := http.Post(env.http.URL+"/api/v1/runtimes", "application/json",
		strings.NewReader(`{"range": "99+"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDropUnmanagedRuntime(t *testing.T) {
	env := newTestEnv(t, &stubSource{})
	rt := addRuntime(t, env.registry, "eclipse", "11", false)

	body, err := json.Marshal(rt)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, env.http.URL+"/api/v1/runtimes", bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.registry.List())
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t, &stubSource{})

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/api/v1/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	// The handler registers the client just after the handshake; wait
	// for it before mutating the registry.
	require.Eventually(t, func() bool {
		return env.server.hub.count() == 1
	}, 5*time.Second, 10*time.Millisecond)

	addRuntime(t, env.registry, "eclipse", "11", false)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev registry.Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, registry.RuntimeAdded, ev.Kind)
	assert.Equal(t, "eclipse", ev.Runtime.Vendor)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, &stubSource{})
	addRuntime(t, env.registry, "eclipse", "11", false)

	resp, err := http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(1), health["runtimes"])
}
