package launcher

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/resolver"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// stubCatalog hands out one fixed remote runtime.
type stubCatalog struct {
	remote jvm.RemoteRuntime
	calls  int
}

func (s *stubCatalog) Resolve(ctx context.Context, rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.RemoteRuntime, error) {
	s.calls++
	return s.remote, nil
}

func providerFixture(t *testing.T) (*config.Config, *registry.Registry) {
	t.Helper()
	cacheDir := t.TempDir()
	cfg := &config.Config{
		CacheDir:      cacheDir,
		DefaultVendor: jvm.VendorAny,
		VendorPinning: true,
		HTTPTimeout:   config.DefaultHTTPTimeout,
	}
	return cfg, registry.New(filepath.Join(cacheDir, "runtimes.json"))
}

func serveRuntimeZip(t *testing.T) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("jdk/bin/java")
	require.NoError(t, err)
	_, err = f.Write([]byte("#!/bin/sh\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRuntimeForPrefersInstalledRuntime(t *testing.T) {
	cfg, reg := providerFixture(t)
	installed := localRuntime(t, "17.0.1")
	require.NoError(t, reg.Add(installed))

	cat := &stubCatalog{}
	provider := NewLocalFirstProvider(cfg, resolver.New(reg, cfg), install.New(cfg, reg), cat)

	rt, err := provider.RuntimeFor(context.Background(), Requirement{Range: version.MustParseRange("9+")})
	require.NoError(t, err)
	assert.Equal(t, installed, rt)
	assert.Zero(t, cat.calls, "catalog is not consulted when a local runtime matches")
}

func TestRuntimeForInstallsFromCatalog(t *testing.T) {
	cfg, reg := providerFixture(t)
	archive := serveRuntimeZip(t)

	cat := &stubCatalog{remote: jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("21.0.1"),
		OS:       jvm.LocalSystem(),
		Endpoint: archive.URL + "/jre.zip",
	}}
	provider := NewLocalFirstProvider(cfg, resolver.New(reg, cfg), install.New(cfg, reg), cat)

	rt, err := provider.RuntimeFor(context.Background(), Requirement{Range: version.MustParseRange("21+")})
	require.NoError(t, err)

	assert.True(t, rt.Managed)
	assert.Equal(t, "21.0.1", rt.Version.String())
	assert.Equal(t, 1, cat.calls)
	assert.Len(t, reg.List(), 1)
}

func TestRuntimeForUsesLocationHint(t *testing.T) {
	cfg, reg := providerFixture(t)
	archive := serveRuntimeZip(t)

	descriptor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jvm.RemoteRuntime{
			Vendor:   "zulu",
			Version:  version.MustParse("17.0.1"),
			OS:       jvm.LocalSystem(),
			Endpoint: archive.URL + "/jre.zip",
		})
	}))
	t.Cleanup(descriptor.Close)

	cat := &stubCatalog{}
	provider := NewLocalFirstProvider(cfg, resolver.New(reg, cfg), install.New(cfg, reg), cat)

	rt, err := provider.RuntimeFor(context.Background(), Requirement{
		Range:    version.MustParseRange("17+"),
		Location: descriptor.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, "zulu", rt.Vendor)
	assert.Zero(t, cat.calls, "a location hint bypasses the default catalog")
}
