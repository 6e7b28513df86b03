package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
	_ "github.com/javelinws/javelin/internal/testhelper"
)

// fakeInstallation lays out a JVM home under root and returns its path.
func fakeInstallation(t *testing.T, root, name, release string) string {
	t.Helper()
	home := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "java"), []byte("#!/bin/sh\n"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "java.exe"), []byte{}, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "release"), []byte(release), 0600))
	return home
}

func TestProbeReadsReleaseFile(t *testing.T) {
	root := t.TempDir()
	home := fakeInstallation(t, root, "jdk-11", "JAVA_VERSION=\"11.0.2\"\nIMPLEMENTOR=\"Eclipse Adoptium\"\n")

	rt, err := Probe(home)
	require.NoError(t, err)

	assert.Equal(t, "11.0.2", rt.Version.String())
	assert.Equal(t, "Eclipse Adoptium", rt.Vendor)
	assert.Equal(t, home, rt.JavaHome)
	assert.False(t, rt.Managed)
	assert.True(t, rt.Active)
	assert.Equal(t, jvm.LocalSystem(), rt.OS)
}

func TestProbeDefaultsUnknownVendor(t *testing.T) {
	root := t.TempDir()
	home := fakeInstallation(t, root, "jdk-8", "JAVA_VERSION=\"1.8.0_242\"\n")

	rt, err := Probe(home)
	require.NoError(t, err)
	assert.Equal(t, "unknown", rt.Vendor)
}

func TestProbeRejectsNonRuntimeDirectory(t *testing.T) {
	_, err := Probe(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no java executable")
}

func TestProbeRejectsMissingVersion(t *testing.T) {
	root := t.TempDir()
	home := fakeInstallation(t, root, "jdk-x", "IMPLEMENTOR=\"Somebody\"\n")

	_, err := Probe(home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JAVA_VERSION")
}

func TestFindAndRegisterScansConfiguredRoots(t *testing.T) {
	root := t.TempDir()
	home := fakeInstallation(t, root, "jdk-17", "JAVA_VERSION=\"17.0.1\"\nIMPLEMENTOR=\"Eclipse Adoptium\"\n")

	cfg := &config.Config{DiscoveryRoots: []string{root}}
	reg := registry.New(filepath.Join(t.TempDir(), "runtimes.json"))

	found, err := New(cfg, reg).FindAndRegister()
	require.NoError(t, err)

	var hit bool
	for _, rt := range found {
		if rt.JavaHome == home {
			hit = true
		}
	}
	assert.True(t, hit, "configured root must be scanned")

	registered := false
	for _, rt := range reg.List() {
		if rt.JavaHome == home {
			registered = true
			assert.False(t, rt.Managed)
		}
	}
	assert.True(t, registered)
}

func TestFindAndRegisterSkipsUnsupportedVersions(t *testing.T) {
	root := t.TempDir()
	home := fakeInstallation(t, root, "jdk-6", "JAVA_VERSION=\"1.6.0\"\n")

	cfg := &config.Config{
		DiscoveryRoots: []string{root},
		SupportedRange: version.MustParseRange("1.8+"),
	}
	reg := registry.New(filepath.Join(t.TempDir(), "runtimes.json"))

	found, err := New(cfg, reg).FindAndRegister()
	require.NoError(t, err)

	var reported bool
	for _, rt := range found {
		if rt.JavaHome == home {
			reported = true
		}
	}
	assert.True(t, reported, "out-of-policy runtimes are still reported")

	for _, rt := range reg.List() {
		assert.NotEqual(t, home, rt.JavaHome, "out-of-policy runtimes are not registered")
	}
}
