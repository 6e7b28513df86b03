package install

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
	_ "github.com/javelinws/javelin/internal/testhelper"
)

// buildZip creates a JVM-shaped zip archive wrapped in a single root
// directory, the way catalog downloads arrive.
func buildZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for name, content := range map[string]string{
		"jdk-11.0.2/release":  "JAVA_VERSION=\"11.0.2\"\n",
		"jdk-11.0.2/bin/java": "#!/bin/sh\n",
	} {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildTarGz(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range map[string]string{
		"jdk-17/release":  "JAVA_VERSION=\"17.0.1\"\n",
		"jdk-17/bin/java": "#!/bin/sh\n",
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0755,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newInstaller(t *testing.T) (*Installer, *registry.Registry, *config.Config) {
	t.Helper()
	cacheDir := t.TempDir()
	cfg := &config.Config{
		CacheDir:    cacheDir,
		HTTPTimeout: config.DefaultHTTPTimeout,
	}
	reg := registry.New(filepath.Join(cacheDir, "runtimes.json"))
	return New(cfg, reg), reg, cfg
}

func serveArchive(t *testing.T, path string, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstallZipArchive(t *testing.T) {
	srv := serveArchive(t, "/jre.zip", buildZip(t))
	installer, reg, cfg := newInstaller(t)

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11.0.2"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.zip",
	}

	local, err := installer.Install(context.Background(), remote, nil)
	require.NoError(t, err)

	assert.True(t, local.Managed)
	assert.True(t, local.Active)
	assert.Equal(t, "eclipse", local.Vendor)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "eclipse-11.0.2"), local.JavaHome)

	// The single archive root is flattened into the runtime directory.
	_, err = os.Stat(filepath.Join(local.JavaHome, "bin", "java"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(local.JavaHome, "release"))
	assert.NoError(t, err)

	require.Len(t, reg.List(), 1)
	assert.Equal(t, local, reg.List()[0])
}

func TestInstallTarGzArchive(t *testing.T) {
	srv := serveArchive(t, "/jre.tar.gz", buildTarGz(t))
	installer, reg, _ := newInstaller(t)

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("17.0.1"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.tar.gz",
	}

	local, err := installer.Install(context.Background(), remote, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(local.JavaHome, "bin", "java"))
	assert.NoError(t, err)
	assert.Len(t, reg.List(), 1)
}

func TestInstallRejectsForeignOS(t *testing.T) {
	installer, reg, _ := newInstaller(t)

	foreign := jvm.Windows
	if jvm.LocalSystem() == jvm.Windows {
		foreign = jvm.Linux
	}

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11"),
		OS:       foreign,
		Endpoint: "http://irrelevant.invalid/jre.zip",
	}

	_, err := installer.Install(context.Background(), remote, nil)
	require.ErrorIs(t, err, ErrWrongOS)
	assert.Empty(t, reg.List())
}

func TestInstallCorruptArchiveLeavesNothingBehind(t *testing.T) {
	srv := serveArchive(t, "/jre.zip", []byte("this is not a zip file"))
	installer, reg, cfg := newInstaller(t)

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.zip",
	}

	_, err := installer.Install(context.Background(), remote, nil)
	require.Error(t, err)

	assert.Empty(t, reg.List())
	entries, readErr := os.ReadDir(cfg.CacheDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed install must clean up its directory")
}

func TestInstallDownloadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	installer, reg, _ := newInstaller(t)
	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.zip",
	}

	_, err := installer.Install(context.Background(), remote, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 410")
	assert.Empty(t, reg.List())
}

func TestInstallReportsProgress(t *testing.T) {
	payload := buildZip(t)
	srv := serveArchive(t, "/jre.zip", payload)
	installer, _, _ := newInstaller(t)

	var observed *DownloadStream
	sink := func(stream *DownloadStream) {
		observed = stream
	}

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11.0.2"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.zip",
	}

	_, err := installer.Install(context.Background(), remote, sink)
	require.NoError(t, err)

	require.NotNil(t, observed, "sink must receive the stream")
	assert.Equal(t, int64(len(payload)), observed.Size())
	assert.Equal(t, int64(len(payload)), observed.BytesRead())
}

func TestInstallAllocatesUniqueDirectories(t *testing.T) {
	srv := serveArchive(t, "/jre.zip", buildZip(t))
	installer, reg, cfg := newInstaller(t)

	remote := jvm.RemoteRuntime{
		Vendor:   "eclipse",
		Version:  version.MustParse("11.0.2"),
		OS:       jvm.LocalSystem(),
		Endpoint: srv.URL + "/jre.zip",
	}

	first, err := installer.Install(context.Background(), remote, nil)
	require.NoError(t, err)

	second, err := installer.Install(context.Background(), remote, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.JavaHome, second.JavaHome)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "eclipse-11.0.2-1"), second.JavaHome)

	// Same identity tuple except the home, so both entries coexist.
	assert.Len(t, reg.List(), 2)
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.CreateHeader(&zip.FileHeader{Name: "../escape.txt"})
	require.NoError(t, err)
	_, err = f.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dest := t.TempDir()
	err = extractArchive(bytes.NewReader(buf.Bytes()), "evil.zip", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path")
}

// buildTarGzWithSymlink wraps regular entries plus one symlink in a
// single-root tar.gz archive.
func buildTarGzWithSymlink(t *testing.T, linkName, linkTarget string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	content := "#!/bin/sh\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "jdk/bin/java",
		Mode: 0755,
		Size: int64(len(content)),
	}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     linkName,
		Typeflag: tar.TypeSymlink,
		Linkname: linkTarget,
		Mode:     0755,
	}))

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	payload := buildTarGzWithSymlink(t, "jdk/bin/evil", "../../../../etc/passwd")

	err := extractArchive(bytes.NewReader(payload), "evil.tar.gz", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symlink target")
}

func TestExtractRejectsAbsoluteSymlink(t *testing.T) {
	payload := buildTarGzWithSymlink(t, "jdk/bin/evil", "/etc/passwd")

	err := extractArchive(bytes.NewReader(payload), "evil.tar.gz", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symlink target")
}

func TestExtractAllowsInternalSymlink(t *testing.T) {
	payload := buildTarGzWithSymlink(t, "jdk/bin/java-link", "java")

	dest := t.TempDir()
	require.NoError(t, extractArchive(bytes.NewReader(payload), "jre.tar.gz", dest))

	// The single root is flattened, and the link still resolves to its
	// sibling.
	link := filepath.Join(dest, "bin", "java-link")
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, "java", target)
	_, err = os.Stat(link)
	assert.NoError(t, err)
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	err := extractArchive(bytes.NewReader(nil), "runtime.rar", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")
}
