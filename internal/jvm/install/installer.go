// Package install downloads remote runtime packages, extracts them
// under the cache root and registers the result. A failed install
// leaves neither a registry entry nor a partially extracted directory
// behind.
package install

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/registry"
)

// ErrWrongOS rejects installing a runtime built for a different
// operating system than the local one.
var ErrWrongOS = errors.New("runtime targets a different operating system")

// Installer is the install pipeline: download, extract, register.
type Installer struct {
	cfg      *config.Config
	registry *registry.Registry
	client   *http.Client
}

// New creates an installer writing to the given registry. The HTTP
// client timeout bounds the whole download request/response cycle.
func New(cfg *config.Config, reg *registry.Registry) *Installer {
	return &Installer{
		cfg:      cfg,
		registry: reg,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Install downloads and extracts the remote runtime into a fresh
// cache subdirectory and registers it as a managed, active runtime.
// The progress sink, when non-nil, receives the download stream before
// any byte is consumed.
func (i *Installer) Install(ctx context.Context, remote jvm.RemoteRuntime, sink ProgressSink) (jvm.LocalRuntime, error) {
	if remote.OS != jvm.LocalSystem() {
		return jvm.LocalRuntime{}, fmt.Errorf("installing %s %s: %w: got %s, local system is %s",
			remote.Vendor, remote.Version, ErrWrongOS, remote.OS, jvm.LocalSystem())
	}

	dir, err := allocateRuntimeDir(i.cfg.CacheDir, remote.Vendor, remote.Version.String())
	if err != nil {
		return jvm.LocalRuntime{}, err
	}

	log.Debug().
		Str("vendor", remote.Vendor).
		Stringer("version", remote.Version).
		Str("dir", dir).
		Str("endpoint", remote.Endpoint).
		Msg("installing remote runtime")

	if err := i.downloadAndExtract(ctx, remote, dir, sink); err != nil {
		if cleanupErr := os.RemoveAll(dir); cleanupErr != nil {
			return jvm.LocalRuntime{}, fmt.Errorf("installing runtime: %w (directory %s left behind: %v)", err, dir, cleanupErr)
		}
		return jvm.LocalRuntime{}, fmt.Errorf("installing runtime: %w", err)
	}

	local := jvm.LocalRuntime{
		Vendor:   remote.Vendor,
		Version:  remote.Version,
		OS:       remote.OS,
		JavaHome: dir,
		Managed:  true,
		Active:   true,
	}

	if err := i.registry.Add(local); err != nil {
		if cleanupErr := os.RemoveAll(dir); cleanupErr != nil {
			return jvm.LocalRuntime{}, fmt.Errorf("registering runtime: %w (directory %s left behind: %v)", err, dir, cleanupErr)
		}
		return jvm.LocalRuntime{}, fmt.Errorf("registering runtime: %w", err)
	}

	return local, nil
}

// downloadAndExtract performs the single bodyless GET and streams the
// response into the extractor.
func (i *Installer) downloadAndExtract(ctx context.Context, remote jvm.RemoteRuntime, dir string, sink ProgressSink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading runtime: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading runtime: unexpected status code %d", resp.StatusCode)
	}

	stream := newDownloadStream(resp.Body, resp.ContentLength)
	if sink != nil {
		sink(stream)
	}

	if err := extractArchive(stream, remote.Endpoint, dir); err != nil {
		return fmt.Errorf("extracting runtime archive: %w", err)
	}
	return nil
}
