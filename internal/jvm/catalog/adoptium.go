// Package catalog produces downloadable runtime candidates. The
// Adoptium client queries the public Adoptium API; the descriptor
// client fetches a remote-runtime JSON document from an explicit
// location given by an application requirement.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	gort "runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// ErrNoMatch is returned when the catalog offers nothing inside the
// requested range for the requested platform.
var ErrNoMatch = errors.New("no matching runtime offered by catalog")

// Source resolves a version range to a downloadable runtime.
type Source interface {
	Resolve(ctx context.Context, rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.RemoteRuntime, error)
}

const defaultAdoptiumBaseURL = "https://api.adoptium.net/v3"

// adoptiumVendor is the only vendor the Adoptium API serves. Requests
// for any other vendor cannot be satisfied here.
const adoptiumVendor = "eclipse"

// AdoptiumClient resolves version ranges against the Adoptium API.
type AdoptiumClient struct {
	baseURL string
	client  *http.Client
}

// NewAdoptium creates a client against the public Adoptium endpoint.
func NewAdoptium(timeout time.Duration) *AdoptiumClient {
	return NewAdoptiumWithBaseURL(defaultAdoptiumBaseURL, timeout)
}

// NewAdoptiumWithBaseURL creates a client against a custom endpoint,
// used by tests.
func NewAdoptiumWithBaseURL(baseURL string, timeout time.Duration) *AdoptiumClient {
	return &AdoptiumClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type availableReleases struct {
	AvailableReleases []int `json:"available_releases"`
}

type assetResponse struct {
	Binary struct {
		Package struct {
			Link string `json:"link"`
		} `json:"package"`
	} `json:"binary"`
	Version struct {
		OpenJDKVersion string `json:"openjdk_version"`
	} `json:"version"`
}

// Resolve finds the newest Adoptium release whose concrete version is
// contained in rng and available for the given operating system on the
// host architecture.
func (c *AdoptiumClient) Resolve(ctx context.Context, rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.RemoteRuntime, error) {
	if vendor != jvm.VendorAny && vendor != adoptiumVendor {
		return jvm.RemoteRuntime{}, fmt.Errorf("vendor %s not offered by adoptium: %w", vendor, ErrNoMatch)
	}

	releases, err := c.availableReleases(ctx)
	if err != nil {
		return jvm.RemoteRuntime{}, err
	}

	// Newest feature release first.
	for i := len(releases) - 1; i >= 0; i-- {
		feature := releases[i]
		remote, err := c.latestAsset(ctx, feature, os)
		if err != nil {
			log.Debug().Err(err).Int("feature", feature).Msg("skipping catalog release")
			continue
		}
		if !rng.Contains(remote.Version) {
			continue
		}
		return remote, nil
	}

	return jvm.RemoteRuntime{}, fmt.Errorf("resolving %s for %s: %w", rng, os, ErrNoMatch)
}

func (c *AdoptiumClient) availableReleases(ctx context.Context) ([]int, error) {
	url := fmt.Sprintf("%s/info/available_releases", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying catalog releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying catalog releases: unexpected status code %d", resp.StatusCode)
	}

	var releases availableReleases
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decoding catalog releases: %w", err)
	}
	return releases.AvailableReleases, nil
}

func (c *AdoptiumClient) latestAsset(ctx context.Context, feature int, os jvm.OperatingSystem) (jvm.RemoteRuntime, error) {
	url := fmt.Sprintf("%s/assets/latest/%d/hotspot?architecture=%s&image_type=jre&os=%s&vendor=%s",
		c.baseURL, feature, adoptiumArch(), adoptiumOS(os), adoptiumVendor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("creating asset request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("querying catalog assets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return jvm.RemoteRuntime{}, fmt.Errorf("querying catalog assets: unexpected status code %d", resp.StatusCode)
	}

	var assets []assetResponse
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("decoding catalog assets: %w", err)
	}
	if len(assets) == 0 {
		return jvm.RemoteRuntime{}, fmt.Errorf("feature release %d: %w", feature, ErrNoMatch)
	}

	v, err := version.Parse(assets[0].Version.OpenJDKVersion)
	if err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("parsing catalog version: %w", err)
	}

	return jvm.RemoteRuntime{
		Vendor:   adoptiumVendor,
		Version:  v,
		OS:       os,
		Endpoint: assets[0].Binary.Package.Link,
	}, nil
}

func adoptiumOS(os jvm.OperatingSystem) string {
	if os == jvm.MacOS {
		return "mac"
	}
	return string(os)
}

func adoptiumArch() string {
	switch gort.GOARCH {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	default:
		return gort.GOARCH
	}
}
