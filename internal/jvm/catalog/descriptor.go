package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// DescriptorClient resolves against an explicit install location named
// by an application requirement. The location must serve a remote
// runtime descriptor: either a single {vendor, version, os, endpoint}
// object or an array of them.
type DescriptorClient struct {
	location string
	client   *http.Client
}

// NewDescriptor creates a client for one descriptor location.
func NewDescriptor(location string, timeout time.Duration) *DescriptorClient {
	return &DescriptorClient{
		location: location,
		client:   &http.Client{Timeout: timeout},
	}
}

// Resolve fetches the descriptor and returns the highest-version entry
// matching the range, vendor and operating system.
func (c *DescriptorClient) Resolve(ctx context.Context, rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.RemoteRuntime, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.location, nil)
	if err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("creating descriptor request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return jvm.RemoteRuntime{}, fmt.Errorf("fetching runtime descriptor: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return jvm.RemoteRuntime{}, fmt.Errorf("fetching runtime descriptor: unexpected status code %d", resp.StatusCode)
	}

	candidates, err := decodeDescriptor(resp.Body)
	if err != nil {
		return jvm.RemoteRuntime{}, err
	}

	best := jvm.RemoteRuntime{}
	for _, remote := range candidates {
		if remote.OS != os {
			continue
		}
		if vendor != jvm.VendorAny && remote.Vendor != vendor {
			continue
		}
		if !rng.Contains(remote.Version) {
			continue
		}
		if best.Endpoint == "" || remote.Version.Compare(best.Version) > 0 {
			best = remote
		}
	}
	if best.Endpoint == "" {
		return jvm.RemoteRuntime{}, fmt.Errorf("descriptor %s: %w", c.location, ErrNoMatch)
	}
	return best, nil
}

func decodeDescriptor(r io.Reader) ([]jvm.RemoteRuntime, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding runtime descriptor: %w", err)
	}

	var list []jvm.RemoteRuntime
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single jvm.RemoteRuntime
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("decoding runtime descriptor: %w", err)
	}
	return []jvm.RemoteRuntime{single}, nil
}
