// Package resolver picks the best installed runtime for a version
// request. It is pure query logic over a registry snapshot and is safe
// to call concurrently with any number of other reads.
package resolver

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// Resolver answers best-runtime queries against a registry.
type Resolver struct {
	registry *registry.Registry
	cfg      *config.Config
}

// New creates a resolver reading from the given registry.
func New(reg *registry.Registry, cfg *config.Config) *Resolver {
	return &Resolver{registry: reg, cfg: cfg}
}

// BestRuntime returns the highest-version active runtime matching the
// range, vendor and operating system, honoring the vendor-pinning and
// supported-range configuration. The boolean is false when no runtime
// matches.
func (r *Resolver) BestRuntime(rng version.Range, vendor string, os jvm.OperatingSystem) (jvm.LocalRuntime, bool) {
	effectiveVendor := vendor
	if !r.cfg.VendorPinning {
		effectiveVendor = r.cfg.DefaultVendor
	}

	log.Debug().
		Stringer("range", rng).
		Str("vendor", effectiveVendor).
		Str("os", string(os)).
		Msg("searching local runtime")

	var candidates []jvm.LocalRuntime
	for _, rt := range r.registry.List() {
		if !rt.Active {
			continue
		}
		if rt.OS != os {
			continue
		}
		if effectiveVendor != jvm.VendorAny && rt.Vendor != effectiveVendor {
			continue
		}
		if !rng.Contains(rt.Version) {
			continue
		}
		if !r.cfg.Supports(rt.Version) {
			continue
		}
		candidates = append(candidates, rt)
	}

	if len(candidates) == 0 {
		return jvm.LocalRuntime{}, false
	}

	// Highest version first; equal versions fall back to lexical
	// vendor order so the result is deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := candidates[i].Version.Compare(candidates[j].Version); c != 0 {
			return c > 0
		}
		return candidates[i].Vendor < candidates[j].Vendor
	})

	return candidates[0], true
}
