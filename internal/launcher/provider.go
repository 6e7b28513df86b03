package launcher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/resolver"
)

// RuntimeProvider obtains a local runtime satisfying one requirement.
type RuntimeProvider interface {
	RuntimeFor(ctx context.Context, req Requirement) (jvm.LocalRuntime, error)
}

// LocalFirstProvider asks the resolver for an installed runtime and
// falls back to downloading one through the install pipeline. An
// explicit location hint on the requirement replaces the default
// catalog as the source of download candidates.
type LocalFirstProvider struct {
	cfg       *config.Config
	resolver  *resolver.Resolver
	installer *install.Installer
	catalog   catalog.Source

	// Progress receives the download stream of a fallback install.
	Progress install.ProgressSink
}

// NewLocalFirstProvider wires the standard provider chain.
func NewLocalFirstProvider(cfg *config.Config, res *resolver.Resolver, inst *install.Installer, cat catalog.Source) *LocalFirstProvider {
	return &LocalFirstProvider{
		cfg:       cfg,
		resolver:  res,
		installer: inst,
		catalog:   cat,
	}
}

// RuntimeFor implements RuntimeProvider.
func (p *LocalFirstProvider) RuntimeFor(ctx context.Context, req Requirement) (jvm.LocalRuntime, error) {
	vendor := req.Vendor
	if vendor == "" {
		vendor = jvm.VendorAny
	}

	if rt, ok := p.resolver.BestRuntime(req.Range, vendor, jvm.LocalSystem()); ok {
		return rt, nil
	}

	log.Debug().
		Stringer("range", req.Range).
		Str("vendor", vendor).
		Msg("no installed runtime matches, consulting catalog")

	source := p.catalog
	if req.Location != "" {
		source = catalog.NewDescriptor(req.Location, p.cfg.HTTPTimeout)
	}

	remote, err := source.Resolve(ctx, req.Range, vendor, jvm.LocalSystem())
	if err != nil {
		return jvm.LocalRuntime{}, fmt.Errorf("resolving remote runtime: %w", err)
	}

	rt, err := p.installer.Install(ctx, remote, p.Progress)
	if err != nil {
		return jvm.LocalRuntime{}, err
	}
	return rt, nil
}
