// Package config holds the runtime-manager settings. Values come from
// the viper-backed config file (~/.javelin/config.yaml), environment
// variables with the JAVELIN prefix, and flag bindings set up by the
// CLI; the resulting Config is an explicit value passed to every
// consumer rather than a process-wide singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/javelinws/javelin/internal/jvm/version"
)

// DefaultHTTPTimeout bounds the whole download request/response cycle.
const DefaultHTTPTimeout = 60 * time.Second

// Config is the effective configuration of the runtime manager.
type Config struct {
	// CacheDir is the root under which managed runtimes and the
	// persisted catalog live.
	CacheDir string

	// DefaultVendor is used for every resolution query while vendor
	// pinning is disabled. jvm.VendorAny matches all vendors.
	DefaultVendor string

	// VendorPinning, when disabled, makes the resolver substitute
	// DefaultVendor for whatever vendor the caller requested.
	VendorPinning bool

	// SupportedRange optionally restricts which runtime versions may
	// be selected or discovered. The zero Range means no restriction.
	SupportedRange version.Range

	// HTTPTimeout is the hard timeout for a runtime download.
	HTTPTimeout time.Duration

	// BootJar is the path to the launcher's own archive, placed on the
	// boot classpath of every launched application. Empty means
	// "javelin-boot.jar next to the javelin executable".
	BootJar string

	// RemoteDebugPort is the raw JAVELIN_REMOTE_DEBUG_PORT value. It
	// is parsed lazily at launch time; malformed values are ignored.
	RemoteDebugPort string

	// DiscoveryRoots are extra directories scanned for host-installed
	// JVMs in addition to the platform defaults.
	DiscoveryRoots []string

	// Server settings for the control API.
	ServerHost string
	ServerPort int
}

// SetDefaults registers the config defaults on the given viper
// instance. Called once by the CLI before reading the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache-dir", "")
	v.SetDefault("vendor.default", "any")
	v.SetDefault("vendor.pinning", true)
	v.SetDefault("supported-range", "")
	v.SetDefault("http-timeout", DefaultHTTPTimeout)
	v.SetDefault("boot-jar", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 7401)
}

// BindEnv wires JAVELIN_* environment variables to config keys.
// Dashes and dots in key names map to underscores, so
// remote-debug-port is read from JAVELIN_REMOTE_DEBUG_PORT and
// vendor.default from JAVELIN_VENDOR_DEFAULT.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("JAVELIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// FromViper builds a Config from the given viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		CacheDir:        v.GetString("cache-dir"),
		DefaultVendor:   v.GetString("vendor.default"),
		VendorPinning:   v.GetBool("vendor.pinning"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		BootJar:         v.GetString("boot-jar"),
		RemoteDebugPort: v.GetString("remote-debug-port"),
		DiscoveryRoots:  v.GetStringSlice("discovery-roots"),
		ServerHost:      v.GetString("server.host"),
		ServerPort:      v.GetInt("server.port"),
	}

	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.CacheDir = filepath.Join(home, ".javelin", "runtimes")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	if raw := v.GetString("supported-range"); raw != "" {
		r, err := version.ParseRange(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing supported-range: %w", err)
		}
		cfg.SupportedRange = r
	}

	return cfg, nil
}

// CatalogPath returns the location of the persisted runtime catalog.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.CacheDir, "runtimes.json")
}

// Supports reports whether the supported-version policy allows v. An
// unset policy allows everything.
func (c *Config) Supports(v version.Version) bool {
	return c.SupportedRange.IsZero() || c.SupportedRange.Contains(v)
}
