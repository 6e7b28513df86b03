// Package discovery finds JVMs already installed on the host and
// registers them as unmanaged runtimes.
package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	gort "runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/registry"
	"github.com/javelinws/javelin/internal/jvm/version"
)

// Finder scans candidate directories for JVM installations.
type Finder struct {
	cfg      *config.Config
	registry *registry.Registry
}

// New creates a finder registering into the given registry.
func New(cfg *config.Config, reg *registry.Registry) *Finder {
	return &Finder{cfg: cfg, registry: reg}
}

// FindAndRegister scans the configured roots plus the platform
// defaults, registering every discovered runtime that lies inside the
// supported version range. It returns the runtimes found, including
// those skipped by policy; scan errors on individual candidates are
// logged and do not abort the scan.
func (f *Finder) FindAndRegister() ([]jvm.LocalRuntime, error) {
	roots := append(defaultRoots(), f.cfg.DiscoveryRoots...)

	var found []jvm.LocalRuntime
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			home := javaHomeFor(filepath.Join(root, entry.Name()))
			rt, err := Probe(home)
			if err != nil {
				log.Debug().Err(err).Str("dir", home).Msg("skipping discovery candidate")
				continue
			}
			found = append(found, rt)

			if !f.cfg.Supports(rt.Version) {
				log.Debug().
					Stringer("version", rt.Version).
					Msg("discovered runtime outside supported range")
				continue
			}
			if err := f.registry.Add(rt); err != nil {
				log.Warn().Err(err).Str("java_home", rt.JavaHome).Msg("cannot register discovered runtime")
			}
		}
	}
	return found, nil
}

// Probe inspects a single candidate JAVA_HOME and builds an unmanaged
// runtime descriptor from its release file.
func Probe(home string) (jvm.LocalRuntime, error) {
	javaBin := filepath.Join(home, "bin", javaExecutableName())
	if _, err := os.Stat(javaBin); err != nil {
		return jvm.LocalRuntime{}, fmt.Errorf("no java executable under %s", home)
	}

	v, vendor, err := readReleaseFile(filepath.Join(home, "release"))
	if err != nil {
		return jvm.LocalRuntime{}, err
	}

	return jvm.LocalRuntime{
		Vendor:   vendor,
		Version:  v,
		OS:       jvm.LocalSystem(),
		JavaHome: home,
		Managed:  false,
		Active:   true,
	}, nil
}

// readReleaseFile parses JAVA_VERSION and IMPLEMENTOR from the JDK
// release file, e.g. JAVA_VERSION="11.0.2".
func readReleaseFile(path string) (version.Version, string, error) {
	file, err := os.Open(path) // #nosec G304 - path is derived from the scanned root
	if err != nil {
		return version.Version{}, "", fmt.Errorf("reading release file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var rawVersion, vendor string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "JAVA_VERSION":
			rawVersion = value
		case "IMPLEMENTOR":
			vendor = value
		}
	}
	if err := scanner.Err(); err != nil {
		return version.Version{}, "", fmt.Errorf("reading release file: %w", err)
	}
	if rawVersion == "" {
		return version.Version{}, "", fmt.Errorf("release file %s has no JAVA_VERSION", path)
	}

	v, err := version.Parse(rawVersion)
	if err != nil {
		return version.Version{}, "", err
	}
	if vendor == "" {
		vendor = "unknown"
	}
	return v, vendor, nil
}

func defaultRoots() []string {
	switch gort.GOOS {
	case "darwin":
		return []string{"/Library/Java/JavaVirtualMachines"}
	case "windows":
		return []string{`C:\Program Files\Java`, `C:\Program Files\Eclipse Adoptium`}
	default:
		return []string{"/usr/lib/jvm", "/usr/java"}
	}
}

// javaHomeFor maps a candidate directory to its JAVA_HOME; macOS JDK
// bundles nest it under Contents/Home.
func javaHomeFor(dir string) string {
	if gort.GOOS == "darwin" {
		nested := filepath.Join(dir, "Contents", "Home")
		if _, err := os.Stat(nested); err == nil {
			return nested
		}
	}
	return dir
}

func javaExecutableName() string {
	if gort.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}
