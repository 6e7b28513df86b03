// Package jvm defines the runtime descriptors shared by the registry,
// resolver, installer and launcher.
package jvm

import (
	gort "runtime"

	"github.com/javelinws/javelin/internal/jvm/version"
)

// VendorAny matches every vendor during resolution.
const VendorAny = "any"

// OperatingSystem identifies the platform a runtime was built for.
type OperatingSystem string

const (
	Linux   OperatingSystem = "linux"
	MacOS   OperatingSystem = "macos"
	Windows OperatingSystem = "windows"
)

// LocalSystem returns the operating system of the host.
func LocalSystem() OperatingSystem {
	switch gort.GOOS {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	default:
		return Linux
	}
}

// LocalRuntime is an installed JVM known to the registry. Managed
// runtimes live under the cache root and may be deleted by javelin;
// unmanaged runtimes were discovered on the host and are only
// referenced.
type LocalRuntime struct {
	Vendor   string          `json:"vendor"`
	Version  version.Version `json:"version"`
	OS       OperatingSystem `json:"os"`
	JavaHome string          `json:"javaHome"`
	Managed  bool            `json:"managed"`
	Active   bool            `json:"active"`
}

// Equal reports whether two runtimes have the same identity tuple
// (vendor, version, os) and home directory. The managed and active
// flags do not participate in identity.
func (r LocalRuntime) Equal(o LocalRuntime) bool {
	return r.Vendor == o.Vendor &&
		r.Version.Compare(o.Version) == 0 &&
		r.OS == o.OS &&
		r.JavaHome == o.JavaHome
}

// RemoteRuntime is a downloadable JVM candidate produced by a catalog.
// It is never persisted.
type RemoteRuntime struct {
	Vendor   string          `json:"vendor"`
	Version  version.Version `json:"version"`
	OS       OperatingSystem `json:"os"`
	Endpoint string          `json:"endpoint"`
}
