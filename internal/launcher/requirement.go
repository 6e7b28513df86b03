package launcher

import "github.com/javelinws/javelin/internal/jvm/version"

// Requirement is one entry in an application's ordered list of
// acceptable runtimes. Entries are tried in order; the first one the
// provider can satisfy wins.
type Requirement struct {
	// Range of acceptable versions, e.g. "1.8*" or "9+".
	Range version.Range
	// Vendor optionally restricts the runtime vendor. Empty means any.
	Vendor string
	// Location optionally names an explicit install location serving a
	// remote runtime descriptor; it bypasses the default catalog.
	Location string
	// VMArgs are extra JVM arguments requested by the application for
	// this requirement.
	VMArgs []string
}

// DefaultRequirement is substituted when an application specifies no
// requirements at all: version 1.8 or any later, any vendor.
func DefaultRequirement() Requirement {
	return Requirement{Range: version.MustParseRange("1.8+")}
}
