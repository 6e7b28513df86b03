// Package version implements JVM version identifiers and the range
// patterns used by application descriptors ("1.8*", "9+", "11.0.2").
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed JVM version identifier such as "1.8.0_262",
// "11.0.2+9" or "17". The original string is retained for display and
// persistence; ordering is defined over the numeric tuple.
type Version struct {
	raw   string
	parts []int
}

// Parse parses a JVM version identifier. Tuple elements are separated
// by '.', '_', '-' or '+'; non-numeric trailing elements (e.g. "-ea")
// are ignored for ordering purposes.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Version{}, fmt.Errorf("parsing version: empty version string")
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			// Pre-release and build tags do not participate in ordering.
			break
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return Version{}, fmt.Errorf("parsing version %q: no numeric component", s)
	}

	return Version{raw: trimmed, parts: parts}, nil
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original version string.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v.raw == ""
}

// Compare returns -1, 0 or 1 ordering v against o by numeric tuple.
// Missing elements compare as zero, so "1.8" == "1.8.0".
func (v Version) Compare(o Version) int {
	n := len(v.parts)
	if len(o.parts) > n {
		n = len(o.parts)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(o.parts) {
			b = o.parts[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// hasPrefix reports whether v starts with the tuple of p.
func (v Version) hasPrefix(p Version) bool {
	for i, want := range p.parts {
		got := 0
		if i < len(v.parts) {
			got = v.parts[i]
		}
		if got != want {
			return false
		}
	}
	return true
}
