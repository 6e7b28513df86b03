package version

import (
	"fmt"
	"strings"
)

// Range is a version pattern tested against concrete versions. A range
// is a space-separated list of alternatives, each one of:
//
//	"11"    exact match (modulo zero-padding, "11" matches "11.0.0")
//	"1.8*"  prefix match
//	"9+"    minimum match, the given version or any later one
//
// A version is contained in the range when any alternative matches.
type Range struct {
	raw   string
	terms []rangeTerm
}

type rangeMode int

const (
	modeExact rangeMode = iota
	modePrefix
	modeMinimum
)

type rangeTerm struct {
	base Version
	mode rangeMode
}

// ParseRange parses a range pattern.
func ParseRange(s string) (Range, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Range{}, fmt.Errorf("parsing range: empty pattern")
	}

	var terms []rangeTerm
	for _, field := range strings.Fields(trimmed) {
		mode := modeExact
		switch {
		case strings.HasSuffix(field, "*"):
			mode = modePrefix
			field = strings.TrimSuffix(field, "*")
		case strings.HasSuffix(field, "+"):
			mode = modeMinimum
			field = strings.TrimSuffix(field, "+")
		}
		base, err := Parse(field)
		if err != nil {
			return Range{}, fmt.Errorf("parsing range %q: %w", s, err)
		}
		terms = append(terms, rangeTerm{base: base, mode: mode})
	}

	return Range{raw: trimmed, terms: terms}, nil
}

// MustParseRange is ParseRange for trusted literals; it panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the original pattern.
func (r Range) String() string {
	return r.raw
}

// IsZero reports whether r is the zero Range.
func (r Range) IsZero() bool {
	return r.raw == ""
}

// Contains reports whether v matches any alternative of the range.
func (r Range) Contains(v Version) bool {
	for _, t := range r.terms {
		switch t.mode {
		case modePrefix:
			if v.hasPrefix(t.base) {
				return true
			}
		case modeMinimum:
			if v.Compare(t.base) >= 0 {
				return true
			}
		default:
			if v.Compare(t.base) == 0 {
				return true
			}
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (r Range) MarshalText() ([]byte, error) {
	return []byte(r.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
