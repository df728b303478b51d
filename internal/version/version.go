// Package version implements per-field connector/transform
// version-compatibility rules (C8). The source software attaches
// these via a derive-style proc macro reading #[compat(...)]
// attributes (see original_source/crates/components/connector_versioning_derive);
// Go has no such macro, so the equivalent table is built once per type
// by reflecting over a `compat:"..."` struct tag and cached.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a two-component MAJOR.MINOR version. The dialect's
// WITH CONNECTOR VERSION clause never carries more than two
// components, so a full semver parser (which also accepts patch and
// pre-release components) would accept input this dialect must reject;
// that is the one place this package deliberately does not reach for
// an external semver library.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v Version) LessEq(other Version) bool  { return v == other || v.Less(other) }
func (v Version) GreaterEq(other Version) bool { return v == other || other.Less(v) }

// Parse accepts exactly "<major>.<minor>" and rejects anything else.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("version %q: expected MAJOR.MINOR", s)
	}
	maj, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: invalid major: %w", s, err)
	}
	min, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: invalid minor: %w", s, err)
	}
	return Version{Major: uint8(maj), Minor: uint8(min)}, nil
}

// CompatKind discriminates the four compatibility rules from §4.8.
type CompatKind int

const (
	Always CompatKind = iota
	Since
	Until
	Range
)

// Compat is a per-field compatibility rule.
type Compat struct {
	Kind CompatKind
	Min  Version // used by Since and Range
	Max  Version // used by Until and Range
}

// Accepts reports whether v satisfies this compatibility rule.
func (c Compat) Accepts(v Version) bool {
	switch c.Kind {
	case Always:
		return true
	case Since:
		return v.GreaterEq(c.Min)
	case Until:
		return v.LessEq(c.Max)
	case Range:
		return v.GreaterEq(c.Min) && v.LessEq(c.Max)
	default:
		return true
	}
}

// ParseCompatTag parses a `compat:"..."` struct tag value: "always",
// "since=3.1", "until=3.0", or "range=3.0..3.2".
func ParseCompatTag(tag string) (Compat, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "always" {
		return Compat{Kind: Always}, nil
	}
	switch {
	case strings.HasPrefix(tag, "since="):
		v, err := Parse(strings.TrimPrefix(tag, "since="))
		if err != nil {
			return Compat{}, err
		}
		return Compat{Kind: Since, Min: v}, nil
	case strings.HasPrefix(tag, "until="):
		v, err := Parse(strings.TrimPrefix(tag, "until="))
		if err != nil {
			return Compat{}, err
		}
		return Compat{Kind: Until, Max: v}, nil
	case strings.HasPrefix(tag, "range="):
		rng := strings.TrimPrefix(tag, "range=")
		parts := strings.SplitN(rng, "..", 2)
		if len(parts) != 2 {
			return Compat{}, fmt.Errorf("compat range %q: expected MIN..MAX", rng)
		}
		min, err := Parse(parts[0])
		if err != nil {
			return Compat{}, err
		}
		max, err := Parse(parts[1])
		if err != nil {
			return Compat{}, err
		}
		return Compat{Kind: Range, Min: min, Max: max}, nil
	default:
		return Compat{}, fmt.Errorf("compat tag %q: expected always|since=|until=|range=", tag)
	}
}

// EnumAllowList restricts an enumerated-value field to a set of
// accepted literals, scoped to its own compatibility window.
type EnumAllowList struct {
	Compat  Compat
	Allowed []string
}

// Allows reports whether value is permitted for v given this allow-list.
func (a EnumAllowList) Allows(v Version, value string) bool {
	if !a.Compat.Accepts(v) {
		return true // out of this window: a different rule governs the field
	}
	for _, allowed := range a.Allowed {
		if allowed == value {
			return true
		}
	}
	return false
}
