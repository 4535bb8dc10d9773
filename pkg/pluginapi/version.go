// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a parsed semantic version. The zero Version is "unset".
type Version struct {
	v *semver.Version
}

// ParseVersion parses a semantic version string.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: %w", s, err)
	}
	return Version{v: v}, nil
}

// IsZero reports whether the version is unset.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String renders the original version string, or "" when unset.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

// VersionRange is a semantic version constraint expression. The zero
// VersionRange is satisfied by every version, including the unset Version —
// this is used for the implicit parent dependency edge when the parent
// manifest declares no version.
type VersionRange struct {
	c   *semver.Constraints
	raw string
}

// ParseVersionRange parses a semver constraint expression such as ">=1.0.0, <2.0.0".
// An empty string is the zero (always-satisfied) range.
func ParseVersionRange(s string) (VersionRange, error) {
	if s == "" {
		return VersionRange{}, nil
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return VersionRange{}, fmt.Errorf("version range %q: %w", s, err)
	}
	return VersionRange{c: c, raw: s}, nil
}

// IsZero reports whether the range has no constraint.
func (r VersionRange) IsZero() bool {
	return r.c == nil
}

// String renders the original constraint expression, or "" when unset.
func (r VersionRange) String() string {
	return r.raw
}

// Satisfies reports whether v satisfies the range. A zero range is always
// satisfied. An unset version only satisfies a zero range.
func (r VersionRange) Satisfies(v Version) bool {
	if r.c == nil {
		return true
	}
	if v.v == nil {
		return false
	}
	return r.c.Check(v.v)
}
