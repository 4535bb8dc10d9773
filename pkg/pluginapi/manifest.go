// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

import "fmt"

// Manifest is the immutable declared metadata for a plugin unit. Callers
// build one as a struct literal or by unmarshalling (see internal/manifestio)
// and must call Validate before the manifest is registered.
type Manifest struct {
	Group       string
	Name        string
	Version     Version
	Description string
	Website     string
	Authors     []string

	// Main is an opaque type descriptor the instance factory resolves to a
	// constructible type. Empty means "no entry point" — the unit cannot be
	// instantiated.
	Main string

	ServerVersion VersionRange

	// Dependencies is the hard-dependency set: missing or unsatisfied is
	// fatal for this unit. Optional and hard dependency sets must be disjoint.
	Dependencies map[Identifier]VersionRange

	// OptionalDependencies affects load ordering only.
	OptionalDependencies map[Identifier]VersionRange

	// LoadBefore declares that this unit must be ordered before each listed
	// identifier that is actually present among the candidates.
	LoadBefore map[Identifier]VersionRange

	// SubPlugins lists child manifests in declaration order. Each child
	// inherits unset fields from the parent and gains an implicit hard
	// dependency on the parent (see ExpandChildren).
	SubPlugins []*Manifest

	DisabledByDefault bool
	IncludesAssetPack bool
	IsCore            bool
}

// Identifier returns the manifest's (group, name) identifier.
func (m *Manifest) Identifier() Identifier {
	return Identifier{Group: m.Group, Name: m.Name}
}

// Validate checks the invariants spec.md §3 requires of a standalone
// manifest: non-empty name, and disjoint hard/optional dependency sets.
// Identifier uniqueness across candidates and parent/child distinctness are
// checked by the registry, which has visibility across units.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: name must not be empty")
	}
	for id := range m.Dependencies {
		if _, ok := m.OptionalDependencies[id]; ok {
			return fmt.Errorf("manifest %s: %s is declared as both a hard and an optional dependency", m.Identifier(), id)
		}
	}
	return nil
}
