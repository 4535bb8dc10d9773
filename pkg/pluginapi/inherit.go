// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

// ExpandChildren builds one derived manifest per entry in parent.SubPlugins.
// Each child is an independent value — no map or slice is shared with the
// parent — copying group, version, description, authors, website, and
// disabledByDefault from the parent only when the child left them unset,
// and gaining an implicit hard dependency on the parent (mapped to the
// parent's version, or a zero/always-satisfied range when the parent has
// none declared). This is the only permitted manifest mutation in the
// system; after a candidate is registered, its manifest is never modified
// again (spec.md §4.1).
//
// Expansion is single-level: grandchildren are not expanded here. Callers
// that register expanded children are expected to call ExpandChildren again
// on each child that itself declares sub-plugins.
func ExpandChildren(parent *Manifest) ([]*Manifest, error) {
	children := make([]*Manifest, 0, len(parent.SubPlugins))
	for _, child := range parent.SubPlugins {
		derived := *child
		derived.SubPlugins = append([]*Manifest(nil), child.SubPlugins...)

		if derived.Group == "" {
			derived.Group = parent.Group
		}
		if derived.Version.IsZero() {
			derived.Version = parent.Version
		}
		if derived.Description == "" {
			derived.Description = parent.Description
		}
		if derived.Website == "" {
			derived.Website = parent.Website
		}
		if len(derived.Authors) == 0 {
			derived.Authors = parent.Authors
		}
		if !child.DisabledByDefault {
			derived.DisabledByDefault = parent.DisabledByDefault
		}

		derived.Dependencies = copyDeps(child.Dependencies)
		if derived.Dependencies == nil {
			derived.Dependencies = make(map[Identifier]VersionRange, 1)
		}
		derived.Dependencies[parent.Identifier()] = parent.Version.impliedRange()
		derived.OptionalDependencies = copyDeps(child.OptionalDependencies)
		derived.LoadBefore = copyDeps(child.LoadBefore)

		if err := derived.Validate(); err != nil {
			return nil, err
		}
		if derived.Identifier() == parent.Identifier() {
			return nil, &sameIdentifierError{parent: parent.Identifier()}
		}

		children = append(children, &derived)
	}
	return children, nil
}

// impliedRange returns the version range an implicit parent dependency
// should carry: an exact-version constraint when the parent declares a
// version, or the always-satisfied zero range otherwise.
func (v Version) impliedRange() VersionRange {
	if v.IsZero() {
		return VersionRange{}
	}
	r, err := ParseVersionRange("=" + v.String())
	if err != nil {
		// A version that parsed successfully always round-trips through "=".
		return VersionRange{}
	}
	return r
}

func copyDeps(m map[Identifier]VersionRange) map[Identifier]VersionRange {
	if m == nil {
		return nil
	}
	out := make(map[Identifier]VersionRange, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type sameIdentifierError struct {
	parent Identifier
}

func (e *sameIdentifierError) Error() string {
	return "manifest: sub-plugin identifier must differ from parent " + e.parent.String()
}
