// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package resolve

import (
	"sort"

	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// ValidateVersions checks every hard dependency's version range against the
// actual version of its candidate before Resolve builds the graph, and
// checks each candidate's own serverVersion range (spec.md §4.3) against
// hostVersion. Any unsatisfied hard dependency or serverVersion fails the
// whole call with one aggregate error listing every mismatch; offending
// candidates are not dropped individually. Optional dependency and
// loadBefore ranges are not checked.
func ValidateVersions(candidates map[pluginapi.Identifier]*pluginapi.CandidateUnit, hostVersion pluginapi.Version) error {
	ids := sortedIDs(candidates)
	var mismatches []string

	for _, id := range ids {
		unit := candidates[id]

		if !unit.Manifest.ServerVersion.IsZero() && !unit.Manifest.ServerVersion.Satisfies(hostVersion) {
			mismatches = append(mismatches, id.String()+" requires server version "+unit.Manifest.ServerVersion.String()+
				" but host is "+hostVersion.String())
		}

		for dep, rng := range unit.Manifest.Dependencies {
			target, ok := candidates[dep]
			if !ok {
				continue // reported by Resolve as a missing dependency
			}
			if rng.IsZero() {
				continue
			}
			if !rng.Satisfies(target.Manifest.Version) {
				mismatches = append(mismatches, id.String()+" requires "+dep.String()+" "+rng.String()+
					" but found "+target.Manifest.Version.String())
			}
		}
	}

	if len(mismatches) == 0 {
		return nil
	}
	sort.Strings(mismatches)
	return oops.Code("PLUGIN_VERSION_MISMATCH").Errorf("%d dependency version mismatch(es): %v", len(mismatches), mismatches)
}
