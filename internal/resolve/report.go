// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Kind distinguishes the class of diagnostic a Report entry carries.
type Kind string

const (
	// KindMissingDependency marks a hard dependency with no matching candidate.
	KindMissingDependency Kind = "missing_dependency"
	// KindMissingLoadBefore marks a loadBefore target with no matching candidate.
	KindMissingLoadBefore Kind = "missing_load_before"
)

// Diagnostic describes one unresolved relation found while building the
// dependency graph.
type Diagnostic struct {
	Unit   pluginapi.Identifier
	Kind   Kind
	Target pluginapi.Identifier
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case KindMissingLoadBefore:
		return fmt.Sprintf("%s declares loadBefore %s, which is not present", d.Unit, d.Target)
	default:
		return fmt.Sprintf("%s requires %s, which is not present", d.Unit, d.Target)
	}
}

// Report collects every diagnostic found during a single Resolve call. It
// satisfies error so it can be wrapped directly by oops.
type Report struct {
	Diagnostics []Diagnostic
}

func (r *Report) add(unit pluginapi.Identifier, kind Kind, target pluginapi.Identifier) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Unit: unit, Kind: kind, Target: target})
}

func (r *Report) hasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

func (r *Report) Error() string {
	sort.Slice(r.Diagnostics, func(i, j int) bool {
		if r.Diagnostics[i].Unit != r.Diagnostics[j].Unit {
			return r.Diagnostics[i].Unit.String() < r.Diagnostics[j].Unit.String()
		}
		return r.Diagnostics[i].Target.String() < r.Diagnostics[j].Target.String()
	})
	lines := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// CycleReport describes a set of candidates that could not be extracted
// because they (and possibly others) form a dependency cycle.
type CycleReport struct {
	Members []pluginapi.Identifier
}

func (c *CycleReport) Error() string {
	lines := make([]string, 0, len(c.Members)+1)
	lines = append(lines, "cycle detected among:")
	for _, id := range c.Members {
		lines = append(lines, "  "+id.String())
	}
	return strings.Join(lines, "\n")
}

func buildCycleReport(remaining []pluginapi.Identifier, nodes map[pluginapi.Identifier]*node) *CycleReport {
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].String() < remaining[j].String() })
	return &CycleReport{Members: remaining}
}
