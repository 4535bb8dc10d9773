// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package resolve implements the dependency resolver: a pure function over
// a candidate map that validates relations and yields a deterministic
// topological load order, per spec.md §4.3.
package resolve

import (
	"sort"

	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// node is the resolver's internal graph representation: a candidate plus
// the set of identifiers that must be extracted before it.
type node struct {
	unit     *pluginapi.CandidateUnit
	incoming map[pluginapi.Identifier]struct{}
}

// Resolve computes a load order for candidates. Extraction within a pass is
// tie-broken by ascending canonical identifier string — a fixed, documented
// policy that makes Resolve a deterministic pure function of its input,
// independent of Go's randomized map iteration order (spec.md §4.3, §8
// load-order-determinism law).
func Resolve(candidates map[pluginapi.Identifier]*pluginapi.CandidateUnit) ([]*pluginapi.CandidateUnit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := sortedIDs(candidates)
	nodes := make(map[pluginapi.Identifier]*node, len(candidates))
	for _, id := range ids {
		nodes[id] = &node{unit: candidates[id], incoming: make(map[pluginapi.Identifier]struct{})}
	}

	report := &Report{}

	for _, id := range ids {
		n := nodes[id]
		m := n.unit.Manifest

		for dep := range m.Dependencies {
			if _, ok := candidates[dep]; ok {
				n.incoming[dep] = struct{}{}
			} else {
				report.add(id, KindMissingDependency, dep)
			}
		}
		for dep := range m.OptionalDependencies {
			if _, ok := candidates[dep]; ok {
				n.incoming[dep] = struct{}{}
			}
		}
		for target := range m.LoadBefore {
			if targetNode, ok := nodes[target]; ok {
				targetNode.incoming[id] = struct{}{}
			} else if _, ok := candidates[target]; !ok {
				report.add(id, KindMissingLoadBefore, target)
			}
		}
	}

	// Core units always order before external units.
	coreIDs := make([]pluginapi.Identifier, 0)
	for _, id := range ids {
		if nodes[id].unit.IsCore {
			coreIDs = append(coreIDs, id)
		}
	}
	for _, id := range ids {
		if nodes[id].unit.IsCore {
			continue
		}
		for _, coreID := range coreIDs {
			nodes[id].incoming[coreID] = struct{}{}
		}
	}

	if report.hasDiagnostics() {
		return nil, oops.Code("PLUGIN_RESOLVE_FAILED").Wrap(report)
	}

	order, remaining := extract(ids, nodes)
	if len(remaining) > 0 {
		cycle := buildCycleReport(remaining, nodes)
		return nil, oops.Code("PLUGIN_CYCLE").Wrap(cycle)
	}

	out := make([]*pluginapi.CandidateUnit, len(order))
	for i, id := range order {
		out[i] = candidates[id]
	}
	return out, nil
}

// extract runs Kahn's algorithm, tie-broken by the identifier's position in
// ids each pass, and returns the emitted order plus whatever identifiers
// remain if a pass extracts nothing (a cycle).
func extract(ids []pluginapi.Identifier, nodes map[pluginapi.Identifier]*node) (order, remaining []pluginapi.Identifier) {
	pending := make(map[pluginapi.Identifier]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}

	for len(pending) > 0 {
		var ready []pluginapi.Identifier
		for _, id := range ids {
			if _, stillPending := pending[id]; !stillPending {
				continue
			}
			if len(nodes[id].incoming) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			break
		}
		for _, id := range ready {
			order = append(order, id)
			delete(pending, id)
		}
		for id := range pending {
			for _, doneID := range ready {
				delete(nodes[id].incoming, doneID)
			}
		}
	}

	for _, id := range ids {
		if _, stillPending := pending[id]; stillPending {
			remaining = append(remaining, id)
		}
	}
	return order, remaining
}

func sortedIDs(candidates map[pluginapi.Identifier]*pluginapi.CandidateUnit) []pluginapi.Identifier {
	ids := make([]pluginapi.Identifier, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
