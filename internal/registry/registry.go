// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package registry implements the candidate registry: the collection of
// plugin units awaiting load, keyed by identifier, before the resolver runs.
package registry

import (
	"fmt"
	"sync"

	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Registry collects candidate units awaiting load. It owns them exclusively
// until Drain is called by the resolver.
type Registry struct {
	mu    sync.Mutex
	units map[pluginapi.Identifier]*pluginapi.CandidateUnit
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{units: make(map[pluginapi.Identifier]*pluginapi.CandidateUnit)}
}

// Register adds a candidate unit, recursively registering its expanded
// sub-unit candidates. Failure (duplicate identifier) is fatal for that
// unit's subtree only — already-registered candidates are left in place.
func (r *Registry) Register(unit *pluginapi.CandidateUnit) error {
	if err := unit.Manifest.Validate(); err != nil {
		return oops.Code("PLUGIN_INVALID_MANIFEST").With("identifier", unit.Identifier().String()).Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(unit)
}

func (r *Registry) registerLocked(unit *pluginapi.CandidateUnit) error {
	id := unit.Identifier()
	if _, exists := r.units[id]; exists {
		return oops.Code("PLUGIN_DUPLICATE_IDENTIFIER").
			With("identifier", id.String()).
			Errorf("a candidate with identifier %s is already registered", id)
	}
	r.units[id] = unit

	children, err := pluginapi.ExpandChildren(unit.Manifest)
	if err != nil {
		return oops.Code("PLUGIN_INVALID_MANIFEST").With("identifier", id.String()).Wrap(err)
	}
	for _, child := range children {
		childUnit := &pluginapi.CandidateUnit{
			Manifest: child,
			Path:     unit.Path,
			IsCore:   unit.IsCore,
		}
		if err := r.registerLocked(childUnit); err != nil {
			return fmt.Errorf("registering sub-plugin %s of %s: %w", child.Identifier(), id, err)
		}
	}
	return nil
}

// Drain returns the full set of registered candidates, keyed by identifier.
// It is intended to be called once, by the resolver.
func (r *Registry) Drain() map[pluginapi.Identifier]*pluginapi.CandidateUnit {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.units
	r.units = make(map[pluginapi.Identifier]*pluginapi.CandidateUnit)
	return out
}

// Take removes and returns the single candidate registered under id, for the
// single-candidate load path. Every other pending candidate is left in
// place, unlike Drain.
func (r *Registry) Take(id pluginapi.Identifier) (*pluginapi.CandidateUnit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[id]
	if !ok {
		return nil, false
	}
	delete(r.units, id)
	return unit, true
}

// Len reports how many candidates are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.units)
}
