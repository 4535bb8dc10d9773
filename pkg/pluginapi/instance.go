// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

import "sync/atomic"

// Instance is a lifecycle-bearing object created from a candidate. Its
// identity equals its manifest identifier; the manifest itself is never
// modified once the instance exists.
type Instance struct {
	Manifest *Manifest
	ID       Identifier
	Logger   Logger
	Hooks    Hooks

	state atomic.Int64
}

// NewInstance constructs an Instance in State None.
func NewInstance(manifest *Manifest, logger Logger, hooks Hooks) *Instance {
	return &Instance{
		Manifest: manifest,
		ID:       manifest.Identifier(),
		Logger:   logger,
		Hooks:    hooks,
	}
}

// State returns the instance's current lifecycle state.
func (p *Instance) State() State {
	return State(p.state.Load())
}

// SetState mutates the instance's lifecycle state. Only the lifecycle
// engine (internal/lifecycle) is expected to call this; it is exported so
// that package lives outside pluginapi without import cycles.
func (p *Instance) SetState(s State) {
	p.state.Store(int64(s))
}
