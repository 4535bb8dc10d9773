// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package native constructs plugin instances from Hooks constructors
// registered in-process, for core units and first-party plugins compiled
// directly into the host binary.
package native

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Scheme is the Main-descriptor prefix that routes to this factory, e.g.
// "native:core-engine" looks up the constructor registered under "core-engine".
const Scheme = "native:"

// Constructor builds a Hooks implementation for one registered name.
type Constructor func(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error)

// Factory resolves Main descriptors against a registry of in-process
// constructors populated at program startup via Register.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// New creates an empty native factory.
func New() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register associates name with a constructor. Registering the same name
// twice is a programmer error and panics, mirroring how init-time registries
// in the rest of the ecosystem (database/sql drivers, encoding codecs)
// reject duplicate registration rather than silently overwriting it.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.constructors[name]; exists {
		panic("native: constructor already registered for " + name)
	}
	f.constructors[name] = ctor
}

// New implements pluginapi.InstanceFactory.
func (f *Factory) New(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error) {
	name := strings.TrimPrefix(m.Main, Scheme)
	f.mu.RLock()
	ctor, ok := f.constructors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").Errorf("native: no constructor registered for %q", name)
	}
	return ctor(ctx, m)
}
