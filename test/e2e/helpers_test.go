// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

//go:build e2e

package e2e_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AerafalDev/Qosmos/internal/factory/native"
	"github.com/AerafalDev/Qosmos/internal/pluginsvc"
	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// recordingHooks is a Hooks implementation that appends its own identifier
// to a shared, mutex-guarded call log and can be told to fail a named stage,
// used to exercise fault isolation (scenario 6) without a real plugin.
type recordingHooks struct {
	id        string
	log       *callLog
	failStage string
}

func (h *recordingHooks) Setup(context.Context) error { return h.record("setup") }
func (h *recordingHooks) Start(context.Context) error { return h.record("start") }
func (h *recordingHooks) Stop(context.Context) error  { return h.record("stop") }

func (h *recordingHooks) record(stage string) error {
	h.log.add(h.id + ":" + stage)
	if h.failStage == stage {
		return errors.New(h.id + " " + stage + " failed")
	}
	return nil
}

// callLog is a concurrency-safe append-only log of "id:stage" entries.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (c *callLog) add(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

// harness bundles a Service with the native factory backing it, so each
// scenario can register plugins that fail or succeed on demand without a
// Lua interpreter or a subprocess.
type harness struct {
	svc       *pluginsvc.Service
	factory   *native.Factory
	log       *callLog
	ctorNames map[string]struct{}
}

func newHarness() *harness {
	f := native.New()
	return &harness{
		svc:       pluginsvc.New(f, nil),
		factory:   f,
		log:       &callLog{},
		ctorNames: make(map[string]struct{}),
	}
}

// unitOption mutates a manifest under construction by registerUnit.
type unitOption func(*pluginapi.Manifest)

func dependsOn(names ...string) unitOption {
	return func(m *pluginapi.Manifest) {
		m.Dependencies = mergeRanges(m.Dependencies, names)
	}
}

func optionallyDependsOn(names ...string) unitOption {
	return func(m *pluginapi.Manifest) {
		m.OptionalDependencies = mergeRanges(m.OptionalDependencies, names)
	}
}

func loadBefore(names ...string) unitOption {
	return func(m *pluginapi.Manifest) {
		m.LoadBefore = mergeRanges(m.LoadBefore, names)
	}
}

func mergeRanges(existing map[pluginapi.Identifier]pluginapi.VersionRange, names []string) map[pluginapi.Identifier]pluginapi.VersionRange {
	if existing == nil {
		existing = make(map[pluginapi.Identifier]pluginapi.VersionRange, len(names))
	}
	for _, name := range names {
		existing[pluginapi.Identifier{Group: "core", Name: name}] = pluginapi.VersionRange{}
	}
	return existing
}

// registerUnit registers a core candidate named name, shaped by opts.
// failStage, if non-empty, makes the constructed instance's hook for that
// stage return an error, for exercising fault isolation.
func (h *harness) registerUnit(name string, failStage string, opts ...unitOption) error {
	m := &pluginapi.Manifest{
		Group: "core",
		Name:  name,
		Main:  native.Scheme + name,
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, already := h.ctorNames[name]; !already {
		h.factory.Register(name, func(context.Context, *pluginapi.Manifest) (pluginapi.Hooks, error) {
			return &recordingHooks{id: name, log: h.log, failStage: failStage}, nil
		})
		h.ctorNames[name] = struct{}{}
	}
	return h.svc.Register(&pluginapi.CandidateUnit{Manifest: m, IsCore: true})
}

func mustIdentifier(group, name string) pluginapi.Identifier {
	id, err := pluginapi.NewIdentifier(group, name)
	if err != nil {
		panic(fmt.Sprintf("mustIdentifier(%q, %q): %v", group, name, err))
	}
	return id
}
