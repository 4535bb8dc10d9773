// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package lifecycle drives a resolved load order through the Setup, Start,
// and Stop passes of spec.md §4.4, gating each unit on the lifecycle state
// of its hard dependencies and isolating hook panics as ordinary failures.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Outcome records what happened to one instance during a pass.
type Outcome struct {
	Instance *pluginapi.Instance
	Err      error
}

// Engine drives instances through their lifecycle hooks in a fixed order.
// It holds no state of its own beyond the instances it is handed per call —
// the caller (internal/pluginsvc) owns the instance set and its ordering.
type Engine struct{}

// New creates a lifecycle engine.
func New() *Engine {
	return &Engine{}
}

// Setup runs Hooks.Setup on each instance in order, skipping (and marking
// Disabled) any instance whose hard dependency failed to reach at least
// Setup. Successful instances transition to StateSetup.
func (e *Engine) Setup(ctx context.Context, ordered []*pluginapi.Instance) []Outcome {
	return e.runPass(ctx, ordered, "setup", pluginapi.StateSetup, func(inst *pluginapi.Instance) error {
		return inst.Hooks.Setup(ctx)
	})
}

// Start runs Hooks.Start on each instance already in StateSetup, gating on
// hard dependencies having already reached StateEnabled. Successful
// instances transition to StateEnabled (spec.md §4.4: Start completing is
// the boundary at which a unit becomes Enabled).
func (e *Engine) Start(ctx context.Context, ordered []*pluginapi.Instance) []Outcome {
	return e.runPass(ctx, ordered, "start", pluginapi.StateEnabled, func(inst *pluginapi.Instance) error {
		if inst.State() != pluginapi.StateSetup {
			return fmt.Errorf("instance %s is not in setup state", inst.Manifest.Identifier())
		}
		return inst.Hooks.Start(ctx)
	})
}

// Stop runs Hooks.Stop on each instance in the given order (callers pass
// reverse-load order for a full shutdown). Stop is best-effort: failures are
// collected but do not prevent later instances in the slice from stopping.
func (e *Engine) Stop(ctx context.Context, ordered []*pluginapi.Instance) []Outcome {
	outcomes := make([]Outcome, 0, len(ordered))
	for _, inst := range ordered {
		if inst.State().IsDisabled() {
			outcomes = append(outcomes, Outcome{Instance: inst})
			continue
		}
		err := invoke(func() error { return inst.Hooks.Stop(ctx) })
		if err == nil {
			inst.SetState(pluginapi.StateShutdown)
		}
		outcomes = append(outcomes, Outcome{Instance: inst, Err: err})
	}
	return outcomes
}

// depsSatisfied reports whether every hard dependency of inst (among those
// present in byID) has already reached minState.
func depsSatisfied(inst *pluginapi.Instance, byID map[pluginapi.Identifier]*pluginapi.Instance, minState pluginapi.State) (pluginapi.Identifier, bool) {
	for dep := range inst.Manifest.Dependencies {
		depInst, ok := byID[dep]
		if !ok {
			continue // absence was already fatal at resolve time
		}
		if depInst.State() < minState {
			return dep, false
		}
	}
	return pluginapi.Identifier{}, true
}

func (e *Engine) runPass(
	ctx context.Context,
	ordered []*pluginapi.Instance,
	stage string,
	onSuccess pluginapi.State,
	hook func(*pluginapi.Instance) error,
) []Outcome {
	byID := make(map[pluginapi.Identifier]*pluginapi.Instance, len(ordered))
	for _, inst := range ordered {
		byID[inst.Manifest.Identifier()] = inst
	}

	outcomes := make([]Outcome, 0, len(ordered))
	for _, inst := range ordered {
		// Already-failed instances, and instances already at or past the
		// state this pass produces, are passed through without a hook call.
		if s := inst.State(); s == pluginapi.StateDisabled || s >= onSuccess {
			outcomes = append(outcomes, Outcome{Instance: inst})
			continue
		}

		if blockingDep, ok := depsSatisfied(inst, byID, minStateForStage(stage)); !ok {
			inst.SetState(pluginapi.StateDisabled)
			err := oops.Code("PLUGIN_INVALID_STATE").
				With("stage", stage).
				With("identifier", inst.Manifest.Identifier().String()).
				With("dependency", blockingDep.String()).
				Errorf("dependency %s has not reached the required state for %s", blockingDep, stage)
			outcomes = append(outcomes, Outcome{Instance: inst, Err: err})
			continue
		}

		if ctx.Err() != nil {
			inst.SetState(pluginapi.StateDisabled)
			outcomes = append(outcomes, Outcome{Instance: inst, Err: ctx.Err()})
			continue
		}

		err := invoke(func() error { return hook(inst) })
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			inst.SetState(pluginapi.StateDisabled)
			outcomes = append(outcomes, Outcome{Instance: inst, Err: oops.Code("PLUGIN_HOOK_FAILED").
				With("stage", stage).
				With("identifier", inst.Manifest.Identifier().String()).
				Wrap(err)})
			continue
		}

		inst.SetState(onSuccess)
		outcomes = append(outcomes, Outcome{Instance: inst})
	}
	return outcomes
}

func minStateForStage(stage string) pluginapi.State {
	if stage == "start" {
		return pluginapi.StateEnabled
	}
	return pluginapi.StateSetup
}

// invoke calls fn, converting a panic into an error so that one unit's
// defective hook cannot bring down the whole pass.
func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("PLUGIN_HOOK_PANIC").Errorf("hook panicked: %v", r)
		}
	}()
	return fn()
}
