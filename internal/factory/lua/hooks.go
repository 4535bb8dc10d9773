// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package lua

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// hooks runs on_setup/on_start/on_stop globals from a script's source,
// loading the script fresh into a new sandboxed state for each call — Lua
// states are not safe to share across lifecycle calls that might race with
// a concurrent Stop, so statelessness between calls is simpler than pooling.
type hooks struct {
	code       string
	identifier string
	newState   func(context.Context) (*lua.LState, error)
}

func (h *hooks) Setup(ctx context.Context) error { return h.call(ctx, "on_setup") }
func (h *hooks) Start(ctx context.Context) error { return h.call(ctx, "on_start") }
func (h *hooks) Stop(ctx context.Context) error  { return h.call(ctx, "on_stop") }

func (h *hooks) call(ctx context.Context, global string) error {
	L, err := h.newState(ctx)
	if err != nil {
		return oops.Code("PLUGIN_HOOK_FAILED").With("identifier", h.identifier).With("stage", global).Wrap(err)
	}
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(h.code); err != nil {
		return oops.Code("PLUGIN_HOOK_FAILED").With("identifier", h.identifier).With("stage", global).Wrap(err)
	}

	fn := L.GetGlobal(global)
	if fn.Type() == lua.LTNil {
		return nil // absent hook is a no-op, not a failure
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return oops.Code("PLUGIN_HOOK_FAILED").With("identifier", h.identifier).With("stage", global).Wrap(err)
	}
	return nil
}
