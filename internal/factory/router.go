// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package factory composes the native, Lua, and subprocess instance
// factories into the single pluginapi.InstanceFactory the service façade
// is constructed with, dispatching on the manifest's Main descriptor scheme.
package factory

import (
	"context"

	"github.com/samber/oops"

	goplugin "github.com/AerafalDev/Qosmos/internal/factory/goplugin"
	luafactory "github.com/AerafalDev/Qosmos/internal/factory/lua"
	nativefactory "github.com/AerafalDev/Qosmos/internal/factory/native"
	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Router dispatches InstanceFactory.New by the Main descriptor's scheme
// prefix: "native:", "lua:", or "exec:".
type Router struct {
	Native *nativefactory.Factory
	Lua    *luafactory.Factory
	Exec   *goplugin.Factory
}

var _ pluginapi.InstanceFactory = (*Router)(nil)

// New implements pluginapi.InstanceFactory.
func (r *Router) New(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error) {
	switch {
	case hasScheme(m.Main, nativefactory.Scheme):
		if r.Native == nil {
			return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").Errorf("router: no native factory configured for %s", m.Identifier())
		}
		return r.Native.New(ctx, m)
	case hasScheme(m.Main, luafactory.Scheme):
		if r.Lua == nil {
			return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").Errorf("router: no lua factory configured for %s", m.Identifier())
		}
		return r.Lua.New(ctx, m)
	case hasScheme(m.Main, goplugin.Scheme):
		if r.Exec == nil {
			return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").Errorf("router: no exec factory configured for %s", m.Identifier())
		}
		return r.Exec.New(ctx, m)
	default:
		return nil, oops.Code("PLUGIN_INVALID_MANIFEST").Errorf("router: %s: unrecognized main descriptor %q", m.Identifier(), m.Main)
	}
}

func hasScheme(main, scheme string) bool {
	return len(main) >= len(scheme) && main[:len(scheme)] == scheme
}
