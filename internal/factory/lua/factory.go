// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package lua

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Scheme is the Main-descriptor prefix that routes to this factory, e.g.
// "lua:greeter/greeter.lua" names greeter/greeter.lua relative to baseDir.
const Scheme = "lua:"

// Factory constructs pluginapi.Hooks that run a plugin's entry script in a
// fresh sandboxed state per lifecycle call. baseDir roots relative entry paths.
type Factory struct {
	baseDir  string
	newState func(context.Context) (*lua.LState, error)
}

// New creates a Lua instance factory rooted at baseDir (normally the
// plugins directory the manifest was discovered under).
func New(baseDir string) *Factory {
	sf := NewStateFactory()
	return &Factory{baseDir: baseDir, newState: sf.NewState}
}

// New implements pluginapi.InstanceFactory.
func (f *Factory) New(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error) {
	entry := strings.TrimPrefix(m.Main, Scheme)
	if entry == "" {
		return nil, oops.Code("PLUGIN_INVALID_MANIFEST").Errorf("lua: empty entry path in main %q", m.Main)
	}
	path := filepath.Join(f.baseDir, entry)

	code, err := os.ReadFile(filepath.Clean(path)) //nolint:gosec // path is derived from operator-provided manifests
	if err != nil {
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("path", path).Wrap(err)
	}

	// Validate syntax eagerly so a broken script fails at construction,
	// before any lifecycle hook is invoked.
	L, err := f.newState(ctx)
	if err != nil {
		return nil, fmt.Errorf("lua: %s: creating validation state: %w", m.Identifier(), err)
	}
	defer L.Close()
	if err := L.DoString(string(code)); err != nil {
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("identifier", m.Identifier().String()).Hint("syntax error").Wrap(err)
	}

	return &hooks{code: string(code), newState: f.newState, identifier: m.Identifier().String()}, nil
}
