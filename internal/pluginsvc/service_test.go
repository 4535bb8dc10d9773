// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginsvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AerafalDev/Qosmos/internal/pluginsvc"
	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any)           {}
func (noopLogger) Info(string, ...any)            {}
func (noopLogger) Warn(string, ...any)            {}
func (noopLogger) Error(string, ...any)           {}
func (n noopLogger) With(...any) pluginapi.Logger { return n }

type noopHooks struct{}

func (noopHooks) Setup(context.Context) error { return nil }
func (noopHooks) Start(context.Context) error { return nil }
func (noopHooks) Stop(context.Context) error  { return nil }

type fakeFactory struct{}

func (fakeFactory) New(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error) {
	return noopHooks{}, nil
}

func unit(group, name string, deps ...pluginapi.Identifier) *pluginapi.CandidateUnit {
	m := &pluginapi.Manifest{Group: group, Name: name}
	if len(deps) > 0 {
		m.Dependencies = make(map[pluginapi.Identifier]pluginapi.VersionRange, len(deps))
		for _, d := range deps {
			m.Dependencies[d] = pluginapi.VersionRange{}
		}
	}
	return &pluginapi.CandidateUnit{Manifest: m}
}

func TestService_RegisterAndLoadAllEnablesInstances(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))

	require.NoError(t, svc.LoadAll(context.Background()))

	id, _ := pluginapi.NewIdentifier("core", "a")
	inst, ok := svc.Instance(id)
	require.True(t, ok)
	assert.Equal(t, pluginapi.StateEnabled, inst.State())
}

func TestService_LoadAllIsIncremental(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	require.NoError(t, svc.Register(unit("core", "b")))
	require.NoError(t, svc.LoadAll(context.Background()))

	idA, _ := pluginapi.NewIdentifier("core", "a")
	idB, _ := pluginapi.NewIdentifier("core", "b")
	instA, _ := svc.Instance(idA)
	instB, _ := svc.Instance(idB)
	assert.Equal(t, pluginapi.StateEnabled, instA.State())
	assert.Equal(t, pluginapi.StateEnabled, instB.State())
}

func TestService_UnloadRejectsWhenLiveDependentExists(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.Register(unit("core", "b", idA)))
	require.NoError(t, svc.LoadAll(context.Background()))

	err := svc.Unload(context.Background(), idA)
	assert.Error(t, err)
}

func TestService_UnloadSucceedsWhenNoDependents(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	require.NoError(t, svc.Unload(context.Background(), idA))
	_, ok := svc.Instance(idA)
	assert.False(t, ok)
}

func TestService_ShutdownStopsEveryInstance(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.Register(unit("core", "b")))
	require.NoError(t, svc.LoadAll(context.Background()))

	outcomes := svc.Shutdown(context.Background())
	assert.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
	}

	idA, _ := pluginapi.NewIdentifier("core", "a")
	_, ok := svc.Instance(idA)
	assert.False(t, ok, "shutdown clears the instance set")
}

func TestService_ShutdownOrderIsReverseOfLoadOrder(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.Register(unit("core", "b", idA)))
	require.NoError(t, svc.LoadAll(context.Background()))

	// b depends on a, so load order is [a, b]; shutdown order must be [b, a].
	outcomes := svc.Shutdown(context.Background())
	require.Len(t, outcomes, 2)
	assert.Equal(t, "core:b", outcomes[0].Instance.Manifest.Identifier().String())
	assert.Equal(t, "core:a", outcomes[1].Instance.Manifest.Identifier().String())
}

func TestService_LoadAllBeforeRegisterIsNoop(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.LoadAll(context.Background()))
	require.NoError(t, svc.LoadAll(context.Background()))
}

func TestService_LoadAllAfterShutdownIsRejected(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))
	svc.Shutdown(context.Background())

	err := svc.LoadAll(context.Background())
	assert.Error(t, err, "the service state must not permit loading again after a full shutdown")
}

func TestService_LoadBeforeAnyLoadAllIsRejected(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))

	_, err := svc.Load(context.Background(), idA)
	assert.Error(t, err, "Load requires the service to have completed at least one LoadAll pass")
}

func TestService_LoadSingleCandidateAfterLoadAll(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	idB, _ := pluginapi.NewIdentifier("core", "b")
	require.NoError(t, svc.Register(unit("core", "b")))

	ok, err := svc.Load(context.Background(), idB)
	require.NoError(t, err)
	assert.True(t, ok)

	inst, found := svc.Instance(idB)
	require.True(t, found)
	assert.Equal(t, pluginapi.StateEnabled, inst.State())
}

func TestService_LoadRejectsWhenHardDependencyNotLive(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	idA, _ := pluginapi.NewIdentifier("core", "a")
	idC, _ := pluginapi.NewIdentifier("core", "c")
	require.NoError(t, svc.Unload(context.Background(), idA))
	require.NoError(t, svc.Register(unit("core", "c", idA)))

	ok, err := svc.Load(context.Background(), idC)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestService_ReloadRoundTrips(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	ok, err := svc.Reload(context.Background(), idA)
	require.NoError(t, err)
	assert.True(t, ok)

	inst, found := svc.Instance(idA)
	require.True(t, found)
	assert.Equal(t, pluginapi.StateEnabled, inst.State())
}

func TestService_ReloadRejectsWhenLiveDependentExists(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.Register(unit("core", "b", idA)))
	require.NoError(t, svc.LoadAll(context.Background()))

	ok, err := svc.Reload(context.Background(), idA)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestService_HasPluginChecksVersionRange(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	a := unit("core", "a")
	a.Manifest.Version, _ = pluginapi.ParseVersion("1.2.0")
	require.NoError(t, svc.Register(a))
	require.NoError(t, svc.LoadAll(context.Background()))

	idA, _ := pluginapi.NewIdentifier("core", "a")
	satisfied, _ := pluginapi.ParseVersionRange(">=1.0.0")
	unsatisfied, _ := pluginapi.ParseVersionRange(">=2.0.0")

	assert.True(t, svc.HasPlugin(idA, satisfied))
	assert.False(t, svc.HasPlugin(idA, unsatisfied))

	idMissing, _ := pluginapi.NewIdentifier("core", "missing")
	assert.False(t, svc.HasPlugin(idMissing, pluginapi.VersionRange{}))
}

func TestService_GetPluginErrorsWhenAbsent(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	idA, _ := pluginapi.NewIdentifier("core", "a")

	_, err := svc.GetPlugin(idA)
	assert.Error(t, err)
}

func TestService_GetPluginsListsEveryLiveInstanceInIDOrder(t *testing.T) {
	svc := pluginsvc.New(fakeFactory{}, noopLogger{})
	require.NoError(t, svc.Register(unit("core", "b")))
	require.NoError(t, svc.Register(unit("core", "a")))
	require.NoError(t, svc.LoadAll(context.Background()))

	plugins := svc.GetPlugins()
	require.Len(t, plugins, 2)
	assert.Equal(t, "core:a", plugins[0].Manifest.Identifier().String())
	assert.Equal(t, "core:b", plugins[1].Manifest.Identifier().String())
}
