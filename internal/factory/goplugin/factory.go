// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package goplugin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Scheme is the Main-descriptor prefix that routes to this factory, e.g.
// "exec:plugins/echo/echo" names a subprocess binary relative to baseDir.
const Scheme = "exec:"

// dialTimeout bounds how long New waits for the subprocess to complete its
// go-plugin handshake before giving up.
const dialTimeout = 10 * time.Second

// ClientFactory creates go-plugin clients; overridable in tests so they do
// not have to fork a real subprocess.
type ClientFactory func(execPath string) Client

// Client is the subset of *hashiplug.Client the factory depends on.
type Client interface {
	Client() (hashiplug.ClientProtocol, error)
	Kill()
}

// Factory constructs pluginapi.Hooks backed by a subprocess binary,
// launched and supervised via go-plugin.
type Factory struct {
	baseDir   string
	newClient ClientFactory
	mu        sync.Mutex
	processes map[string]Client // identifier -> live client, for Close/diagnostics
}

// New creates a subprocess instance factory rooted at baseDir.
func New(baseDir string) *Factory {
	return NewWithClientFactory(baseDir, func(execPath string) Client {
		return hashiplug.NewClient(&hashiplug.ClientConfig{
			HandshakeConfig:  HandshakeConfig,
			Plugins:          PluginMap,
			Cmd:              exec.Command(execPath), //nolint:gosec // execPath resolved from an operator-provided manifest
			AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
		})
	})
}

// NewWithClientFactory creates a subprocess instance factory using a custom
// ClientFactory, for substituting a fake go-plugin client in tests.
func NewWithClientFactory(baseDir string, newClient ClientFactory) *Factory {
	return &Factory{
		baseDir:   baseDir,
		newClient: newClient,
		processes: make(map[string]Client),
	}
}

// New implements pluginapi.InstanceFactory: it launches the subprocess
// named by the manifest's Main descriptor and returns a Hooks that proxies
// lifecycle calls to it over net/rpc.
func (f *Factory) New(ctx context.Context, m *pluginapi.Manifest) (pluginapi.Hooks, error) {
	relPath := strings.TrimPrefix(m.Main, Scheme)
	if relPath == "" {
		return nil, oops.Code("PLUGIN_INVALID_MANIFEST").Errorf("goplugin: empty executable path in main %q", m.Main)
	}
	execPath := filepath.Join(f.baseDir, relPath)
	if _, err := os.Stat(execPath); err != nil {
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("path", execPath).Wrap(err)
	}

	client := f.newClient(execPath)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	backoff := retry.NewExponential(50 * time.Millisecond)
	backoff = retry.WithMaxRetries(5, backoff)

	var protocol hashiplug.ClientProtocol
	err := retry.Do(dialCtx, backoff, func(ctx context.Context) error {
		p, err := client.Client()
		if err != nil {
			return retry.RetryableError(err)
		}
		protocol = p
		return nil
	})
	if err != nil {
		client.Kill()
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("identifier", m.Identifier().String()).Wrap(err)
	}

	raw, err := protocol.Dispense("plugin")
	if err != nil {
		client.Kill()
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("identifier", m.Identifier().String()).Wrap(err)
	}
	hooks, ok := raw.(pluginapi.Hooks)
	if !ok {
		client.Kill()
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").Errorf("goplugin: %s: dispensed value does not implement Hooks", m.Identifier())
	}

	f.mu.Lock()
	f.processes[m.Identifier().String()] = client
	f.mu.Unlock()

	return &supervisedHooks{inner: hooks, kill: client.Kill}, nil
}

// Close kills every subprocess this factory has launched. Call it during
// service shutdown after Stop hooks have run, so a misbehaving subprocess
// that ignores Stop is still reaped.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, client := range f.processes {
		client.Kill()
		delete(f.processes, id)
	}
}

// supervisedHooks wraps the dispensed Hooks so that a failed Stop still
// kills the subprocess rather than leaking it.
type supervisedHooks struct {
	inner pluginapi.Hooks
	kill  func()
}

func (h *supervisedHooks) Setup(ctx context.Context) error { return h.inner.Setup(ctx) }
func (h *supervisedHooks) Start(ctx context.Context) error { return h.inner.Start(ctx) }

func (h *supervisedHooks) Stop(ctx context.Context) error {
	err := h.inner.Stop(ctx)
	h.kill()
	if err != nil {
		return fmt.Errorf("goplugin: stop: %w", err)
	}
	return nil
}
