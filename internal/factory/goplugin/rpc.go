// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package goplugin

import (
	"context"
	"fmt"
	"net/rpc"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// rpcServer runs inside the plugin subprocess and dispatches net/rpc calls
// to the real Hooks implementation. net/rpc carries no context, so calls
// run with context.Background() — a subprocess hook has no way to observe
// the host's request-scoped cancellation anyway, only process-level kill.
type rpcServer struct {
	impl pluginapi.Hooks
}

func (s *rpcServer) Setup(_ *hooksArgs, _ *hooksReply) error {
	return s.impl.Setup(context.Background())
}

func (s *rpcServer) Start(_ *hooksArgs, _ *hooksReply) error {
	return s.impl.Start(context.Background())
}

func (s *rpcServer) Stop(_ *hooksArgs, _ *hooksReply) error {
	return s.impl.Stop(context.Background())
}

// rpcClient runs inside the host process and implements pluginapi.Hooks by
// forwarding each call over net/rpc, honoring ctx cancellation even though
// the in-flight RPC itself cannot be aborted mid-call.
type rpcClient struct {
	client *rpc.Client
}

var _ pluginapi.Hooks = (*rpcClient)(nil)

func (c *rpcClient) Setup(ctx context.Context) error { return c.call(ctx, "Plugin.Setup") }
func (c *rpcClient) Start(ctx context.Context) error { return c.call(ctx, "Plugin.Start") }
func (c *rpcClient) Stop(ctx context.Context) error  { return c.call(ctx, "Plugin.Stop") }

func (c *rpcClient) call(ctx context.Context, method string) error {
	var reply hooksReply
	done := c.client.Go(method, &hooksArgs{}, &reply, nil).Done

	select {
	case call := <-done:
		if call.Error != nil {
			return fmt.Errorf("goplugin: %s: %w", method, call.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
