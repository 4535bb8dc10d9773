// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package goplugin

import (
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// HooksPlugin adapts a pluginapi.Hooks implementation to go-plugin's
// net/rpc transport. Impl is set on the plugin-subprocess side only; the
// host side only ever calls Client.
type HooksPlugin struct {
	Impl pluginapi.Hooks
}

// Server is called inside the plugin subprocess to expose Impl over net/rpc.
func (p *HooksPlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

// Client is called inside the host process to wrap the dispensed net/rpc
// client as a pluginapi.Hooks.
func (p *HooksPlugin) Client(_ *hashiplug.MuxBroker, client *rpc.Client) (interface{}, error) {
	return &rpcClient{client: client}, nil
}
