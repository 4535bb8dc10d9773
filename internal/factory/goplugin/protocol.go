// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package goplugin runs plugin instances as isolated subprocesses over
// HashiCorp go-plugin's net/rpc transport. The wire contract is a plain Go
// interface dispensed through net/rpc rather than a generated gRPC service:
// it needs no code generation step and keeps the subprocess boundary to the
// same three Setup/Start/Stop calls the in-process Hooks interface exposes.
package goplugin

import (
	hashiplug "github.com/hashicorp/go-plugin"
)

// HandshakeConfig is shared by host and plugin binaries to reject
// accidental cross-version or cross-protocol connections.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "QOSMOS_PLUGIN",
	MagicCookieValue: "a4e1c9f3-binary-plugin",
}

// PluginMap is the single named plugin every binary plugin dispenses,
// matching the "plugin" key both sides agree on.
var PluginMap = map[string]hashiplug.Plugin{
	"plugin": &HooksPlugin{},
}

// hooksArgs/hooksReply are net/rpc's required request/response pair; the
// lifecycle calls carry no payload beyond success/failure, so both sides
// are empty structs.
type hooksArgs struct{}
type hooksReply struct{}
