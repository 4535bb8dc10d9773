// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Command echo is a sample subprocess plugin launched over go-plugin's
// net/rpc transport. It logs each lifecycle call to stderr so an operator
// can see the subprocess actually being driven through Setup/Start/Stop.
package main

import (
	"context"
	"log"

	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/AerafalDev/Qosmos/internal/factory/goplugin"
)

type echoHooks struct{}

func (echoHooks) Setup(context.Context) error {
	log.Println("echo: setup")
	return nil
}

func (echoHooks) Start(context.Context) error {
	log.Println("echo: start")
	return nil
}

func (echoHooks) Stop(context.Context) error {
	log.Println("echo: stop")
	return nil
}

func main() {
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: goplugin.HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			"plugin": &goplugin.HooksPlugin{Impl: echoHooks{}},
		},
	})
}
