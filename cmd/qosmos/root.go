// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package main

import (
	"github.com/spf13/cobra"
)

// configFile is the global --config flag shared by every subcommand.
var configFile string

// NewRootCmd creates the root command for the Qosmos CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qosmos",
		Short: "Qosmos - plugin lifecycle and dependency resolution service",
		Long: `Qosmos discovers plugin manifests, resolves their load order from
declared dependencies, and drives them through setup, start, and shutdown.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}
