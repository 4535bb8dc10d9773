// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/AerafalDev/Qosmos/internal/schema"
)

// NewSchemaCmd creates the schema subcommand, which prints the JSON Schema
// for plugin.yaml so editors and CI linters can validate against it.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin.yaml JSON Schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := schema.Generate()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
