// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AerafalDev/Qosmos/internal/manifestio"
	"github.com/AerafalDev/Qosmos/internal/schema"
)

// NewValidateCmd creates the validate subcommand, which checks a plugin.yaml
// file against both the JSON Schema and the domain-level Manifest.Validate
// invariants, without constructing or running anything.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plugin.yaml>",
		Short: "Validate a plugin manifest file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			if err := schema.Validate(data); err != nil {
				return fmt.Errorf("%s: %s", args[0], schema.FormatError(err))
			}

			m, err := manifestio.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := m.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			cmd.Printf("%s: valid (%s)\n", args[0], m.Identifier())
			return nil
		},
	}
}
