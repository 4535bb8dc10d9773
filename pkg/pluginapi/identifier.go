// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package pluginapi defines the data model and consumed interfaces of the
// plugin lifecycle and dependency-resolution subsystem: identifiers,
// manifests, versions, lifecycle state, and the Logger/Hooks/InstanceFactory
// contracts external collaborators implement.
package pluginapi

import (
	"fmt"
	"strings"
)

// Identifier is a plugin's canonical address: a (group, name) pair. Two
// identifiers are equal iff both components match exactly, case-sensitive.
type Identifier struct {
	Group string
	Name  string
}

// NewIdentifier constructs an Identifier, rejecting empty components.
func NewIdentifier(group, name string) (Identifier, error) {
	if group == "" || name == "" {
		return Identifier{}, fmt.Errorf("identifier: group and name must both be non-empty (got %q, %q)", group, name)
	}
	return Identifier{Group: group, Name: name}, nil
}

// ParseIdentifier parses the canonical "group:name" textual form.
// Parsing fails if the string is empty or does not contain exactly one colon.
func ParseIdentifier(s string) (Identifier, error) {
	if s == "" {
		return Identifier{}, fmt.Errorf("identifier: empty string")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Identifier{}, fmt.Errorf("identifier: %q must have exactly one colon, got %d", s, len(parts)-1)
	}
	return NewIdentifier(parts[0], parts[1])
}

// String renders the canonical "group:name" form.
func (id Identifier) String() string {
	return id.Group + ":" + id.Name
}

// IsZero reports whether id is the zero value (unset).
func (id Identifier) IsZero() bool {
	return id.Group == "" && id.Name == ""
}
