// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

// CandidateUnit is a manifest plus its origin information, registered
// before resolution. The resource path is empty for core units.
type CandidateUnit struct {
	Manifest *Manifest
	Path     string
	IsCore   bool
}

// Identifier is a convenience accessor for the candidate's manifest identifier.
func (c *CandidateUnit) Identifier() Identifier {
	return c.Manifest.Identifier()
}
