// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package manifestio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// ManifestFileName is the conventional manifest file name inside a plugin
// directory.
const ManifestFileName = "plugin.yaml"

// LoadDir reads and parses the plugin.yaml in dir, returning a candidate
// unit whose Path is dir. isCore marks whether the result should be treated
// as a core unit for resolver ordering purposes.
func LoadDir(dir string, isCore bool) (*pluginapi.CandidateUnit, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName)) //nolint:gosec // dir is operator-provided, not request-derived
	if err != nil {
		return nil, fmt.Errorf("manifestio: reading %s: %w", dir, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: %w", dir, err)
	}
	m.IsCore = isCore
	return &pluginapi.CandidateUnit{Manifest: m, Path: dir, IsCore: isCore}, nil
}

// Discover walks pluginsDir for immediate subdirectories containing a
// plugin.yaml, returning one candidate unit per discovered manifest.
// Subdirectories without a manifest, or with one that fails to parse, are
// skipped and reported via onSkip rather than failing the whole scan — this
// mirrors the graceful degradation a plugin host needs when one broken
// plugin directory should not block every other plugin from loading.
func Discover(pluginsDir string, onSkip func(dir string, err error)) ([]*pluginapi.CandidateUnit, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("manifestio: reading plugins directory %s: %w", pluginsDir, err)
	}

	var units []*pluginapi.CandidateUnit
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(pluginsDir, entry.Name())
		unit, err := LoadDir(dir, false)
		if err != nil {
			if onSkip != nil {
				onSkip(dir, err)
			}
			continue
		}
		units = append(units, unit)
	}
	return units, nil
}
