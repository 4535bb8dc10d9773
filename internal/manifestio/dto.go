// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package manifestio loads plugin.yaml manifests from disk and converts
// between their YAML wire shape and pluginapi.Manifest.
package manifestio

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// dependencyDTO is one entry of the dependencies/optionalDependencies maps
// in plugin.yaml: an identifier string to a semver range string.
type dependencyDTO = map[string]string

// dto is the literal YAML shape of plugin.yaml. Field names are chosen to
// match the wire format; conversion to pluginapi.Manifest happens in toDomain.
type dto struct {
	Group       string   `yaml:"group"`
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Website     string   `yaml:"website,omitempty"`
	Authors     []string `yaml:"authors,omitempty"`
	Main        string   `yaml:"main,omitempty"`

	ServerVersion string `yaml:"serverVersion,omitempty"`

	Dependencies         dependencyDTO `yaml:"dependencies,omitempty"`
	OptionalDependencies dependencyDTO `yaml:"optionalDependencies,omitempty"`
	LoadBefore           dependencyDTO `yaml:"loadBefore,omitempty"`

	SubPlugins []dto `yaml:"subPlugins,omitempty"`

	DisabledByDefault bool `yaml:"disabledByDefault,omitempty"`
	IncludesAssetPack bool `yaml:"includesAssetPack,omitempty"`
}

// Parse unmarshals raw plugin.yaml bytes into a pluginapi.Manifest. It does
// not call Manifest.Validate — callers validate once the manifest is in
// hand, typically right before registration.
func Parse(data []byte) (*pluginapi.Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifestio: manifest data is empty")
	}
	var d dto
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("manifestio: invalid YAML: %w", err)
	}
	return d.toDomain()
}

func (d dto) toDomain() (*pluginapi.Manifest, error) {
	version, err := pluginapi.ParseVersion(d.Version)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: %w", d.Name, err)
	}
	serverVersion, err := pluginapi.ParseVersionRange(d.ServerVersion)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: serverVersion: %w", d.Name, err)
	}

	deps, err := toIdentifierRangeMap(d.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: dependencies: %w", d.Name, err)
	}
	optDeps, err := toIdentifierRangeMap(d.OptionalDependencies)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: optionalDependencies: %w", d.Name, err)
	}
	loadBefore, err := toIdentifierRangeMap(d.LoadBefore)
	if err != nil {
		return nil, fmt.Errorf("manifestio: %s: loadBefore: %w", d.Name, err)
	}

	var subPlugins []*pluginapi.Manifest
	for _, childDTO := range d.SubPlugins {
		child, err := childDTO.toDomain()
		if err != nil {
			return nil, err
		}
		subPlugins = append(subPlugins, child)
	}

	return &pluginapi.Manifest{
		Group:                d.Group,
		Name:                 d.Name,
		Version:              version,
		Description:          d.Description,
		Website:              d.Website,
		Authors:              d.Authors,
		Main:                 d.Main,
		ServerVersion:        serverVersion,
		Dependencies:         deps,
		OptionalDependencies: optDeps,
		LoadBefore:           loadBefore,
		SubPlugins:           subPlugins,
		DisabledByDefault:    d.DisabledByDefault,
		IncludesAssetPack:    d.IncludesAssetPack,
	}, nil
}

func toIdentifierRangeMap(src dependencyDTO) (map[pluginapi.Identifier]pluginapi.VersionRange, error) {
	if len(src) == 0 {
		return nil, nil
	}
	out := make(map[pluginapi.Identifier]pluginapi.VersionRange, len(src))
	for raw, rangeExpr := range src {
		id, err := pluginapi.ParseIdentifier(raw)
		if err != nil {
			return nil, err
		}
		rng, err := pluginapi.ParseVersionRange(rangeExpr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw, err)
		}
		out[id] = rng
	}
	return out, nil
}
