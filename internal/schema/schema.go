// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package schema generates and validates the JSON Schema for plugin.yaml,
// reflected off the manifest DTO rather than the domain pluginapi.Manifest
// so the generated schema matches the wire shape operators actually write.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// manifestDoc mirrors manifestio's internal dto shape for reflection
// purposes. jsonschema.Reflector needs exported fields, and manifestio's
// dto is intentionally unexported, so the shape is restated here; the two
// are kept in sync by the shared field set in SPEC_FULL.md §3.
type manifestDoc struct {
	Group       string   `yaml:"group" jsonschema:"required"`
	Name        string   `yaml:"name" jsonschema:"required,pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$"`
	Version     string   `yaml:"version,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Website     string   `yaml:"website,omitempty"`
	Authors     []string `yaml:"authors,omitempty"`
	Main        string   `yaml:"main,omitempty"`

	ServerVersion string `yaml:"serverVersion,omitempty"`

	Dependencies         map[string]string `yaml:"dependencies,omitempty"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies,omitempty"`
	LoadBefore           map[string]string `yaml:"loadBefore,omitempty"`

	SubPlugins []manifestDoc `yaml:"subPlugins,omitempty"`

	DisabledByDefault bool `yaml:"disabledByDefault,omitempty"`
	IncludesAssetPack bool `yaml:"includesAssetPack,omitempty"`
}

const schemaID = "https://qosmos.dev/schemas/plugin.schema.json"

var (
	cacheMu sync.Mutex
	cache   *jschema.Schema
)

// Generate produces the JSON Schema document for plugin.yaml.
func Generate() ([]byte, error) {
	r := jsonschema.Reflector{FieldNameTag: "yaml"}
	s := r.Reflect(&manifestDoc{})
	s.ID = jsonschema.ID(schemaID)
	s.Title = "Qosmos Plugin Manifest"
	s.Description = "Schema for plugin.yaml manifest files"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}
	return data, nil
}

// Validate checks raw plugin.yaml bytes against the generated schema,
// independent of (and prior to) manifestio's domain conversion — a
// manifest can fail schema validation (wrong types, missing required
// fields) before manifestio ever gets a chance to construct an Identifier.
func Validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("schema: manifest data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return fmt.Errorf("schema: invalid YAML: %w", err)
	}
	jsonData := toJSONTypes(yamlData)

	compiled, err := compiled()
	if err != nil {
		return fmt.Errorf("schema: compile: %w", err)
	}
	if err := compiled.Validate(jsonData); err != nil {
		return fmt.Errorf("schema: validation failed: %w", err)
	}
	return nil
}

func compiled() (*jschema.Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	raw, err := Generate()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse generated schema: %w", err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	cache = sch
	return sch, nil
}

// ResetCache clears the compiled-schema cache. Exported for tests that
// exercise Generate/Validate repeatedly against different inputs.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = nil
}

func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = toJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = toJSONTypes(v)
		}
		return result
	default:
		if b, err := json.Marshal(val); err == nil {
			var out any
			if err := json.Unmarshal(b, &out); err == nil {
				return out
			}
		}
		return val
	}
}

// FormatError strips the schema package's own error-wrapping prefix for
// display in CLI output.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const prefix = "schema: validation failed: "
	return strings.TrimPrefix(msg, prefix)
}
