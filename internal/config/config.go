// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package config loads the service's runtime configuration from a YAML
// file, overridable by CLI flags, via koanf.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the service's runtime configuration.
type Config struct {
	// PluginsDir is the directory scanned for plugin.yaml subdirectories.
	PluginsDir string `koanf:"pluginsDir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"logLevel"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"logFormat"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables it.
	MetricsAddr string `koanf:"metricsAddr"`

	// HostVersion is this service's own version, checked against every
	// candidate's serverVersion range (spec.md §4.3) before it is allowed
	// to load.
	HostVersion string `koanf:"hostVersion"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		PluginsDir:  "plugins",
		LogLevel:    "info",
		LogFormat:   "json",
		MetricsAddr: "",
		HostVersion: "1.0.0",
	}
}

// Load builds a Config by layering, in increasing priority: built-in
// defaults, the YAML file at path (if non-empty and present), and any flags
// set on fs. Flags take precedence so `--pluginsDir` always wins over the
// file.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	defaultsMap := map[string]interface{}{
		"pluginsDir":  defaults.PluginsDir,
		"logLevel":    defaults.LogLevel,
		"logFormat":   defaults.LogFormat,
		"metricsAddr": defaults.MetricsAddr,
		"hostVersion": defaults.HostVersion,
	}
	if err := k.Load(confmap.Provider(defaultsMap, "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
