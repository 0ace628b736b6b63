package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override)
	return nil
}

// mergeConfigs merges the non-zero fields of override into base.
func mergeConfigs(base, override *Config) {
	if override == nil {
		return
	}

	if override.FrameInterval != 0 {
		base.FrameInterval = override.FrameInterval
	}
	if override.Backend != "" {
		base.Backend = override.Backend
	}

	if override.Log.Level != "" {
		base.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		base.Log.Format = override.Log.Format
	}
	if override.Log.File != "" {
		base.Log.File = override.Log.File
	}

	if override.Inspect.Listen != "" {
		base.Inspect.Listen = override.Inspect.Listen
	}

	if override.Relay.URL != "" {
		base.Relay.URL = override.Relay.URL
	}
	if override.Relay.SubjectPrefix != "" {
		base.Relay.SubjectPrefix = override.Relay.SubjectPrefix
	}
	if override.Relay.Name != "" {
		base.Relay.Name = override.Relay.Name
	}
	if override.Relay.Timeout != 0 {
		base.Relay.Timeout = override.Relay.Timeout
	}

	if override.Terminal.CellWidth != 0 {
		base.Terminal.CellWidth = override.Terminal.CellWidth
	}
	if override.Terminal.CellHeight != 0 {
		base.Terminal.CellHeight = override.Terminal.CellHeight
	}
}
