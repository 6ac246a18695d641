package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the decoded shape of an optional .bootforge.yml file, the
// way the teacher's yaml-backed vendor.yml (internal/core/yaml_store.go)
// lets a project pin its own sync defaults instead of repeating flags on
// every invocation.
type YAMLConfig struct {
	SkipInstall                      *bool  `yaml:"skipInstall"`
	IncludeDev                       *bool  `yaml:"includeDev"`
	IncludeOptional                  *bool  `yaml:"includeOptional"`
	IncludeWorkspaces                *bool  `yaml:"includeWorkspaces"`
	PreferPublishedWorkspacePackages *bool  `yaml:"preferPublishedWorkspacePackages"`
	Transform                        *bool  `yaml:"transform"`
	TransformProjectSources          *bool  `yaml:"transformProjectSources"`
	DestPath                         string `yaml:"destPath"`
}

// LoadYAMLConfig reads and parses path. A missing file is not an error: it
// returns the zero YAMLConfig, so callers can treat "no config" the same as
// "empty config".
func LoadYAMLConfig(path string) (YAMLConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return YAMLConfig{}, nil
		}
		return YAMLConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg YAMLConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return YAMLConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyTo merges c's set fields into opts as defaults. Call it before
// parsing CLI flags into the same Options value so explicit flags still
// win, the same "caller wins" rule Bootstrap applies to preflight's
// auto-fix suggestions.
func (c YAMLConfig) ApplyTo(opts *Options) {
	if c.SkipInstall != nil {
		opts.SkipInstall = *c.SkipInstall
	}
	if c.IncludeDev != nil {
		opts.IncludeDev = *c.IncludeDev
	}
	if c.IncludeOptional != nil {
		opts.IncludeOptional = *c.IncludeOptional
	}
	if c.IncludeWorkspaces != nil {
		opts.SetIncludeWorkspaces(*c.IncludeWorkspaces)
	}
	if c.PreferPublishedWorkspacePackages != nil {
		opts.PreferPublishedWorkspacePackages = *c.PreferPublishedWorkspacePackages
	}
	if c.Transform != nil {
		opts.SetTransform(*c.Transform)
	}
	if c.TransformProjectSources != nil {
		opts.SetTransformProjectSources(*c.TransformProjectSources)
	}
	if c.DestPath != "" {
		opts.DestPath = c.DestPath
	}
}
