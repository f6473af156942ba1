package semrel

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file looked up at the repository root.
const DefaultConfigFile = ".semrel.yaml"

// Config is the file representation of an Inferrer configuration.
//
//	releaseBranches: ["^develop-\\d+$"]
//	stages:
//	  - {name: final, kind: final}
//	  - {name: beta, kind: counted}
//	enforcePrecedence: true
//	buildMetadata: commit
//	tagPattern: "^v"
//	tagPrefix: v
//	branches:
//	  develop: {stage: SNAPSHOT}
type Config struct {
	ReleaseBranches   []string                `yaml:"releaseBranches"`
	Stages            []StageConfig           `yaml:"stages"`
	EnforcePrecedence *bool                   `yaml:"enforcePrecedence"`
	BuildMetadata     string                  `yaml:"buildMetadata"`
	TagPattern        string                  `yaml:"tagPattern"`
	TagPrefix         *string                 `yaml:"tagPrefix"`
	Branches          map[string]BranchConfig `yaml:"branches"`
	DefaultBranch     *BranchConfig           `yaml:"defaultBranch"`
}

// StageConfig describes one legal stage.
type StageConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// BranchConfig describes the strategy for a branch that is not a release
// branch. An empty stage means nothing is released on it.
type BranchConfig struct {
	Stage string `yaml:"stage"`
}

// LoadConfig reads a configuration file. A missing file yields an empty
// configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Prefix returns the configured tag prefix, defaulting to "v".
func (c *Config) Prefix() string {
	if c.TagPrefix == nil {
		return "v"
	}
	return *c.TagPrefix
}

// Options converts the configuration into Inferrer options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option
	if len(c.ReleaseBranches) > 0 {
		opts = append(opts, WithReleaseBranches(c.ReleaseBranches...))
	}

	if len(c.Stages) > 0 {
		stages := make([]Stage, 0, len(c.Stages))
		for _, sc := range c.Stages {
			kind, err := ParseStageKind(sc.Kind)
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", sc.Name, err)
			}
			stages = append(stages, Stage{Name: sc.Name, Kind: kind})
		}
		opts = append(opts, WithStages(stages...))
	}

	if c.EnforcePrecedence != nil {
		opts = append(opts, WithEnforcePrecedence(*c.EnforcePrecedence))
	}

	if c.BuildMetadata != "" {
		mode, err := ParseBuildMetadata(c.BuildMetadata)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBuildMetadata(mode))
	}

	for branch, bc := range c.Branches {
		opts = append(opts, WithNotOnReleaseBranch(branch, NoReleaseStrategy{Stage: bc.Stage}))
	}
	if c.DefaultBranch != nil {
		opts = append(opts, WithDefaultNotOnReleaseBranch(NoReleaseStrategy{Stage: c.DefaultBranch.Stage}))
	}

	return opts, nil
}
