package semrel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blang/semver"
)

// Option configures an Inferrer.
type Option func(*config) error

type config struct {
	releaseBranches    []string
	branchStrategies   map[string]NoReleaseStrategy
	notOnReleaseBranch NoReleaseStrategy
	dirty              NoReleaseStrategy
	noChanges          NoReleaseStrategy
	stages             []Stage
	enforcePrecedence  bool
	buildMetadata      BuildMetadata

	// logger receives debug and info output. Nil disables logging.
	logger *slog.Logger
}

// Default release branch patterns: master, and maintenance branches such as
// 1.x, 1.2.x, release-1.x or release/1.2.x.
const (
	DefaultMasterBranch      = `^master$`
	DefaultMaintenanceBranch = `^(?:release[-/])?\d+(?:\.\d+)?\.x$`
)

func defaultConfig() *config {
	return &config{
		releaseBranches:   []string{DefaultMasterBranch, DefaultMaintenanceBranch},
		branchStrategies:  map[string]NoReleaseStrategy{},
		dirty:             NoReleaseStrategy{Stage: SnapshotStage},
		noChanges:         NoReleaseStrategy{Stage: SnapshotStage},
		stages:            DefaultStages(),
		enforcePrecedence: true,
		buildMetadata:     BuildMetadataNone,
	}
}

// WithReleaseBranches adds branch name patterns to the release branch list.
// Patterns must match the whole branch name. Existing patterns are kept.
func WithReleaseBranches(patterns ...string) Option {
	return func(c *config) error {
		c.releaseBranches = append(c.releaseBranches, patterns...)
		return nil
	}
}

// WithNotOnReleaseBranch registers the strategy used when the current
// branch is exactly branch and is not a release branch.
func WithNotOnReleaseBranch(branch string, strategy NoReleaseStrategy) Option {
	return func(c *config) error {
		if branch == "" {
			return fmt.Errorf("branch name is required")
		}
		c.branchStrategies[branch] = strategy
		return nil
	}
}

// WithDefaultNotOnReleaseBranch sets the strategy for non-release branches
// that have no registered strategy. The default reports nothing to release.
func WithDefaultNotOnReleaseBranch(strategy NoReleaseStrategy) Option {
	return func(c *config) error {
		c.notOnReleaseBranch = strategy
		return nil
	}
}

// WithDirtyStrategy sets the strategy used when the working tree has
// uncommitted changes. The default produces SNAPSHOT versions.
func WithDirtyStrategy(strategy NoReleaseStrategy) Option {
	return func(c *config) error {
		c.dirty = strategy
		return nil
	}
}

// WithNoChangesStrategy sets the strategy used on a release branch whose
// HEAD is already tagged with the nearest release. The default produces
// SNAPSHOT versions.
func WithNoChangesStrategy(strategy NoReleaseStrategy) Option {
	return func(c *config) error {
		c.noChanges = strategy
		return nil
	}
}

// WithStages replaces the legal stages. The first stage is the default.
func WithStages(stages ...Stage) Option {
	return func(c *config) error {
		if len(stages) == 0 {
			return fmt.Errorf("at least one stage is required")
		}
		c.stages = append([]Stage(nil), stages...)
		return nil
	}
}

// WithEnforcePrecedence controls whether an inferred version may sort below
// the nearest existing tag. Enabled by default; disabling it is discouraged.
func WithEnforcePrecedence(enforce bool) Option {
	return func(c *config) error {
		c.enforcePrecedence = enforce
		return nil
	}
}

// WithBuildMetadata sets what is appended as build metadata.
func WithBuildMetadata(mode BuildMetadata) Option {
	return func(c *config) error {
		if _, err := ParseBuildMetadata(string(mode)); err != nil {
			return err
		}
		c.buildMetadata = mode
		return nil
	}
}

// WithLogger sets a structured logger for inference output.
// Without one the Inferrer is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

func (c *config) validate() error {
	seen := make(map[string]bool, len(c.stages))
	for _, stage := range c.stages {
		if stage.Name == "" {
			return fmt.Errorf("stage name is required")
		}
		if seen[stage.Name] {
			return fmt.Errorf("duplicate stage %q", stage.Name)
		}
		seen[stage.Name] = true
		if stage.Kind == StageFinal {
			continue
		}
		if _, err := semver.NewPRVersion(stage.Name); err != nil {
			return fmt.Errorf("stage %q is not a valid pre-release identifier: %w", stage.Name, err)
		}
	}

	for branch, strategy := range c.branchStrategies {
		if err := strategy.validate(); err != nil {
			return fmt.Errorf("strategy for branch %q: %w", branch, err)
		}
	}
	for _, strategy := range []NoReleaseStrategy{c.notOnReleaseBranch, c.dirty, c.noChanges} {
		if err := strategy.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
