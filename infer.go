package semrel

import (
	"fmt"
	"log/slog"
	"regexp"
)

const strategyName = "semantic-release"

// Repository is the view of a source repository needed for inference.
// GitRepository implements it on top of go-git.
type Repository interface {
	// CurrentBranch returns the short name of the checked out branch.
	CurrentBranch() (string, error)
	// IsDirty reports whether the working tree has uncommitted changes.
	IsDirty() (bool, error)
	// HeadCommit returns the identifier of the HEAD commit.
	HeadCommit() (string, error)
	// LocateNearestVersion finds the nearest version tags reachable from HEAD.
	LocateNearestVersion() (NearestVersion, error)
}

// Inferrer decides the next release version. It is immutable once built by
// New and may be shared between goroutines.
type Inferrer struct {
	releaseBranches    []*regexp.Regexp
	branchStrategies   map[string]NoReleaseStrategy
	notOnReleaseBranch NoReleaseStrategy
	dirty              NoReleaseStrategy
	noChanges          NoReleaseStrategy
	stages             []Stage
	enforcePrecedence  bool
	build              BuildMetadataStrategy
	logger             *slog.Logger
}

// New builds an Inferrer from the default configuration and opts.
func New(opts ...Option) (*Inferrer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.releaseBranches))
	for _, p := range cfg.releaseBranches {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid release branch pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	branchStrategies := make(map[string]NoReleaseStrategy, len(cfg.branchStrategies))
	for name, strategy := range cfg.branchStrategies {
		branchStrategies[name] = strategy
	}

	return &Inferrer{
		releaseBranches:    patterns,
		branchStrategies:   branchStrategies,
		notOnReleaseBranch: cfg.notOnReleaseBranch,
		dirty:              cfg.dirty,
		noChanges:          cfg.noChanges,
		stages:             append([]Stage(nil), cfg.stages...),
		enforcePrecedence:  cfg.enforcePrecedence,
		build:              BuildMetadataStrategy{Mode: cfg.buildMetadata},
		logger:             cfg.log(),
	}, nil
}

// Name identifies the strategy in logs and error messages.
func (i *Inferrer) Name() string {
	return strategyName
}

// Stages returns the legal stages. The first one is the default.
func (i *Inferrer) Stages() []Stage {
	return append([]Stage(nil), i.stages...)
}

// IsReleaseBranch reports whether branch matches any release branch pattern.
func (i *Inferrer) IsReleaseBranch(branch string) bool {
	for _, re := range i.releaseBranches {
		if re.MatchString(branch) {
			return true
		}
	}
	return false
}

// Infer computes the next version of repo. It returns a nil ReleaseVersion
// and a nil error when there is nothing to release. Errors returned by repo
// are passed through unchanged.
func (i *Inferrer) Infer(repo Repository, req Request) (*ReleaseVersion, error) {
	stage, err := i.resolveStage(req.Stage)
	if err != nil {
		return nil, err
	}

	var scope *ChangeScope
	if req.Scope != "" {
		s, err := ParseChangeScope(req.Scope)
		if err != nil {
			return nil, err
		}
		scope = &s
	}

	i.logger.Info("beginning version inference",
		"strategy", strategyName, "scope", scopeAttr(scope), "stage", stage.Name)

	nearest, err := repo.LocateNearestVersion()
	if err != nil {
		return nil, err
	}
	i.logger.Debug("located nearest version", "nearest", nearest.String())

	branch, err := repo.CurrentBranch()
	if err != nil {
		return nil, err
	}
	dirty, err := repo.IsDirty()
	if err != nil {
		return nil, err
	}
	head, err := repo.HeadCommit()
	if err != nil {
		return nil, err
	}

	state := newState(scope, stage, branch, dirty, head, nearest)
	path, strategy := i.classify(state)
	i.logger.Debug("classified repository state",
		"path", string(path), "branch", branch, "dirty", dirty)

	inferred := strategy.Infer(state)
	if !inferred.Changed {
		i.logger.Info("nothing to release", "path", string(path), "branch", branch)
		return nil, nil
	}

	version := inferred.Version()
	createTag := path == PathRelease && inferred.Stage.Kind != StageFixed

	if i.enforcePrecedence && version.LT(nearest.Any) {
		return nil, &PrecedenceError{Inferred: version, Nearest: nearest.Any}
	}

	i.logger.Info("inferred version",
		"version", version.String(), "path", string(path), "createTag", createTag)

	return &ReleaseVersion{
		Version:         version.String(),
		PreviousVersion: nearest.Normal.String(),
		CreateTag:       createTag,
		Path:            path,
	}, nil
}

func (i *Inferrer) resolveStage(name string) (Stage, error) {
	if name == "" {
		return i.stages[0], nil
	}
	for _, stage := range i.stages {
		if stage.Name == name {
			return stage, nil
		}
	}
	allowed := make([]string, 0, len(i.stages))
	for _, stage := range i.stages {
		allowed = append(allowed, stage.Name)
	}
	return Stage{}, &StageError{Stage: name, Allowed: allowed}
}

func scopeAttr(scope *ChangeScope) string {
	if scope == nil {
		return ""
	}
	return scope.String()
}
