package semrel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// Strategy is one step of version inference. Infer returns the state it was
// given when it has nothing to contribute.
type Strategy interface {
	Infer(State) State
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(State) State

func (f StrategyFunc) Infer(s State) State {
	return f(s)
}

// Identity is the strategy that changes nothing.
var Identity Strategy = StrategyFunc(func(s State) State { return s })

// Composite runs each strategy in order, feeding the output of one into the
// next. Every step runs even when earlier steps were no-ops.
type Composite []Strategy

func (c Composite) Infer(s State) State {
	for _, strategy := range c {
		s = strategy.Infer(s)
	}
	return s
}

// NormalStrategy increments the nearest normal version by the requested
// scope, zeroing the lower components.
type NormalStrategy struct{}

func (NormalStrategy) Infer(s State) State {
	s.Normal = incrementNormal(s.Nearest.Normal, s.ScopeOrDefault())
	s.Changed = true
	return s
}

func incrementNormal(v semver.Version, scope ChangeScope) semver.Version {
	next := semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	switch scope {
	case Major:
		next.Major++
		next.Minor = 0
		next.Patch = 0
	case Minor:
		next.Minor++
		next.Patch = 0
	default:
		next.Patch++
	}
	return next
}

// PreReleaseStrategy derives the pre-release qualifier from the state's stage.
type PreReleaseStrategy struct{}

func (PreReleaseStrategy) Infer(s State) State {
	switch s.Stage.Kind {
	case StageCounted:
		s.PreRelease = []semver.PRVersion{
			{VersionStr: s.Stage.Name},
			{VersionNum: nextCounter(s.Normal, s.Stage.Name, s.Nearest.Any), IsNum: true},
		}
		s.Changed = true
	case StageFixed:
		s.PreRelease = []semver.PRVersion{{VersionStr: s.Stage.Name}}
		s.Changed = true
	}
	return s
}

// nextCounter continues the counter of nearest when it is a pre-release of
// the same normal version and stage, and starts at 1 otherwise.
func nextCounter(normal semver.Version, stage string, nearest semver.Version) uint64 {
	if nearest.Major != normal.Major || nearest.Minor != normal.Minor || nearest.Patch != normal.Patch {
		return 1
	}
	if len(nearest.Pre) < 2 || nearest.Pre[0].IsNum || nearest.Pre[0].VersionStr != stage || !nearest.Pre[1].IsNum {
		return 1
	}
	return nearest.Pre[1].VersionNum + 1
}

// FixedStageStrategy replaces the stage with a fixed, counter-less stage.
type FixedStageStrategy struct {
	Name string
}

func (f FixedStageStrategy) Infer(s State) State {
	stage := Stage{Name: f.Name, Kind: StageFixed}
	if s.Stage == stage {
		return s
	}
	s.Stage = stage
	s.Changed = true
	return s
}

// BuildMetadata selects what is appended as semver build metadata.
type BuildMetadata string

const (
	BuildMetadataNone           BuildMetadata = "none"
	BuildMetadataCommit         BuildMetadata = "commit"
	BuildMetadataDistance       BuildMetadata = "distance"
	BuildMetadataDistanceCommit BuildMetadata = "distance-commit"
)

// ParseBuildMetadata parses a build metadata mode. Empty means none.
func ParseBuildMetadata(s string) (BuildMetadata, error) {
	switch m := BuildMetadata(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return BuildMetadataNone, nil
	case BuildMetadataNone, BuildMetadataCommit, BuildMetadataDistance, BuildMetadataDistanceCommit:
		return m, nil
	default:
		return BuildMetadataNone, fmt.Errorf("unknown build metadata mode %q", s)
	}
}

const shortHashLength = 8

// BuildMetadataStrategy appends commit distance and/or the abbreviated
// commit hash as build metadata. Build metadata does not take part in
// version precedence.
type BuildMetadataStrategy struct {
	Mode BuildMetadata
}

func (b BuildMetadataStrategy) Infer(s State) State {
	var build []string
	if b.Mode == BuildMetadataDistance || b.Mode == BuildMetadataDistanceCommit {
		build = append(build, strconv.Itoa(s.Nearest.DistanceFromAny))
	}
	if (b.Mode == BuildMetadataCommit || b.Mode == BuildMetadataDistanceCommit) && s.Head != "" {
		head := s.Head
		if len(head) > shortHashLength {
			head = head[:shortHashLength]
		}
		build = append(build, head)
	}
	if len(build) == 0 {
		return s
	}
	s.Build = build
	s.Changed = true
	return s
}

// NoReleaseStrategy is used whenever no tag may be created: on dirty
// working trees, on branches that are not release branches, and on release
// branches without changes since the last release. With an empty Stage it
// is a pure no-op and inference reports nothing to release. Otherwise the
// normal version is incremented as usual and Stage is applied as a fixed
// qualifier, producing versions such as 1.2.4-SNAPSHOT.
type NoReleaseStrategy struct {
	Stage string
}

// chain returns the full normal, pre-release, build metadata chain for this
// strategy.
func (n NoReleaseStrategy) chain(build Strategy) Composite {
	if n.Stage == "" {
		return Composite{Identity, Identity, Identity}
	}
	return Composite{
		NormalStrategy{},
		Composite{FixedStageStrategy{Name: n.Stage}, PreReleaseStrategy{}},
		build,
	}
}

func (n NoReleaseStrategy) validate() error {
	if n.Stage == "" {
		return nil
	}
	if _, err := semver.NewPRVersion(n.Stage); err != nil {
		return fmt.Errorf("invalid stage %q: %w", n.Stage, err)
	}
	return nil
}
