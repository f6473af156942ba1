// Package semrel infers the next semantic version of a Git repository from
// its tag history, current branch and working tree state.
package semrel

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// ChangeScope is the severity of the changes being released. It decides
// which component of the normal version is incremented.
type ChangeScope int

const (
	Patch ChangeScope = iota
	Minor
	Major
)

func (s ChangeScope) String() string {
	switch s {
	case Major:
		return "MAJOR"
	case Minor:
		return "MINOR"
	case Patch:
		return "PATCH"
	default:
		return fmt.Sprintf("ChangeScope(%d)", int(s))
	}
}

// ParseChangeScope parses a scope name case-insensitively.
func ParseChangeScope(s string) (ChangeScope, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MAJOR":
		return Major, nil
	case "MINOR":
		return Minor, nil
	case "PATCH":
		return Patch, nil
	default:
		return Patch, fmt.Errorf("%w: %q is not one of [major minor patch]", ErrInvalidScope, s)
	}
}

// StageKind describes the pre-release qualifier a stage produces.
type StageKind int

const (
	// StageFinal produces no pre-release qualifier.
	StageFinal StageKind = iota
	// StageCounted produces "<stage>.<n>" with n incremented per normal version.
	StageCounted
	// StageFixed produces "<stage>" with no counter and never creates a tag.
	StageFixed
)

func (k StageKind) String() string {
	switch k {
	case StageFinal:
		return "final"
	case StageCounted:
		return "counted"
	case StageFixed:
		return "fixed"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// ParseStageKind parses "final", "counted" or "fixed".
func ParseStageKind(s string) (StageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "final":
		return StageFinal, nil
	case "counted", "":
		return StageCounted, nil
	case "fixed":
		return StageFixed, nil
	default:
		return StageFinal, fmt.Errorf("unknown stage kind %q", s)
	}
}

// Stage is a named release channel.
type Stage struct {
	Name string
	Kind StageKind
}

// SnapshotStage is the stage forced on dirty working trees and on
// release branches without new changes.
const SnapshotStage = "SNAPSHOT"

// DefaultStages returns the legal stages used when none are configured.
// The first entry is the default stage.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "final", Kind: StageFinal},
		{Name: "rc", Kind: StageCounted},
		{Name: "milestone", Kind: StageCounted},
		{Name: SnapshotStage, Kind: StageFixed},
	}
}

// NearestVersion holds the closest version tags reachable from HEAD.
// Normal only considers final releases, Any also considers pre-releases.
type NearestVersion struct {
	Normal             semver.Version
	Any                semver.Version
	DistanceFromNormal int
	DistanceFromAny    int
}

func (n NearestVersion) String() string {
	return fmt.Sprintf("NearestVersion(normal: %s (+%d), any: %s (+%d))",
		n.Normal, n.DistanceFromNormal, n.Any, n.DistanceFromAny)
}

// Path identifies which branch of the decision procedure produced a result.
type Path string

const (
	PathDirty              Path = "dirty"
	PathNotOnReleaseBranch Path = "not-on-release-branch"
	PathNoChanges          Path = "no-changes"
	PathRelease            Path = "release"
)

// Request carries the per-invocation overrides. Both fields are optional.
type Request struct {
	// Scope is one of major, minor or patch (case-insensitive).
	// Empty means patch.
	Scope string

	// Stage must name one of the configured stages. Empty means the
	// first configured stage.
	Stage string
}

// ReleaseVersion is the outcome of a successful inference.
type ReleaseVersion struct {
	Version         string `json:"version"`
	PreviousVersion string `json:"previousVersion"`
	CreateTag       bool   `json:"createTag"`
	Path            Path   `json:"path"`
}

// TagName returns the tag that should be created for this version.
func (r *ReleaseVersion) TagName(prefix string) string {
	return prefix + r.Version
}
