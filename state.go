package semrel

import (
	"github.com/blang/semver"
)

// State is threaded through the strategies of a single inference. It is
// passed by value: a strategy returns the state it received when it has
// nothing to do, or a copy with only the fields it owns replaced.
type State struct {
	// Inputs, fixed for the whole inference.
	Scope   *ChangeScope
	Stage   Stage
	Branch  string
	Dirty   bool
	Head    string
	Nearest NearestVersion

	// Outputs. Normal is owned by the normal strategy, PreRelease by the
	// pre-release strategy and Build by the build metadata strategy.
	Normal     semver.Version
	PreRelease []semver.PRVersion
	Build      []string

	// Changed is set by any strategy that alters an output and is never
	// cleared. An inference that ends with Changed false has nothing to
	// release.
	Changed bool
}

func newState(scope *ChangeScope, stage Stage, branch string, dirty bool, head string, nearest NearestVersion) State {
	return State{
		Scope:   scope,
		Stage:   stage,
		Branch:  branch,
		Dirty:   dirty,
		Head:    head,
		Nearest: nearest,
		Normal: semver.Version{
			Major: nearest.Normal.Major,
			Minor: nearest.Normal.Minor,
			Patch: nearest.Normal.Patch,
		},
	}
}

// ScopeOrDefault returns the requested scope, or Patch when none was given.
func (s State) ScopeOrDefault() ChangeScope {
	if s.Scope == nil {
		return Patch
	}
	return *s.Scope
}

// Version assembles the version described by the state.
func (s State) Version() semver.Version {
	v := semver.Version{
		Major: s.Normal.Major,
		Minor: s.Normal.Minor,
		Patch: s.Normal.Patch,
	}
	if len(s.PreRelease) > 0 {
		v.Pre = append([]semver.PRVersion(nil), s.PreRelease...)
	}
	if len(s.Build) > 0 {
		v.Build = append([]string(nil), s.Build...)
	}
	return v
}
