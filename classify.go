package semrel

// classify picks the decision path for state and returns the strategy
// chain for it. The chain always has the normal, pre-release and build
// metadata steps, any of which may be a no-op. A dirty working tree takes
// precedence over the branch, and the branch over the change check.
func (i *Inferrer) classify(state State) (Path, Strategy) {
	switch {
	case state.Dirty:
		return PathDirty, i.dirty.chain(i.build)
	case !i.IsReleaseBranch(state.Branch):
		strategy, ok := i.branchStrategies[state.Branch]
		if !ok {
			strategy = i.notOnReleaseBranch
		}
		return PathNotOnReleaseBranch, strategy.chain(i.build)
	case !hasChanges(state.Nearest):
		return PathNoChanges, i.noChanges.chain(i.build)
	default:
		return PathRelease, Composite{NormalStrategy{}, PreReleaseStrategy{}, i.build}
	}
}

// hasChanges reports whether HEAD has commits past the nearest release.
// A repository without any release tag always has changes.
func hasChanges(nearest NearestVersion) bool {
	return nearest.DistanceFromNormal > 0 || nearest.Normal.Equals(zeroVersion)
}
