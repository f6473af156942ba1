package semrel

import (
	"fmt"
	"path"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var zeroVersion = semver.Version{}

// locateNearestVersion walks the commit graph breadth first from head and
// returns the closest final version tag and the closest version tag of any
// kind. Distances count commits between head and the tagged commit. When
// several commits are equally close, the highest version wins.
func locateNearestVersion(repo *git.Repository, head plumbing.Hash, tagFilter func(string) bool) (NearestVersion, error) {
	tagged, err := versionTags(repo, tagFilter)
	if err != nil {
		return NearestVersion{}, err
	}

	start, err := repo.CommitObject(head)
	if err != nil {
		return NearestVersion{}, fmt.Errorf("getting commit object: %w", err)
	}

	type queued struct {
		hash     plumbing.Hash
		distance int
	}

	var (
		normal, latest      *semver.Version
		normalDist, anyDist int
		reachable           int
	)

	seen := map[plumbing.Hash]bool{start.Hash: true}
	queue := []queued{{hash: start.Hash}}
	for len(queue) > 0 {
		current := queue[0]
		// Commits at the same distance as the nearest normal tag still compete.
		if normal != nil && current.distance > normalDist {
			break
		}
		queue = queue[1:]
		reachable++

		if versions := tagged[current.hash]; len(versions) > 0 {
			if v := highest(versions, false); latest == nil || (current.distance == anyDist && v.GT(*latest)) {
				latest, anyDist = &v, current.distance
			}
			if hasFinal(versions) {
				if v := highest(versions, true); normal == nil || v.GT(*normal) {
					normal, normalDist = &v, current.distance
				}
			}
		}

		commit, err := repo.CommitObject(current.hash)
		if err != nil {
			return NearestVersion{}, fmt.Errorf("getting commit object: %w", err)
		}
		for _, parent := range commit.ParentHashes {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			queue = append(queue, queued{hash: parent, distance: current.distance + 1})
		}
	}

	nearest := NearestVersion{}
	if normal == nil {
		nearest.DistanceFromNormal = reachable
	} else {
		nearest.Normal, nearest.DistanceFromNormal = *normal, normalDist
	}
	if latest == nil || latest.LT(nearest.Normal) {
		nearest.Any, nearest.DistanceFromAny = nearest.Normal, nearest.DistanceFromNormal
	} else {
		nearest.Any, nearest.DistanceFromAny = *latest, anyDist
	}
	return nearest, nil
}

// versionTags maps commit hashes to the versions they are tagged with.
// Tags that do not parse as semantic versions are skipped.
func versionTags(repo *git.Repository, tagFilter func(string) bool) (map[plumbing.Hash][]semver.Version, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	tagged := make(map[plumbing.Hash][]semver.Version)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if tagFilter != nil && !tagFilter(name) {
			return nil
		}

		version, err := semver.Parse(stripModuleTagPrefixes(name))
		if err != nil {
			return nil
		}

		target := ref.Hash()
		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			if obj.TargetType != plumbing.CommitObject {
				return nil
			}
			target = obj.Target
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
		default:
			return err
		}

		tagged[target] = append(tagged[target], version)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return tagged, nil
}

// highest returns the version with the greatest precedence, optionally
// ignoring pre-releases. It returns the zero version when nothing qualifies.
func highest(versions []semver.Version, finalOnly bool) semver.Version {
	var best semver.Version
	found := false
	for _, v := range versions {
		if finalOnly && len(v.Pre) > 0 {
			continue
		}
		if !found || v.GT(best) {
			best, found = v, true
		}
	}
	return best
}

func hasFinal(versions []semver.Version) bool {
	for _, v := range versions {
		if len(v.Pre) == 0 {
			return true
		}
	}
	return false
}

func stripModuleTagPrefixes(tag string) string {
	_, versionComponent := path.Split(tag)
	return strings.TrimPrefix(versionComponent, "v")
}
