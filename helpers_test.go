package semrel

import (
	"testing"
	"time"

	"github.com/blang/semver"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return repo
}

// testCommit writes filename and commits it, returning the commit hash
func testCommit(t *testing.T, repo *git.Repository, filename string) plumbing.Hash {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, writeFile(workTree.Filesystem, filename, "Content for "+filename))
	_, err = workTree.Add(filename)
	require.NoError(t, err)

	hash, err := workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
	require.NoError(t, err)
	return hash
}

// testTag creates lightweight tags pointing at hash
func testTag(t *testing.T, repo *git.Repository, hash plumbing.Hash, tags ...string) {
	t.Helper()
	for _, tag := range tags {
		_, err := repo.CreateTag(tag, hash, nil)
		require.NoError(t, err)
	}
}

// testCheckout creates and checks out a new branch at HEAD
func testCheckout(t *testing.T, repo *git.Repository, branch string) {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	}))
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// fakeRepository is a Repository with fixed answers.
type fakeRepository struct {
	branch  string
	dirty   bool
	head    string
	nearest NearestVersion
	err     error
	calls   int
}

func (f *fakeRepository) CurrentBranch() (string, error) {
	f.calls++
	return f.branch, nil
}

func (f *fakeRepository) IsDirty() (bool, error) {
	f.calls++
	return f.dirty, nil
}

func (f *fakeRepository) HeadCommit() (string, error) {
	f.calls++
	return f.head, nil
}

func (f *fakeRepository) LocateNearestVersion() (NearestVersion, error) {
	f.calls++
	if f.err != nil {
		return NearestVersion{}, f.err
	}
	return f.nearest, nil
}

// testNearest builds a NearestVersion from version strings
func testNearest(normal string, normalDistance int, latest string, anyDistance int) NearestVersion {
	return NearestVersion{
		Normal:             semver.MustParse(normal),
		Any:                semver.MustParse(latest),
		DistanceFromNormal: normalDistance,
		DistanceFromAny:    anyDistance,
	}
}
