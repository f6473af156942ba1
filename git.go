// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0.

package semrel

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DetachedHead is reported as the current branch when HEAD is detached.
const DetachedHead = "HEAD"

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitRepository implements Repository for a go-git repository.
type GitRepository struct {
	repo      *git.Repository
	branch    string
	tagFilter func(string) bool
}

// GitOption configures a GitRepository.
type GitOption func(*GitRepository) error

// WithBranch overrides the branch name reported by CurrentBranch. CI systems
// often check out a detached HEAD and expose the branch in the environment.
func WithBranch(name string) GitOption {
	return func(r *GitRepository) error {
		r.branch = name
		return nil
	}
}

// WithTagFilter restricts which tags are considered version tags.
func WithTagFilter(filter func(string) bool) GitOption {
	return func(r *GitRepository) error {
		r.tagFilter = filter
		return nil
	}
}

// WithTagPattern restricts version tags to those matching a regular
// expression, e.g. "^sdk/" in a repository that tags several modules.
func WithTagPattern(pattern string) GitOption {
	return func(r *GitRepository) error {
		if pattern == "" {
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid tag pattern: %w", err)
		}
		r.tagFilter = re.MatchString
		return nil
	}
}

// NewGitRepository wraps repo for version inference.
func NewGitRepository(repo *git.Repository, opts ...GitOption) (*GitRepository, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	r := &GitRepository{repo: repo}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CurrentBranch returns the short name of the branch HEAD points to, or
// DetachedHead.
func (r *GitRepository) CurrentBranch() (string, error) {
	if r.branch != "" {
		return r.branch, nil
	}
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return DetachedHead, nil
	}
	return head.Name().Short(), nil
}

// IsDirty reports whether the working tree has uncommitted changes.
func (r *GitRepository) IsDirty() (bool, error) {
	return workTreeIsDirty(r.repo)
}

// HeadCommit returns the full hash of HEAD.
func (r *GitRepository) HeadCommit() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// LocateNearestVersion finds the nearest version tags reachable from HEAD.
func (r *GitRepository) LocateNearestVersion() (NearestVersion, error) {
	head, err := r.repo.Head()
	if err != nil {
		return NearestVersion{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	return locateNearestVersion(r.repo, head.Hash(), r.tagFilter)
}

// CreateTag creates a lightweight tag named name at HEAD.
func (r *GitRepository) CreateTag(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	if _, err := r.repo.CreateTag(name, head.Hash(), nil); err != nil {
		return fmt.Errorf("creating tag %q: %w", name, err)
	}
	return nil
}

var _ Repository = (*GitRepository)(nil)

func workTreeIsDirty(repo *git.Repository) (bool, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage when a git binary is available
	if _, ok := repo.Storer.(*filesystem.Storage); ok {
		if _, err := exec.LookPath("git"); err == nil {
			return checkDirtyWithGitCommand(workTree.Filesystem.Root())
		}
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return !status.IsClean(), nil
}

// checkDirtyWithGitCommand reports staged, unstaged and untracked changes.
// git status refreshes the index itself.
func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain", "--untracked-files=normal")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("checking worktree: %w", err)
	}

	return len(bytes.TrimSpace(output)) > 0, nil
}
