// Package git produces unified diffs from a local checkout so reviews can
// run outside GitHub Actions.
package git

import (
	"context"
	"fmt"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Engine implements the GitEngine port backed by go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// DiffAgainst returns the unified diff between baseRef and HEAD.
func (e *Engine) DiffAgainst(ctx context.Context, baseRef string) (string, error) {
	repo, err := e.open()
	if err != nil {
		return "", err
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return "", fmt.Errorf("resolve base ref: %w", err)
	}

	headCommit, err := headCommit(repo)
	if err != nil {
		return "", err
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return "", fmt.Errorf("compute patch: %w", err)
	}

	return patch.String(), nil
}

// HeadSHA returns the hash of the checked-out commit.
func (e *Engine) HeadSHA(ctx context.Context) (string, error) {
	repo, err := e.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func (e *Engine) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func headCommit(repo *goGit.Repository) (*object.Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	return commit, nil
}

// resolveCommit tries the ref as given, then as a local branch, then as an
// origin-tracking branch, so "main" works in fresh CI clones.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}
