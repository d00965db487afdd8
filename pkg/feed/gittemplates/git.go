// Package gittemplates syncs knowledge-base entries from a Git-hosted
// template repository: clone/pull the mirror, walk commits under a path
// filter since a watermark, and classify each changed file by its diff
// status (added/modified -> parse and upsert, removed -> delete).
package gittemplates

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
)

// Client wraps a local clone of a Git-hosted template repository.
type Client struct {
	repoURL  string
	repoPath string
}

// NewClient builds a Client for repoURL, cloned/kept at repoPath.
func NewClient(repoURL, repoPath string) *Client {
	return &Client{repoURL: repoURL, repoPath: repoPath}
}

// Sync clones the repository if it isn't present locally, or pulls the
// latest changes if it is.
func (c *Client) Sync() error {
	repo, err := git.PlainOpen(c.repoPath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			_, cloneErr := git.PlainClone(c.repoPath, false, &git.CloneOptions{URL: c.repoURL})
			if cloneErr != nil {
				return fmt.Errorf("gittemplates: clone: %w", cloneErr)
			}
			return nil
		}
		return fmt.Errorf("gittemplates: open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gittemplates: worktree: %w", err)
	}
	if err := worktree.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("gittemplates: pull: %w", err)
	}
	return nil
}

// ReadFile returns the contents of a file at the current HEAD.
func (c *Client) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(c.repoPath + "/" + relPath)
}

func (c *Client) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(c.repoPath)
	if err != nil {
		return nil, fmt.Errorf("gittemplates: open repository: %w", err)
	}
	return repo, nil
}
