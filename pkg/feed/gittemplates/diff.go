package gittemplates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ChangeStatus classifies one file's change within a commit.
type ChangeStatus string

const (
	Added    ChangeStatus = "added"
	Modified ChangeStatus = "modified"
	Removed  ChangeStatus = "removed"
)

// Change is one (status, path) pair observed across the commits scanned by
// CommitsSince.
type Change struct {
	Status ChangeStatus
	Path   string
}

// CommitsSince walks commits under pathPrefix committed after since, and
// returns the de-duplicated set of file changes across all of them: the
// most recent status for any path that changed more than once in the
// window wins.
func (c *Client) CommitsSince(pathPrefix string, sinceTime time.Time) ([]Change, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("gittemplates: head: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("gittemplates: head commit: %w", err)
	}

	seen := map[string]Change{}
	commit := headCommit
	for {
		if commit.Committer.When.Before(sinceTime) {
			break
		}
		parent, err := commit.Parent(0)
		if err != nil && !errors.Is(err, object.ErrParentNotFound) {
			break
		}
		var patch *object.Patch
		if parent != nil {
			patch, err = parent.Patch(commit)
		} else {
			// A root commit is diffed against the empty tree, so every file
			// it introduces is reported as added.
			var tree *object.Tree
			if tree, err = commit.Tree(); err == nil {
				patch, err = (&object.Tree{}).Patch(tree)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("gittemplates: diff commit %s: %w", commit.Hash, err)
		}
		for _, fp := range patch.FilePatches() {
			from, to := fp.Files()
			path, status := classify(from, to)
			if path == "" || (pathPrefix != "" && !strings.HasPrefix(path, pathPrefix)) {
				continue
			}
			if _, dup := seen[path]; !dup {
				seen[path] = Change{Status: status, Path: path}
			}
		}
		if parent == nil {
			break
		}
		commit = parent
	}

	out := make([]Change, 0, len(seen))
	for _, ch := range seen {
		out = append(out, ch)
	}
	return out, nil
}

func classify(from, to fdiff.File) (path string, status ChangeStatus) {
	switch {
	case from == nil && to != nil:
		return to.Path(), Added
	case from != nil && to == nil:
		return from.Path(), Removed
	case from != nil && to != nil:
		return to.Path(), Modified
	default:
		return "", ""
	}
}
