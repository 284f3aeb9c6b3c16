// Package gitrepo loads file-tree snapshots from a git revision, so the
// reference side of a comparison can be pinned at a tag or commit instead
// of a checked-out directory.
package gitrepo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/edutools/fbgen/internal/usecase/match"
)

// LoadRevision reads the tree of rev (any revision expression git rev-parse
// accepts) from the repository at repoPath. Binary blobs are skipped;
// unreadable blobs surface per-path in Snapshot.Unreadable.
func LoadRevision(repoPath, rev string) (match.Snapshot, error) {
	snapshot := match.Snapshot{
		Files:      make(map[string]string),
		Unreadable: make(map[string]error),
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return snapshot, fmt.Errorf("open repository %q: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return snapshot, fmt.Errorf("resolve revision %q: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return snapshot, fmt.Errorf("load commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return snapshot, fmt.Errorf("load tree for %s: %w", hash, err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		binary, err := f.IsBinary()
		if err != nil {
			snapshot.Unreadable[f.Name] = err
			return nil
		}
		if binary {
			return nil
		}

		content, err := f.Contents()
		if err != nil {
			snapshot.Unreadable[f.Name] = err
			return nil
		}
		snapshot.Files[f.Name] = content
		return nil
	})
	if err != nil {
		return snapshot, fmt.Errorf("walk tree for %s: %w", hash, err)
	}

	return snapshot, nil
}
