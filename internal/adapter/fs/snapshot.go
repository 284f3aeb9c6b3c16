// Package fs loads file-tree snapshots from local directories.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/edutools/fbgen/internal/usecase/match"
)

// TreeLoader reads a directory into a match.Snapshot. All paths are
// resolved relative to the root; symlinks escaping the root are rejected
// rather than followed.
type TreeLoader struct {
	root string
}

// NewTreeLoader creates a loader rooted at the given directory.
func NewTreeLoader(root string) *TreeLoader {
	return &TreeLoader{root: root}
}

// Load walks the tree and returns every regular file keyed by its relative
// path with forward slashes. Unreadable files land in Snapshot.Unreadable
// instead of aborting the walk; binary files are left out entirely.
func (l *TreeLoader) Load() (match.Snapshot, error) {
	snapshot := match.Snapshot{
		Files:      make(map[string]string),
		Unreadable: make(map[string]error),
	}

	realRoot, err := filepath.EvalSymlinks(l.root)
	if err != nil {
		return snapshot, fmt.Errorf("resolve root %q: %w", l.root, err)
	}

	err = filepath.WalkDir(realRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == realRoot {
				return err
			}
			rel, relErr := filepath.Rel(realRoot, path)
			if relErr == nil {
				snapshot.Unreadable[filepath.ToSlash(rel)] = err
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(realRoot, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			snapshot.Unreadable[key] = err
			return nil
		}
		if isBinary(content) {
			return nil
		}
		snapshot.Files[key] = string(content)
		return nil
	})
	if err != nil {
		return snapshot, fmt.Errorf("walk %q: %w", l.root, err)
	}

	return snapshot, nil
}

// LoadSingle builds a one-file snapshot for single-file mode. The snapshot
// key is the file's base name.
func LoadSingle(path string) (match.Snapshot, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return match.Snapshot{}, "", fmt.Errorf("read %q: %w", path, err)
	}
	if isBinary(content) {
		return match.Snapshot{}, "", fmt.Errorf("%q is not a text file", path)
	}

	key := filepath.Base(path)
	return match.Snapshot{Files: map[string]string{key: string(content)}}, key, nil
}

// isBinary reports whether content looks like binary data. NUL bytes in the
// first block are a reliable signal for the source trees this tool reads.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return strings.ContainsRune(string(probe), 0)
}
