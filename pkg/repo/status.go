package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bitvcs/bit/pkg/object"
)

// FileStatus classifies a file relative to the areas being compared.
type FileStatus int

const (
	StatusClean     FileStatus = iota
	StatusNew                  // in staging, not in HEAD tree
	StatusModified             // in staging, different blob than HEAD
	StatusDeleted              // in HEAD but not staged, or staged but gone on disk
	StatusUntracked            // in working dir but not in staging
	StatusDirty                // staged but working copy differs from staged blob
)

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // staging vs HEAD comparison
	WorkStatus  FileStatus // working tree vs staging comparison
}

// Status computes the working tree status for the repository.
//
//  1. Read the staging area.
//  2. Walk the working directory (skipping .bit/ and ignored paths).
//  3. Compare staging entries against the HEAD tree.
//  4. Compare working tree files against staging entries, trusting cached
//     metadata only when it is conclusive and re-hashing otherwise.
func (r *Repo) Status() ([]StatusEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	indexMTime := r.indexMTime()

	workFiles, err := r.worktreeFiles()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	headEntries := make(map[string]object.TreeFileEntry)
	if headHash, err := r.ResolveRef("HEAD"); err == nil && headHash != "" {
		commit, err := r.Store.ReadCommit(headHash)
		if err != nil {
			return nil, fmt.Errorf("status: read HEAD commit: %w", err)
		}
		flat, err := r.Store.FlattenTree(commit.TreeHash)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		for _, e := range flat {
			headEntries[e.Path] = e
		}
	}

	var result []StatusEntry
	staged := make(map[string]bool, len(stg.Entries))

	for _, entry := range stg.Entries {
		staged[entry.Path] = true
		se := StatusEntry{Path: entry.Path}

		if head, ok := headEntries[entry.Path]; !ok {
			se.IndexStatus = StatusNew
		} else if head.Hash != entry.BlobHash {
			se.IndexStatus = StatusModified
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(entry.Path))
		info, err := os.Lstat(absPath)
		if err != nil {
			if os.IsNotExist(err) {
				se.WorkStatus = StatusDeleted
			} else {
				return nil, fmt.Errorf("status: stat %q: %w", entry.Path, err)
			}
		} else {
			stale, err := r.entryStale(entry, absPath, info, indexMTime)
			if err != nil {
				return nil, fmt.Errorf("status: %w", err)
			}
			if stale {
				se.WorkStatus = StatusDirty
			}
		}

		if se.IndexStatus != StatusClean || se.WorkStatus != StatusClean {
			result = append(result, se)
		}
	}

	// Paths committed in HEAD but no longer staged.
	for p := range headEntries {
		if !staged[p] {
			result = append(result, StatusEntry{Path: p, IndexStatus: StatusDeleted})
		}
	}

	// Working tree files the staging area does not know about.
	for p := range workFiles {
		if !staged[p] {
			result = append(result, StatusEntry{Path: p, WorkStatus: StatusUntracked})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// worktreeFiles returns the repo-relative paths of all non-ignored files in
// the working directory.
func (r *Repo) worktreeFiles() (map[string]bool, error) {
	ic := NewIgnoreChecker(r.RootDir)
	files := make(map[string]bool)

	err := filepath.WalkDir(r.RootDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
