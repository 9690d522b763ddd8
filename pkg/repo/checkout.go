package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitvcs/bit/pkg/object"
)

// Checkout switches HEAD to the given target, which may be a branch name, a
// tag name, or a commit hash. Branch names keep HEAD symbolic; anything else
// detaches it. The staging area and working tree are rewritten to match the
// target commit's tree.
//
// Checkout refuses to run while the working tree or staging area carry
// uncommitted changes; use ResetHard to discard them.
func (r *Repo) Checkout(target string) error {
	dirty, err := r.hasUncommittedChanges()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if dirty {
		return fmt.Errorf("checkout: uncommitted changes present (commit or reset first)")
	}

	commitHash, headContent, err := r.resolveCheckoutTarget(target)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}

	commit, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}

	lock, err := r.lockStaging()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	defer lock.release()

	if err := r.materializeTree(commit.TreeHash); err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}
	if err := r.writeHead(headContent); err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}
	return nil
}

// ResetHard moves the current branch (or detached HEAD) to the given target
// commit and force-synchronizes the staging area and working tree with it.
// Local modifications are discarded.
func (r *Repo) ResetHard(target string) error {
	commitHash, _, err := r.resolveCheckoutTarget(target)
	if err != nil {
		return fmt.Errorf("reset %q: %w", target, err)
	}

	commit, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return fmt.Errorf("reset %q: %w", target, err)
	}

	lock, err := r.lockStaging()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	defer lock.release()

	if err := r.materializeTree(commit.TreeHash); err != nil {
		return fmt.Errorf("reset %q: %w", target, err)
	}

	head, err := r.Head()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if isRefName(head) {
		if err := r.UpdateRef(head, commitHash); err != nil {
			return fmt.Errorf("reset %q: %w", target, err)
		}
	} else {
		if err := r.writeHead(string(commitHash) + "\n"); err != nil {
			return fmt.Errorf("reset %q: %w", target, err)
		}
	}
	return nil
}

// resolveCheckoutTarget maps a user-supplied target to the commit to check
// out and the new HEAD file content. Branch names stay symbolic.
func (r *Repo) resolveCheckoutTarget(target string) (object.Hash, string, error) {
	branchPath := filepath.Join(r.BitDir, "refs", "heads", target)
	if _, err := os.Stat(branchPath); err == nil {
		h, err := r.ResolveRef("refs/heads/" + target)
		if err != nil {
			return "", "", err
		}
		return h, "ref: refs/heads/" + target + "\n", nil
	}

	h, err := r.ResolveRef(target)
	if err != nil {
		// Not a ref; maybe a raw hash.
		raw := object.Hash(target)
		if !raw.Valid() || !r.Store.Has(raw) {
			return "", "", fmt.Errorf("unknown revision %q", target)
		}
		h = raw
	}

	peeled, err := r.PeelToCommit(h)
	if err != nil {
		return "", "", err
	}
	return peeled, string(peeled) + "\n", nil
}

// materializeTree rewrites the staging area and working tree to match the
// given tree. Files tracked before but absent from the tree are removed,
// along with directories they leave empty. Caller holds the staging lock.
func (r *Repo) materializeTree(treeHash object.Hash) error {
	newStg, err := r.LoadTree(treeHash)
	if err != nil {
		return err
	}
	oldStg, err := r.ReadStaging()
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(newStg.Entries))
	for _, e := range newStg.Entries {
		keep[e.Path] = true
	}

	for _, e := range oldStg.Entries {
		if keep[e.Path] {
			continue
		}
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(e.Path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", e.Path, err)
		}
		r.pruneEmptyDirs(filepath.Dir(absPath))
	}

	for _, e := range newStg.Entries {
		if err := r.writeWorktreeFile(e); err != nil {
			return err
		}
	}

	return r.WriteStaging(newStg)
}

// writeWorktreeFile materializes one staged entry on disk and refreshes the
// entry's cached filesystem metadata from the written file.
func (r *Repo) writeWorktreeFile(e *StagingEntry) error {
	blob, err := r.Store.ReadBlob(e.BlobHash)
	if err != nil {
		return fmt.Errorf("materialize %q: %w", e.Path, err)
	}

	absPath := filepath.Join(r.RootDir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("materialize %q: mkdir: %w", e.Path, err)
	}

	if normalizeFileMode(e.Mode) == object.TreeModeSymlink {
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("materialize %q: %w", e.Path, err)
		}
		if err := os.Symlink(string(blob.Data), absPath); err != nil {
			return fmt.Errorf("materialize %q: symlink: %w", e.Path, err)
		}
	} else {
		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(e.Mode)); err != nil {
			return fmt.Errorf("materialize %q: %w", e.Path, err)
		}
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return fmt.Errorf("materialize %q: stat: %w", e.Path, err)
	}
	e.Size = info.Size()
	e.ModTime = info.ModTime().UnixNano()
	if dev, ino, ok := fileIdentity(info); ok {
		e.Device = dev
		e.Inode = ino
	}
	return nil
}

// pruneEmptyDirs removes now-empty directories upward until the repo root or
// a non-empty directory is reached.
func (r *Repo) pruneEmptyDirs(dir string) {
	for dir != r.RootDir && len(dir) > len(r.RootDir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// hasUncommittedChanges reports whether the staging area or working tree
// differ from HEAD. Untracked files do not count.
func (r *Repo) hasUncommittedChanges() (bool, error) {
	entries, err := r.Status()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.WorkStatus == StatusUntracked && e.IndexStatus == StatusClean {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *Repo) writeHead(content string) error {
	headPath := filepath.Join(r.BitDir, "HEAD")
	tmp, err := os.CreateTemp(r.BitDir, "HEAD-*")
	if err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write HEAD: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write HEAD: %w", err)
	}
	if err := os.Rename(tmpName, headPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// isRefName reports whether a HEAD value is symbolic rather than detached.
func isRefName(head string) bool {
	return strings.HasPrefix(head, "refs/")
}
