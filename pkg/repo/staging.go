package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/bitvcs/bit/pkg/object"
)

// StagingEntry records the staged state of a single file. The cached
// filesystem metadata (size, mtime, device/inode identity) is only a
// staleness heuristic; content identity always comes from BlobHash.
type StagingEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Mode     string      `json:"mode"`
	Size     int64       `json:"size"`
	ModTime  int64       `json:"mtime_ns"`
	Device   uint64      `json:"dev,omitempty"`
	Inode    uint64      `json:"ino,omitempty"`
}

// Staging holds the full staging area (index) for a bit repository:
// an ordered, path-unique list of entries, sorted by path byte order so the
// set is binary-searchable and tree construction is deterministic.
type Staging struct {
	Entries []*StagingEntry `json:"entries"`
}

// Lookup finds the entry for a path by binary search.
func (s *Staging) Lookup(path string) (*StagingEntry, bool) {
	i := sort.Search(len(s.Entries), func(i int) bool {
		return s.Entries[i].Path >= path
	})
	if i < len(s.Entries) && s.Entries[i].Path == path {
		return s.Entries[i], true
	}
	return nil, false
}

// Set inserts or replaces an entry, preserving the path order invariant.
func (s *Staging) Set(e *StagingEntry) {
	i := sort.Search(len(s.Entries), func(i int) bool {
		return s.Entries[i].Path >= e.Path
	})
	if i < len(s.Entries) && s.Entries[i].Path == e.Path {
		s.Entries[i] = e
		return
	}
	s.Entries = append(s.Entries, nil)
	copy(s.Entries[i+1:], s.Entries[i:])
	s.Entries[i] = e
}

// Remove deletes the entry for a path. Reports whether it was present.
func (s *Staging) Remove(path string) bool {
	i := sort.Search(len(s.Entries), func(i int) bool {
		return s.Entries[i].Path >= path
	})
	if i >= len(s.Entries) || s.Entries[i].Path != path {
		return false
	}
	s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
	return true
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.BitDir, "index")
}

// ReadStaging loads the staging area from .bit/index. If the file does not
// exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	sort.Slice(stg.Entries, func(i, j int) bool {
		return stg.Entries[i].Path < stg.Entries[j].Path
	})
	return &stg, nil
}

// WriteStaging atomically writes the staging area to .bit/index.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.BitDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given file paths. Each path is resolved relative to the
// repo root, its content written as a blob to the object store, and a
// StagingEntry inserted in path order. Hashing fans out across a bounded
// worker pool; insertion happens on one goroutine under the staging lock
// since the sorted slice is not safe for concurrent mutation.
func (r *Repo) Add(paths []string) error {
	lock, err := r.lockStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer lock.release()

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	relPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}
		relPaths = append(relPaths, relPath)
	}

	entries, err := r.hashFiles(relPaths)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	for _, e := range entries {
		stg.Set(e)
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// hashFiles reads and stores a blob for every path, in parallel. Results
// come back in input order; the first error wins.
func (r *Repo) hashFiles(relPaths []string) ([]*StagingEntry, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(relPaths) {
		workers = len(relPaths)
	}
	if workers < 1 {
		workers = 1
	}

	entries := make([]*StagingEntry, len(relPaths))
	errs := make([]error, len(relPaths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entries[i], errs[i] = r.stageFile(relPaths[i])
			}
		}()
	}
	for i := range relPaths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", relPaths[i], err)
		}
	}
	return entries, nil
}

func (r *Repo) stageFile(relPath string) (*StagingEntry, error) {
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, err
	}
	content, err := worktreeContent(absPath, info)
	if err != nil {
		return nil, err
	}

	blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
	if err != nil {
		return nil, err
	}

	entry := &StagingEntry{
		Path:     relPath,
		BlobHash: blobHash,
		Mode:     modeFromFileInfo(info),
		Size:     info.Size(),
		ModTime:  info.ModTime().UnixNano(),
	}
	if dev, ino, ok := fileIdentity(info); ok {
		entry.Device = dev
		entry.Inode = ino
	}
	return entry, nil
}

// Unstage removes the given paths from the staging area. Unknown paths fail
// with NotTrackedError; nothing is written when any path fails.
func (r *Repo) Unstage(paths []string) error {
	lock, err := r.lockStaging()
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	defer lock.release()

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("unstage: resolve path %q: %w", p, err)
		}
		if !stg.Remove(relPath) {
			return fmt.Errorf("unstage: %w", &NotTrackedError{Path: relPath})
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	return nil
}

// Remove unstages the given paths and, unless cached is set, deletes them
// from the working tree as well. Unknown paths fail with NotTrackedError
// before anything is touched.
func (r *Repo) Remove(paths []string, cached bool) error {
	lock, err := r.lockStaging()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	defer lock.release()

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	relPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("rm: resolve path %q: %w", p, err)
		}
		if _, ok := stg.Lookup(relPath); !ok {
			return fmt.Errorf("rm: %w", &NotTrackedError{Path: relPath})
		}
		relPaths = append(relPaths, relPath)
	}

	for _, relPath := range relPaths {
		stg.Remove(relPath)
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	if !cached {
		for _, relPath := range relPaths {
			absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
			if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("rm %q: %w", relPath, err)
			}
			r.pruneEmptyDirs(filepath.Dir(absPath))
		}
	}
	return nil
}

// MatchesMetadata reports whether live file metadata matches the entry's
// cached fingerprint. A match is only a fast-path hint; see entryStale.
func (e *StagingEntry) MatchesMetadata(info os.FileInfo) bool {
	if info.Size() != e.Size || info.ModTime().UnixNano() != e.ModTime {
		return false
	}
	if modeFromFileInfo(info) != normalizeFileMode(e.Mode) {
		return false
	}
	if dev, ino, ok := fileIdentity(info); ok && (e.Device != 0 || e.Inode != 0) {
		if dev != e.Device || ino != e.Inode {
			return false
		}
	}
	return true
}

// entryStale decides whether the worktree file differs from the staged blob.
// Mismatched metadata means stale without reading content. Matching metadata
// is trusted only when the file's mtime predates the index write; a file
// modified in the same instant the index was written (racily clean) falls
// back to re-hashing, preferring correctness over the fast path.
func (r *Repo) entryStale(e *StagingEntry, absPath string, info os.FileInfo, indexMTime int64) (bool, error) {
	if !e.MatchesMetadata(info) {
		return true, nil
	}
	if e.ModTime < indexMTime {
		return false, nil
	}

	data, err := worktreeContent(absPath, info)
	if err != nil {
		return false, fmt.Errorf("rehash %q: %w", e.Path, err)
	}
	return object.HashObject(object.TypeBlob, data) != e.BlobHash, nil
}

// worktreeContent reads the blob content for a worktree path: the link
// target for a symlink (info must come from Lstat), file bytes otherwise.
func worktreeContent(absPath string, info os.FileInfo) ([]byte, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(absPath)
		if err != nil {
			return nil, err
		}
		return []byte(target), nil
	}
	return os.ReadFile(absPath)
}

// indexMTime returns the mtime of the staging index file in nanoseconds,
// or zero when no index exists yet.
func (r *Repo) indexMTime() int64 {
	info, err := os.Stat(r.indexPath())
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and does
// not start with the repo root, it is assumed to already be repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// If the relative path escapes the repo root, treat the original p as
	// already repo-relative.
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}
