package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitvcs/bit/pkg/object"
)

var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Init creates a new bit repository at path. It creates the .bit/ directory
// structure: HEAD, objects/, and refs/heads/. Returns an error if a .bit/
// directory already exists.
func Init(path string) (*Repo, error) {
	bitDir := filepath.Join(path, ".bit")

	if _, err := os.Stat(bitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", bitDir)
	}

	dirs := []string{
		filepath.Join(bitDir, "objects"),
		filepath.Join(bitDir, "refs", "heads"),
		filepath.Join(bitDir, "refs", "tags"),
		filepath.Join(bitDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(bitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		BitDir:  bitDir,
		Store:   object.NewStore(bitDir),
	}, nil
}

// Open searches upward from path for a .bit/ directory and opens the
// repository. Returns an error if no .bit/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		bitDir := filepath.Join(cur, ".bit")
		info, err := os.Stat(bitDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				BitDir:  bitDir,
				Store:   object.NewStore(bitDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a bit repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .bit/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.BitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .bit/<name>.
//  3. Otherwise, try "refs/heads/<name>", then "refs/tags/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		// Detached HEAD: the value is a hash.
		return object.Hash(head), nil
	}

	var candidates []string
	if strings.HasPrefix(name, "refs/") {
		candidates = []string{filepath.Join(r.BitDir, filepath.FromSlash(name))}
	} else {
		candidates = []string{
			filepath.Join(r.BitDir, "refs", "heads", name),
			filepath.Join(r.BitDir, "refs", "tags", name),
		}
	}

	for _, refPath := range candidates {
		data, err := os.ReadFile(refPath)
		if err == nil {
			return object.Hash(strings.TrimRight(string(data), "\n")), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
	}
	return "", fmt.Errorf("resolve ref %q: %w", name, os.ErrNotExist)
}

// UpdateRef writes a hash to the named ref file under .bit/. Parent
// directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file under .bit/ using
// lockfile + rename atomic semantics. If expectedOld is provided, the
// update only succeeds when the current ref hash matches it.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	hasExpectedOld := len(expectedOld) == 1
	wantOldHash := object.Hash("")
	if hasExpectedOld {
		wantOldHash = expectedOld[0]
	}

	refPath := filepath.Join(r.BitDir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if hasExpectedOld && oldHash != wantOldHash {
		return fmt.Errorf("update ref %q: %w (expected %s, found %s)",
			name, ErrRefCASMismatch, wantOldHash, oldHash)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return fmt.Errorf("update ref %q: reflog: %w", name, err)
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}
