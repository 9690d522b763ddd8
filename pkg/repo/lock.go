package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	stagingLockRetryDelay = 5 * time.Millisecond
	stagingLockWaitLimit  = 2 * time.Second
)

// stagingLock is an exclusive lock on the staging area, held for the
// duration of a logical operation (stage, commit, reset) and released on
// every exit path.
type stagingLock struct {
	path     string
	released bool
}

// lockStaging acquires .bit/index.lock. A second writer blocks until the
// first releases or the wait limit expires.
func (r *Repo) lockStaging() (*stagingLock, error) {
	lockPath := filepath.Join(r.BitDir, "index.lock")
	deadline := time.Now().Add(stagingLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.Close()
			return &stagingLock{path: lockPath}, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("staging area is locked (stale %s?)", lockPath)
			}
			time.Sleep(stagingLockRetryDelay)
			continue
		}
		return nil, fmt.Errorf("lock staging: %w", err)
	}
}

func (l *stagingLock) release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	_ = os.Remove(l.path)
}
