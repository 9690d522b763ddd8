package repo

import (
	"sync"

	"github.com/bitvcs/bit/pkg/object"
)

// Repo represents an opened bit repository. It is an explicit context value
// passed through every operation; there is no ambient global state.
type Repo struct {
	RootDir string        // working directory root
	BitDir  string        // .bit/ directory
	Store   *object.Store // content-addressed object store

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *mergeBaseTraversalState
}

func (r *Repo) getMergeTraversalState() *mergeBaseTraversalState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newMergeBaseTraversalState()
	})
	return r.mergeTraversalState
}
