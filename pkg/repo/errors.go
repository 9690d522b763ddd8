package repo

import (
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
)

// NotTrackedError reports a staging operation on a path the index does not
// know about.
type NotTrackedError struct {
	Path string
}

func (e *NotTrackedError) Error() string {
	return fmt.Sprintf("path %q is not tracked", e.Path)
}

// AmbiguousMergeBaseError reports that a single merge base was requested
// where several best common ancestors exist. Callers must pick a documented
// tie-break policy (see MergeBaseFirst) or refuse to proceed.
type AmbiguousMergeBaseError struct {
	Candidates []object.Hash
}

func (e *AmbiguousMergeBaseError) Error() string {
	return fmt.Sprintf("ambiguous merge base: %d best common ancestors", len(e.Candidates))
}
