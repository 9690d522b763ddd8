package object

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced object is absent from the store.
type NotFoundError struct {
	Hash Hash
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %s not found", e.Hash)
}

// CorruptObjectError reports a decompression or decoding failure, or a
// structural violation such as unsorted tree entries.
type CorruptObjectError struct {
	Hash   Hash // may be empty when decoding bytes not yet tied to a hash
	Reason string
}

func (e *CorruptObjectError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("corrupt object: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt object %s: %s", e.Hash, e.Reason)
}

// HashMismatchError reports that re-hashing decoded content did not yield
// the requested id. Always fatal to the operation, never auto-repaired.
type HashMismatchError struct {
	Want Hash
	Got  Hash
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("object %s: hash mismatch (content hashes to %s)", e.Want, e.Got)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func corruptf(h Hash, format string, args ...any) error {
	return &CorruptObjectError{Hash: h, Reason: fmt.Sprintf(format, args...)}
}
