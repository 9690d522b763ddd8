// Package diff computes structural differences between snapshot trees and
// textual differences between blobs.
package diff

import (
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
)

// ChangeKind classifies a single path-level change.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
	TypeChanged // mode class changed (e.g. regular file became a symlink)
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	case TypeChanged:
		return "type-changed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// PathChange describes how one path differs between two trees. OldHash is
// empty for Added, NewHash is empty for Removed.
type PathChange struct {
	Path    string
	Kind    ChangeKind
	OldMode string
	NewMode string
	OldHash object.Hash
	NewHash object.Hash
}

// Trees computes the path-level changes between two trees identified by
// hash. Either hash may be empty, meaning an empty tree. Content equality is
// decided purely by blob identity: equal hashes mean equal content, and no
// blob data is read.
//
// Results are ordered by path. Diffing a tree against itself yields nil.
func Trees(store *object.Store, oldTree, newTree object.Hash) ([]PathChange, error) {
	if oldTree == newTree {
		return nil, nil
	}

	oldEntries, err := flatten(store, oldTree)
	if err != nil {
		return nil, fmt.Errorf("diff: old tree: %w", err)
	}
	newEntries, err := flatten(store, newTree)
	if err != nil {
		return nil, fmt.Errorf("diff: new tree: %w", err)
	}
	return matchEntries(oldEntries, newEntries), nil
}

func flatten(store *object.Store, tree object.Hash) ([]object.TreeFileEntry, error) {
	if tree == "" {
		return nil, nil
	}
	return store.FlattenTree(tree)
}

// matchEntries merge-joins two path-sorted flattened entry lists.
func matchEntries(oldEntries, newEntries []object.TreeFileEntry) []PathChange {
	var changes []PathChange
	i, j := 0, 0

	for i < len(oldEntries) || j < len(newEntries) {
		switch {
		case j >= len(newEntries) || (i < len(oldEntries) && oldEntries[i].Path < newEntries[j].Path):
			e := oldEntries[i]
			changes = append(changes, PathChange{
				Path:    e.Path,
				Kind:    Removed,
				OldMode: e.Mode,
				OldHash: e.Hash,
			})
			i++
		case i >= len(oldEntries) || oldEntries[i].Path > newEntries[j].Path:
			e := newEntries[j]
			changes = append(changes, PathChange{
				Path:    e.Path,
				Kind:    Added,
				NewMode: e.Mode,
				NewHash: e.Hash,
			})
			j++
		default:
			oldE, newE := oldEntries[i], newEntries[j]
			i++
			j++
			if oldE.Hash == newE.Hash && oldE.Mode == newE.Mode {
				continue
			}
			kind := Modified
			if modeClass(oldE.Mode) != modeClass(newE.Mode) {
				kind = TypeChanged
			}
			changes = append(changes, PathChange{
				Path:    oldE.Path,
				Kind:    kind,
				OldMode: oldE.Mode,
				NewMode: newE.Mode,
				OldHash: oldE.Hash,
				NewHash: newE.Hash,
			})
		}
	}
	return changes
}

// modeClass collapses tree modes into coarse type classes: regular files
// (with or without the executable bit) are one class, symlinks and gitlinks
// their own.
func modeClass(mode string) string {
	switch mode {
	case object.TreeModeSymlink, object.TreeModeGitlink:
		return mode
	default:
		return object.TreeModeFile
	}
}
