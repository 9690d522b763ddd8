package object

import (
	"fmt"
	"path"
)

// TreeFileEntry represents a single non-directory entry in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash Hash
}

// FlattenTree walks a tree recursively, returning every file entry with its
// full forward-slash path. Entries come back in canonical path order because
// each tree's entries are themselves canonically ordered.
func (s *Store) FlattenTree(h Hash) ([]TreeFileEntry, error) {
	return s.flattenTreeRec(h, "")
}

func (s *Store) flattenTreeRec(h Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := s.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := s.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path: fullPath,
				Mode: entry.Mode,
				Hash: entry.Hash,
			})
		}
	}
	return result, nil
}
