package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitvcs/bit/pkg/object"
)

// BuildTree converts the flat staging entries into a hierarchical tree,
// writing TreeObj objects to the store and returning the root hash.
//
// Staging entries use forward-slash paths (e.g. "pkg/util/util.go").
// BuildTree groups them by directory and recursively builds subtrees
// bottom-up, so every child hash is known before its parent tree is
// serialized; a tree's write is therefore always sequenced after its
// children's writes.
func (r *Repo) BuildTree(s *Staging) (object.Hash, error) {
	return r.buildTreeDir(s, "")
}

// buildTreeDir builds a TreeObj for the given directory prefix and writes it
// to the store. It returns the tree's hash.
func (r *Repo) buildTreeDir(s *Staging, prefix string) (object.Hash, error) {
	files := make(map[string]*StagingEntry) // name -> entry
	subdirs := make(map[string]struct{})    // immediate child dir names

	for _, entry := range s.Entries {
		var rel string
		if prefix == "" {
			rel = entry.Path
		} else {
			if !strings.HasPrefix(entry.Path, prefix+"/") {
				continue
			}
			rel = entry.Path[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			files[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		// A name cannot be both a file and a directory.
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			entries = append(entries, object.TreeEntry{
				Name: name,
				Mode: normalizeFileMode(entry.Mode),
				Hash: entry.BlobHash,
			})
		} else {
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			subHash, err := r.buildTreeDir(s, childPrefix)
			if err != nil {
				return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
			}
			entries = append(entries, object.TreeEntry{
				Name: name,
				Mode: object.TreeModeDir,
				Hash: subHash,
			})
		}
	}

	treeObj := &object.TreeObj{Entries: entries}
	h, err := r.Store.WriteTree(treeObj)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// LoadTree flattens a tree (recursively) into a fresh staging area, the
// inverse of BuildTree. Used on checkout/reset to resynchronize the staging
// area with a historical commit. The cached filesystem metadata fields stay
// zero; the first status after a load re-hashes as needed.
func (r *Repo) LoadTree(h object.Hash) (*Staging, error) {
	entries, err := r.Store.FlattenTree(h)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	stg := &Staging{Entries: make([]*StagingEntry, 0, len(entries))}
	for _, e := range entries {
		stg.Entries = append(stg.Entries, &StagingEntry{
			Path:     e.Path,
			BlobHash: e.Hash,
			Mode:     e.Mode,
		})
	}
	sort.Slice(stg.Entries, func(i, j int) bool {
		return stg.Entries[i].Path < stg.Entries[j].Path
	})
	return stg, nil
}
