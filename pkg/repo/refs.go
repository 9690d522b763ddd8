package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitvcs/bit/pkg/object"
)

// ListRefs lists references under .bit/refs.
// Names are returned relative to refs root, e.g. "heads/main", "tags/v1".
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.BitDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[name] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// RefTips resolves every ref under .bit/refs plus HEAD to a set of commit
// start points for history traversal. Tag refs pointing at tag objects are
// peeled to their target commit.
func (r *Repo) RefTips() ([]object.Hash, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}

	seen := make(map[object.Hash]struct{})
	var tips []object.Hash
	add := func(h object.Hash) {
		if h == "" {
			return
		}
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		tips = append(tips, h)
	}

	if head, err := r.ResolveRef("HEAD"); err == nil {
		add(head)
	}
	for _, h := range refs {
		peeled, err := r.PeelToCommit(h)
		if err != nil {
			return nil, err
		}
		add(peeled)
	}
	return tips, nil
}

// PeelToCommit follows tag objects until a non-tag object is reached, so
// annotated-tag refs can be handed to commit-level operations.
func (r *Repo) PeelToCommit(h object.Hash) (object.Hash, error) {
	for {
		objType, data, err := r.Store.Read(h)
		if err != nil {
			return "", fmt.Errorf("peel %s: %w", h, err)
		}
		if objType != object.TypeTag {
			return h, nil
		}
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return "", fmt.Errorf("peel %s: %w", h, err)
		}
		h = tag.TargetHash
	}
}
