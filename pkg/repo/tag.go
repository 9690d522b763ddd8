package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bitvcs/bit/pkg/object"
)

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if strings.TrimSpace(string(target)) == "" {
		return fmt.Errorf("create tag: target hash is required")
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateAnnotatedTag creates or updates an annotated tag ref under
// refs/tags/. The ref points at a stored tag object, which in turn points
// at target.
func (r *Repo) CreateAnnotatedTag(name string, target object.Hash, tagger object.Signature, message string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	if strings.TrimSpace(string(target)) == "" {
		return "", fmt.Errorf("create annotated tag: target hash is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("create annotated tag: message is required")
	}
	if tagger.When == 0 {
		tagger.When = time.Now().Unix()
	}

	targetType, _, err := r.Store.Read(target)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return "", fmt.Errorf("create annotated tag: tag %q already exists", name)
		}
	}

	tagObj := &object.TagObj{
		TargetHash: target,
		TargetType: targetType,
		Name:       name,
		Tagger:     tagger,
		Message:    message + "\n",
	}
	tagHash, err := r.Store.WriteTag(tagObj)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}

	if err := r.UpdateRef(refName, tagHash); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	return tagHash, nil
}

// ListTags returns tag names sorted alphabetically.
func (r *Repo) ListTags() ([]string, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	var names []string
	for name := range refs {
		names = append(names, strings.TrimPrefix(name, "tags/"))
	}
	sort.Strings(names)
	return names, nil
}

// ListTagsWithHashes returns tag names mapped to the hash their ref stores
// (the tag object hash for annotated tags, the target itself otherwise).
func (r *Repo) ListTagsWithHashes() (map[string]object.Hash, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make(map[string]object.Hash, len(refs))
	for name, h := range refs {
		tags[strings.TrimPrefix(name, "tags/")] = h
	}
	return tags, nil
}

// DeleteTag removes a tag ref. The tag object of an annotated tag stays in
// the store.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	refName := "refs/tags/" + name
	if _, err := r.ResolveRef(refName); err != nil {
		return fmt.Errorf("delete tag: tag %q not found", name)
	}
	if err := os.Remove(filepath.Join(r.BitDir, "refs", "tags", name)); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.ContainsAny(name, " \t\n/\\") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}
