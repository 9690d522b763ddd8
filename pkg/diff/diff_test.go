package diff

import (
	"strings"
	"testing"

	"github.com/bitvcs/bit/pkg/object"
)

type treeSpec map[string]string // path -> content

// buildTree writes a nested tree for the given flat file map and returns the
// root tree hash.
func buildTree(t *testing.T, s *object.Store, files treeSpec) object.Hash {
	t.Helper()
	return buildTreeDir(t, s, files, "")
}

func buildTreeDir(t *testing.T, s *object.Store, files treeSpec, prefix string) object.Hash {
	t.Helper()

	direct := map[string]string{}
	subdirs := map[string]treeSpec{}
	for p, content := range files {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			name := rel[:idx]
			if subdirs[name] == nil {
				subdirs[name] = files
			}
		} else {
			direct[rel] = content
		}
	}

	var entries []object.TreeEntry
	for name, content := range direct {
		h, err := s.WriteBlob(&object.Blob{Data: []byte(content)})
		if err != nil {
			t.Fatalf("WriteBlob: %v", err)
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: object.TreeModeFile, Hash: h})
	}
	for name := range subdirs {
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		entries = append(entries, object.TreeEntry{
			Name: name,
			Mode: object.TreeModeDir,
			Hash: buildTreeDir(t, s, files, childPrefix),
		})
	}

	h, err := s.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	return h
}

func newTestStore(t *testing.T) *object.Store {
	t.Helper()
	return object.NewStore(t.TempDir())
}

func TestTreesSelfDiffIsEmpty(t *testing.T) {
	s := newTestStore(t)
	tree := buildTree(t, s, treeSpec{"a.txt": "1", "sub/b.txt": "2"})

	changes, err := Trees(s, tree, tree)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("changes = %v, want none", changes)
	}
}

func TestTreesSingleModification(t *testing.T) {
	s := newTestStore(t)
	// Only a.txt changes; b.txt keeps its blob id and must not appear.
	before := buildTree(t, s, treeSpec{"a.txt": "1", "b.txt": "same"})
	after := buildTree(t, s, treeSpec{"a.txt": "3", "b.txt": "same"})

	changes, err := Trees(s, before, after)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want exactly one", changes)
	}
	c := changes[0]
	if c.Path != "a.txt" || c.Kind != Modified {
		t.Fatalf("change = %+v, want a.txt modified", c)
	}
	if c.OldHash == c.NewHash {
		t.Fatal("modified entry carries identical hashes")
	}
}

func TestTreesAddAndRemove(t *testing.T) {
	s := newTestStore(t)
	before := buildTree(t, s, treeSpec{"keep.txt": "k", "old.txt": "o"})
	after := buildTree(t, s, treeSpec{"keep.txt": "k", "new.txt": "n"})

	changes, err := Trees(s, before, after)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want 2", changes)
	}

	// Results are path-ordered: new.txt before old.txt.
	if changes[0].Path != "new.txt" || changes[0].Kind != Added {
		t.Fatalf("changes[0] = %+v, want new.txt added", changes[0])
	}
	if changes[0].OldHash != "" || changes[0].NewHash == "" {
		t.Fatalf("added change hashes = %+v", changes[0])
	}
	if changes[1].Path != "old.txt" || changes[1].Kind != Removed {
		t.Fatalf("changes[1] = %+v, want old.txt removed", changes[1])
	}
	if changes[1].NewHash != "" || changes[1].OldHash == "" {
		t.Fatalf("removed change hashes = %+v", changes[1])
	}
}

func TestTreesAgainstEmptyTree(t *testing.T) {
	s := newTestStore(t)
	tree := buildTree(t, s, treeSpec{"a.txt": "1", "sub/b.txt": "2"})

	changes, err := Trees(s, "", tree)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want 2 additions", changes)
	}
	for _, c := range changes {
		if c.Kind != Added {
			t.Fatalf("change = %+v, want added", c)
		}
	}
}

func TestTreesTypeChanged(t *testing.T) {
	s := newTestStore(t)

	blobA, err := s.WriteBlob(&object.Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	blobB, err := s.WriteBlob(&object.Blob{Data: []byte("target")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	before, err := s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "f", Mode: object.TreeModeFile, Hash: blobA},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	after, err := s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "f", Mode: object.TreeModeSymlink, Hash: blobB},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	changes, err := Trees(s, before, after)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 1 || changes[0].Kind != TypeChanged {
		t.Fatalf("changes = %+v, want one type-changed", changes)
	}
}

func TestTreesExecutableBitIsModification(t *testing.T) {
	s := newTestStore(t)

	blob, err := s.WriteBlob(&object.Blob{Data: []byte("#!/bin/sh\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	before, err := s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "run.sh", Mode: object.TreeModeFile, Hash: blob},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	after, err := s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "run.sh", Mode: object.TreeModeExecutable, Hash: blob},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	changes, err := Trees(s, before, after)
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(changes) != 1 || changes[0].Kind != Modified {
		t.Fatalf("changes = %+v, want one modification (exec bit flip stays in the file class)", changes)
	}
}

func TestFormatChanges(t *testing.T) {
	out := FormatChanges([]PathChange{
		{Path: "added.txt", Kind: Added},
		{Path: "gone.txt", Kind: Removed},
		{Path: "changed.txt", Kind: Modified},
	})
	want := "A  added.txt\nD  gone.txt\nM  changed.txt\n"
	if out != want {
		t.Fatalf("FormatChanges = %q, want %q", out, want)
	}
}
