package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitvcs/bit/pkg/object"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func initTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

// initRepoWithFile creates a repo with a single staged file.
func initRepoWithFile(t *testing.T, name string, data []byte) *Repo {
	t.Helper()
	r := initTestRepo(t)
	writeFile(t, filepath.Join(r.RootDir, name), data)
	if err := r.Add([]string{filepath.Join(r.RootDir, name)}); err != nil {
		t.Fatalf("Add %s: %v", name, err)
	}
	return r
}

func testIdent(when int64) *object.Signature {
	return &object.Signature{Name: "Test User", Email: "test@example.com", When: when, Offset: "+0000"}
}

// commitFile writes, stages and commits one file, returning the commit hash.
func commitFile(t *testing.T, r *Repo, name string, data []byte, message string, when int64) object.Hash {
	t.Helper()
	writeFile(t, filepath.Join(r.RootDir, name), data)
	if err := r.Add([]string{filepath.Join(r.RootDir, name)}); err != nil {
		t.Fatalf("Add %s: %v", name, err)
	}
	h, err := r.Commit(message, CommitOpts{Author: testIdent(when)})
	if err != nil {
		t.Fatalf("Commit %q: %v", message, err)
	}
	return h
}

// makeCommit writes a synthetic commit object with explicit parents and
// committer time, for shaping history graphs that plain Commit cannot
// produce (merges, criss-crosses).
func makeCommit(t *testing.T, r *Repo, message string, when int64, parents ...object.Hash) object.Hash {
	t.Helper()

	blobHash, err := r.Store.WriteBlob(&object.Blob{Data: []byte(message)})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	treeHash, err := r.Store.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "f.txt", Mode: object.TreeModeFile, Hash: blobHash},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	ident := *testIdent(when)
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    ident,
		Committer: ident,
		Message:   message + "\n",
	})
	if err != nil {
		t.Fatalf("WriteCommit %q: %v", message, err)
	}
	return h
}
