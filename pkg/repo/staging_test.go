package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitvcs/bit/pkg/object"
)

func TestAddStagesFiles(t *testing.T) {
	r := initTestRepo(t)

	writeFile(t, filepath.Join(r.RootDir, "b.txt"), []byte("bee\n"))
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), []byte("ay\n"))
	writeFile(t, filepath.Join(r.RootDir, "sub", "c.txt"), []byte("see\n"))

	if err := r.Add([]string{
		filepath.Join(r.RootDir, "b.txt"),
		filepath.Join(r.RootDir, "a.txt"),
		filepath.Join(r.RootDir, "sub", "c.txt"),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if len(stg.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(stg.Entries))
	}

	// Entries stay path-sorted regardless of Add order.
	want := []string{"a.txt", "b.txt", "sub/c.txt"}
	for i, e := range stg.Entries {
		if e.Path != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, e.Path, want[i])
		}
	}

	entry, ok := stg.Lookup("a.txt")
	if !ok {
		t.Fatal("Lookup(a.txt) failed")
	}
	if entry.BlobHash != object.HashObject(object.TypeBlob, []byte("ay\n")) {
		t.Fatalf("a.txt blob hash = %s", entry.BlobHash)
	}
	if !r.Store.Has(entry.BlobHash) {
		t.Fatal("staged blob not written to the store")
	}
}

func TestAddOverwritesPreviousVersion(t *testing.T) {
	r := initTestRepo(t)
	path := filepath.Join(r.RootDir, "f.txt")

	writeFile(t, path, []byte("v1"))
	if err := r.Add([]string{path}); err != nil {
		t.Fatalf("Add v1: %v", err)
	}
	writeFile(t, path, []byte("v2"))
	if err := r.Add([]string{path}); err != nil {
		t.Fatalf("Add v2: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if len(stg.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(stg.Entries))
	}
	if stg.Entries[0].BlobHash != object.HashObject(object.TypeBlob, []byte("v2")) {
		t.Fatal("staging entry not updated to the new blob")
	}
}

func TestAddMissingFile(t *testing.T) {
	r := initTestRepo(t)
	if err := r.Add([]string{filepath.Join(r.RootDir, "ghost.txt")}); err == nil {
		t.Fatal("Add of a missing file should fail")
	}
}

func TestUnstage(t *testing.T) {
	r := initRepoWithFile(t, "keep.txt", []byte("keep"))
	writeFile(t, filepath.Join(r.RootDir, "drop.txt"), []byte("drop"))
	if err := r.Add([]string{filepath.Join(r.RootDir, "drop.txt")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Unstage([]string{"drop.txt"}); err != nil {
		t.Fatalf("Unstage: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Lookup("drop.txt"); ok {
		t.Fatal("drop.txt still staged")
	}
	if _, ok := stg.Lookup("keep.txt"); !ok {
		t.Fatal("keep.txt lost")
	}

	// Unstaging leaves the working copy alone.
	if _, err := os.Stat(filepath.Join(r.RootDir, "drop.txt")); err != nil {
		t.Fatalf("working copy removed: %v", err)
	}
}

func TestUnstageUnknownPathIsAtomic(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("a"))

	err := r.Unstage([]string{"a.txt", "ghost.txt"})
	var notTracked *NotTrackedError
	if !errors.As(err, &notTracked) {
		t.Fatalf("error = %v, want NotTrackedError", err)
	}
	if notTracked.Path != "ghost.txt" {
		t.Fatalf("NotTrackedError.Path = %q, want ghost.txt", notTracked.Path)
	}

	// The failed batch must not have removed a.txt.
	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Lookup("a.txt"); !ok {
		t.Fatal("a.txt was removed by a failed batch")
	}
}

func TestRemoveDeletesWorkingCopy(t *testing.T) {
	r := initRepoWithFile(t, "sub/gone.txt", []byte("bye"))

	if err := r.Remove([]string{"sub/gone.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "sub", "gone.txt")); !os.IsNotExist(err) {
		t.Fatal("working copy still present")
	}
	// The now-empty parent directory is cleaned up too.
	if _, err := os.Stat(filepath.Join(r.RootDir, "sub")); !os.IsNotExist(err) {
		t.Fatal("empty parent directory not pruned")
	}
}

func TestRemoveCachedKeepsWorkingCopy(t *testing.T) {
	r := initRepoWithFile(t, "f.txt", []byte("still here"))

	if err := r.Remove([]string{"f.txt"}, true); err != nil {
		t.Fatalf("Remove --cached: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "f.txt")); err != nil {
		t.Fatalf("working copy removed by --cached: %v", err)
	}
	stg, _ := r.ReadStaging()
	if _, ok := stg.Lookup("f.txt"); ok {
		t.Fatal("f.txt still staged")
	}
}

func TestStagingRoundTrip(t *testing.T) {
	r := initRepoWithFile(t, "f.txt", []byte("data"))

	first, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if err := r.WriteStaging(first); err != nil {
		t.Fatalf("WriteStaging: %v", err)
	}
	second, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging again: %v", err)
	}

	if len(second.Entries) != len(first.Entries) {
		t.Fatalf("entries = %d, want %d", len(second.Entries), len(first.Entries))
	}
	for i := range first.Entries {
		if *second.Entries[i] != *first.Entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, second.Entries[i], first.Entries[i])
		}
	}
}

func TestEntryStaleDetectsContentChange(t *testing.T) {
	r := initRepoWithFile(t, "f.txt", []byte("aaaa"))
	path := filepath.Join(r.RootDir, "f.txt")

	// Same size, different content, mtime pushed into the past so the
	// metadata fast path cannot declare it clean.
	writeFile(t, path, []byte("bbbb"))
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entry, _ := stg.Lookup("f.txt")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	stale, err := r.entryStale(entry, path, info, r.indexMTime())
	if err != nil {
		t.Fatalf("entryStale: %v", err)
	}
	if !stale {
		t.Fatal("changed content not detected as stale")
	}
}

func TestAddSymlinkStagesLinkTarget(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "target.txt"), []byte("target content\n"))

	linkPath := filepath.Join(r.RootDir, "link")
	if err := os.Symlink("target.txt", linkPath); err != nil {
		t.Skipf("symlinks not supported here: %v", err)
	}
	if err := r.Add([]string{linkPath}); err != nil {
		t.Fatalf("Add link: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entry, ok := stg.Lookup("link")
	if !ok {
		t.Fatal("link not staged")
	}
	if entry.Mode != object.TreeModeSymlink {
		t.Fatalf("staged mode = %q, want %q", entry.Mode, object.TreeModeSymlink)
	}

	// The blob holds the link target, not the target file's content.
	blob, err := r.Store.ReadBlob(entry.BlobHash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "target.txt" {
		t.Fatalf("staged blob = %q, want link target target.txt", blob.Data)
	}
}
