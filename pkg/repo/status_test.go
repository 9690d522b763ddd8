package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func statusFor(t *testing.T, r *Repo, path string) (StatusEntry, bool) {
	t.Helper()
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return StatusEntry{}, false
}

func TestStatusCleanRepo(t *testing.T) {
	r := initTestRepo(t)
	commitFile(t, r, "f.txt", []byte("content\n"), "initial", 1000)

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("status = %+v, want clean", entries)
	}
}

func TestStatusUntracked(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "new.txt"), []byte("hi"))

	e, ok := statusFor(t, r, "new.txt")
	if !ok {
		t.Fatal("new.txt not reported")
	}
	if e.WorkStatus != StatusUntracked || e.IndexStatus != StatusClean {
		t.Fatalf("entry = %+v, want untracked", e)
	}
}

func TestStatusStagedNew(t *testing.T) {
	r := initRepoWithFile(t, "staged.txt", []byte("hi"))

	e, ok := statusFor(t, r, "staged.txt")
	if !ok {
		t.Fatal("staged.txt not reported")
	}
	if e.IndexStatus != StatusNew {
		t.Fatalf("IndexStatus = %v, want StatusNew", e.IndexStatus)
	}
	if e.WorkStatus != StatusClean {
		t.Fatalf("WorkStatus = %v, want clean", e.WorkStatus)
	}
}

func TestStatusStagedModified(t *testing.T) {
	r := initTestRepo(t)
	commitFile(t, r, "f.txt", []byte("v1\n"), "initial", 1000)

	writeFile(t, filepath.Join(r.RootDir, "f.txt"), []byte("v2\n"))
	if err := r.Add([]string{filepath.Join(r.RootDir, "f.txt")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e, ok := statusFor(t, r, "f.txt")
	if !ok {
		t.Fatal("f.txt not reported")
	}
	if e.IndexStatus != StatusModified {
		t.Fatalf("IndexStatus = %v, want StatusModified", e.IndexStatus)
	}
}

func TestStatusDirtyWorktree(t *testing.T) {
	r := initTestRepo(t)
	commitFile(t, r, "f.txt", []byte("v1\n"), "initial", 1000)

	path := filepath.Join(r.RootDir, "f.txt")
	writeFile(t, path, []byte("edited after staging\n"))
	past := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	e, ok := statusFor(t, r, "f.txt")
	if !ok {
		t.Fatal("f.txt not reported")
	}
	if e.WorkStatus != StatusDirty {
		t.Fatalf("WorkStatus = %v, want StatusDirty", e.WorkStatus)
	}
}

func TestStatusDeletedFromWorktree(t *testing.T) {
	r := initTestRepo(t)
	commitFile(t, r, "f.txt", []byte("v1\n"), "initial", 1000)

	if err := os.Remove(filepath.Join(r.RootDir, "f.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	e, ok := statusFor(t, r, "f.txt")
	if !ok {
		t.Fatal("f.txt not reported")
	}
	if e.WorkStatus != StatusDeleted {
		t.Fatalf("WorkStatus = %v, want StatusDeleted", e.WorkStatus)
	}
}

func TestStatusDeletedFromIndex(t *testing.T) {
	r := initTestRepo(t)
	commitFile(t, r, "f.txt", []byte("v1\n"), "initial", 1000)

	if err := r.Remove([]string{"f.txt"}, true); err != nil {
		t.Fatalf("Remove --cached: %v", err)
	}

	e, ok := statusFor(t, r, "f.txt")
	if !ok {
		t.Fatal("f.txt not reported")
	}
	if e.IndexStatus != StatusDeleted {
		t.Fatalf("IndexStatus = %v, want StatusDeleted", e.IndexStatus)
	}
}

func TestStatusIgnoresBitignoredFiles(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, filepath.Join(r.RootDir, ".bitignore"), []byte("*.log\nbuild/\n"))
	writeFile(t, filepath.Join(r.RootDir, "debug.log"), []byte("noise"))
	writeFile(t, filepath.Join(r.RootDir, "build", "out.bin"), []byte("artifact"))
	writeFile(t, filepath.Join(r.RootDir, "src.go"), []byte("package x"))

	if _, ok := statusFor(t, r, "debug.log"); ok {
		t.Fatal("ignored debug.log reported")
	}
	if _, ok := statusFor(t, r, "build/out.bin"); ok {
		t.Fatal("file under ignored dir reported")
	}
	if _, ok := statusFor(t, r, "src.go"); !ok {
		t.Fatal("src.go should be reported untracked")
	}
}
