package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, sub := range []string{"objects", filepath.Join("refs", "heads"), filepath.Join("refs", "tags")} {
		info, err := os.Stat(filepath.Join(r.BitDir, sub))
		if err != nil || !info.IsDir() {
			t.Fatalf(".bit/%s missing: %v", sub, err)
		}
	}

	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "refs/heads/main" {
		t.Fatalf("HEAD = %q, want refs/heads/main", head)
	}

	// Re-initializing an existing repository is refused.
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init should fail")
	}
}

func TestOpenFindsRepoFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sub := filepath.Join(dir, "deep", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(r.RootDir)
	if got != want {
		t.Fatalf("RootDir = %q, want %q", got, want)
	}
}

func TestOpenOutsideRepoFails(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open outside any repository should fail")
	}
}

func TestResolveRefUnbornBranch(t *testing.T) {
	r := initTestRepo(t)

	// HEAD points at refs/heads/main, which has no commits yet.
	if _, err := r.ResolveRef("HEAD"); err == nil {
		t.Fatal("resolving an unborn branch should fail")
	}
}
