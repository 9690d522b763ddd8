package main

import (
	"strings"
	"testing"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
)

func TestVerifyCmd_CleanRepo(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}
	writeRepoFile(t, dir, "a.txt", "content\n")
	stageAndCommit(t, r, "a.txt", "initial", 1000)

	output := runInDir(t, dir, newVerifyCmd)
	if !strings.Contains(output, "ok:") {
		t.Fatalf("verify output = %q, want ok", output)
	}
}

func TestMergeBaseCmd(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "f.txt", "base\n")
	base := stageAndCommit(t, r, "f.txt", "base", 1000)
	if err := r.CreateBranch("other", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	writeRepoFile(t, dir, "f.txt", "main work\n")
	stageAndCommit(t, r, "f.txt", "main work", 2000)

	output := runInDir(t, dir, newMergeBaseCmd, "main", "other")
	if strings.TrimSpace(output) != string(base) {
		t.Fatalf("merge-base = %q, want %s", output, base)
	}
}

func TestDiffCmd_NameStatus(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "a.txt", "1\n")
	stageAndCommit(t, r, "a.txt", "initial", 1000)

	writeRepoFile(t, dir, "a.txt", "3\n")
	writeRepoFile(t, dir, "b.txt", "new\n")
	if err := r.Add([]string{
		dir + "/a.txt",
		dir + "/b.txt",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	output := runInDir(t, dir, newDiffCmd, "--name-status")
	lines := nonEmptyLines(output)
	if len(lines) != 2 {
		t.Fatalf("diff lines = %v, want 2", lines)
	}
	if lines[0] != "M  a.txt" || lines[1] != "A  b.txt" {
		t.Fatalf("diff = %v, want [M  a.txt, A  b.txt]", lines)
	}
}

func TestDiffCmd_Patch(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "a.txt", "1\n")
	stageAndCommit(t, r, "a.txt", "initial", 1000)
	writeRepoFile(t, dir, "a.txt", "3\n")
	if err := r.Add([]string{dir + "/a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	output := runInDir(t, dir, newDiffCmd)
	for _, want := range []string{"diff --bit a/a.txt b/a.txt", "-1", "+3"} {
		if !strings.Contains(output, want) {
			t.Fatalf("patch missing %q:\n%s", want, output)
		}
	}
}

func TestDiffCmd_AnnotatedTagRevision(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "a.txt", "1\n")
	base := stageAndCommit(t, r, "a.txt", "initial", 1000)
	tagger := object.Signature{Name: "Rel", Email: "rel@example.com", When: 1500, Offset: "+0000"}
	if _, err := r.CreateAnnotatedTag("v1", base, tagger, "release one\n", false); err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}
	writeRepoFile(t, dir, "a.txt", "2\n")
	stageAndCommit(t, r, "a.txt", "second", 2000)

	// The tag ref points at a tag object; diff must peel it to the commit.
	output := runInDir(t, dir, newDiffCmd, "--name-status", "v1", "main")
	lines := nonEmptyLines(output)
	if len(lines) != 1 || lines[0] != "M  a.txt" {
		t.Fatalf("diff v1 main = %v, want [M  a.txt]", lines)
	}
}
