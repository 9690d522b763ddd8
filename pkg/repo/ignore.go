package repo

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreChecker determines whether a repo-relative path should be ignored
// by worktree scans. It always ignores the .bit/ and .git/ directories;
// additional patterns come from a .bitignore file at the repo root.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool // pattern contains a slash, match against the full path
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository root.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{
			{pattern: ".bit"},
			{pattern: ".git"},
		},
	}

	f, err := os.Open(filepath.Join(repoRoot, ".bitignore"))
	if err != nil {
		return ic
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p := parseIgnoreLine(scanner.Text()); p != nil {
			ic.patterns = append(ic.patterns, *p)
		}
	}
	return ic
}

// parseIgnoreLine parses one .bitignore line. Returns nil for blank lines
// and comments.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	p.anchored = p.anchored || strings.Contains(line, "/")
	p.pattern = line
	if p.pattern == "" {
		return nil
	}
	return &p
}

// IsIgnored reports whether the given repo-relative (forward-slash) path is
// ignored. Later patterns win, so a negation can re-include an earlier
// match.
func (ic *IgnoreChecker) IsIgnored(relPath string, isDir bool) bool {
	ignored := false
	for _, p := range ic.patterns {
		if p.dirOnly && !isDir && !hasIgnoredParent(relPath, p) {
			continue
		}
		if p.matches(relPath) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p ignorePattern) matches(relPath string) bool {
	if p.anchored {
		if ok, _ := path.Match(p.pattern, relPath); ok {
			return true
		}
		// A directory pattern also covers everything beneath it.
		return strings.HasPrefix(relPath, p.pattern+"/")
	}

	// Unanchored patterns match any path segment.
	for _, seg := range strings.Split(relPath, "/") {
		if ok, _ := path.Match(p.pattern, seg); ok {
			return true
		}
	}
	return false
}

func hasIgnoredParent(relPath string, p ignorePattern) bool {
	dir := path.Dir(relPath)
	for dir != "." && dir != "/" {
		if p.matches(dir) {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}
