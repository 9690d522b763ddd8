package repo

import (
	"errors"
	"testing"

	"github.com/bitvcs/bit/pkg/object"
)

func TestMergeBaseLinearHistory(t *testing.T) {
	r := initTestRepo(t)

	c1 := makeCommit(t, r, "one", 1000)
	c2 := makeCommit(t, r, "two", 2000, c1)
	c3 := makeCommit(t, r, "three", 3000, c2)

	// When one input is an ancestor of the other, the base is the ancestor.
	base, err := r.MergeBase(c1, c3)
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}
	if base != c1 {
		t.Fatalf("MergeBase = %s, want %s", base, c1)
	}

	// Order of arguments does not matter.
	base, err = r.MergeBase(c3, c1)
	if err != nil {
		t.Fatalf("MergeBase reversed: %v", err)
	}
	if base != c1 {
		t.Fatalf("MergeBase reversed = %s, want %s", base, c1)
	}
}

func TestMergeBaseSelf(t *testing.T) {
	r := initTestRepo(t)
	c := makeCommit(t, r, "only", 1000)

	base, err := r.MergeBase(c, c)
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}
	if base != c {
		t.Fatalf("MergeBase(c, c) = %s, want %s", base, c)
	}
}

func TestMergeBaseDiamond(t *testing.T) {
	r := initTestRepo(t)

	base := makeCommit(t, r, "base", 1000)
	left := makeCommit(t, r, "left", 2000, base)
	right := makeCommit(t, r, "right", 3000, base)

	got, err := r.MergeBase(left, right)
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}
	if got != base {
		t.Fatalf("MergeBase = %s, want %s", got, base)
	}
}

func TestMergeBaseSkipsStaleAncestors(t *testing.T) {
	r := initTestRepo(t)

	// older is an ancestor of newer; only newer is a best common ancestor.
	older := makeCommit(t, r, "older", 1000)
	newer := makeCommit(t, r, "newer", 2000, older)
	left := makeCommit(t, r, "left", 3000, newer)
	right := makeCommit(t, r, "right", 4000, newer, older)

	bases, err := r.MergeBases(left, right)
	if err != nil {
		t.Fatalf("MergeBases: %v", err)
	}
	if len(bases) != 1 || bases[0] != newer {
		t.Fatalf("MergeBases = %v, want [%s]", bases, newer)
	}
}

func TestMergeBaseCrissCross(t *testing.T) {
	r := initTestRepo(t)

	//     a---c---e
	//      \ / \ /
	//       X   X
	//      / \ / \
	//     b---d---f
	//
	// e and f each descend from both c and d, so both c and d are best
	// common ancestors of (e, f).
	a := makeCommit(t, r, "a", 1000)
	b := makeCommit(t, r, "b", 1100)
	c := makeCommit(t, r, "c", 2000, a, b)
	d := makeCommit(t, r, "d", 2100, a, b)
	e := makeCommit(t, r, "e", 3000, c, d)
	f := makeCommit(t, r, "f", 3100, c, d)

	bases, err := r.MergeBases(e, f)
	if err != nil {
		t.Fatalf("MergeBases: %v", err)
	}
	if len(bases) != 2 {
		t.Fatalf("MergeBases = %v, want two candidates", bases)
	}
	found := map[object.Hash]bool{}
	for _, h := range bases {
		found[h] = true
	}
	if !found[c] || !found[d] {
		t.Fatalf("MergeBases = %v, want {%s, %s}", bases, c, d)
	}

	// The single-result form refuses to pick silently.
	_, err = r.MergeBase(e, f)
	var ambiguous *AmbiguousMergeBaseError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("MergeBase error = %v, want AmbiguousMergeBaseError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Fatalf("Candidates = %v, want 2", ambiguous.Candidates)
	}

	// The policy form picks the first candidate deterministically.
	first, err := r.MergeBaseFirst(e, f)
	if err != nil {
		t.Fatalf("MergeBaseFirst: %v", err)
	}
	if first != bases[0] {
		t.Fatalf("MergeBaseFirst = %s, want %s", first, bases[0])
	}
}

func TestMergeBaseDisjointHistories(t *testing.T) {
	r := initTestRepo(t)

	a := makeCommit(t, r, "rootless a", 1000)
	b := makeCommit(t, r, "rootless b", 2000)

	bases, err := r.MergeBases(a, b)
	if err != nil {
		t.Fatalf("MergeBases: %v", err)
	}
	if len(bases) != 0 {
		t.Fatalf("MergeBases = %v, want none", bases)
	}

	base, err := r.MergeBase(a, b)
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}
	if base != "" {
		t.Fatalf("MergeBase = %s, want empty", base)
	}
}

func TestMergeBasesMany(t *testing.T) {
	r := initTestRepo(t)

	base := makeCommit(t, r, "base", 1000)
	mid := makeCommit(t, r, "mid", 2000, base)
	x := makeCommit(t, r, "x", 3000, mid)
	y := makeCommit(t, r, "y", 3100, mid)
	z := makeCommit(t, r, "z", 3200, base)

	bases, err := r.MergeBasesMany([]object.Hash{x, y, z})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 1 || bases[0] != base {
		t.Fatalf("MergeBasesMany = %v, want [%s]", bases, base)
	}
}

func TestIsAncestor(t *testing.T) {
	r := initTestRepo(t)

	c1 := makeCommit(t, r, "one", 1000)
	c2 := makeCommit(t, r, "two", 2000, c1)
	other := makeCommit(t, r, "other", 3000)

	cases := []struct {
		ancestor, descendant object.Hash
		want                 bool
	}{
		{c1, c2, true},
		{c2, c1, false},
		{c1, c1, true},
		{other, c2, false},
	}
	for _, tc := range cases {
		got, err := r.IsAncestor(tc.ancestor, tc.descendant)
		if err != nil {
			t.Fatalf("IsAncestor(%s, %s): %v", tc.ancestor, tc.descendant, err)
		}
		if got != tc.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tc.ancestor, tc.descendant, got, tc.want)
		}
	}
}

func TestMergeBasesCachedLookupIsStable(t *testing.T) {
	r := initTestRepo(t)

	base := makeCommit(t, r, "base", 1000)
	left := makeCommit(t, r, "left", 2000, base)
	right := makeCommit(t, r, "right", 3000, base)

	first, err := r.MergeBases(left, right)
	if err != nil {
		t.Fatalf("MergeBases: %v", err)
	}
	second, err := r.MergeBases(right, left)
	if err != nil {
		t.Fatalf("MergeBases cached: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("cached result differs: %v vs %v", first, second)
	}

	// Returned slices are copies; mutating one must not poison the cache.
	second[0] = object.Hash("0000000000000000000000000000000000000000")
	third, err := r.MergeBases(left, right)
	if err != nil {
		t.Fatalf("MergeBases after mutation: %v", err)
	}
	if third[0] != base {
		t.Fatalf("cache poisoned: %v", third)
	}
}
