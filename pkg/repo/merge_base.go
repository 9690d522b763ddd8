package repo

import (
	"container/heap"
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
	log "github.com/sirupsen/logrus"
)

// Node coloring for the coordinated merge-base traversal. A commit painted
// with both parent flags is a common ancestor; once one is found, its own
// ancestors are stale and can never be best.
const (
	flagParent1 uint8 = 1 << 0
	flagParent2 uint8 = 1 << 1
	flagResult  uint8 = 1 << 2
	flagStale   uint8 = 1 << 3
)

// MergeBases finds the set of best common ancestors of a and b: commits
// reachable from both inputs with no other common ancestor reachable from
// them. Criss-cross histories can yield more than one. Disjoint histories
// yield an empty set, not an error.
func (r *Repo) MergeBases(a, b object.Hash) ([]object.Hash, error) {
	if a == "" || b == "" {
		return nil, nil
	}
	if a == b {
		return []object.Hash{a}, nil
	}

	state := r.getMergeTraversalState()
	if cached, ok := state.loadMergeBases(a, b); ok {
		return append([]object.Hash(nil), cached...), nil
	}

	bases, err := r.findMergeBases(state, a, b)
	if err != nil {
		return nil, err
	}
	state.storeMergeBases(a, b, bases)
	log.Debugf("merge-base: %s..%s -> %d candidate(s)", a, b, len(bases))
	return append([]object.Hash(nil), bases...), nil
}

func (r *Repo) findMergeBases(state *mergeBaseTraversalState, a, b object.Hash) ([]object.Hash, error) {
	// Fast path: generation numbers prove or refute ancestry cheaply when
	// one side contains the other.
	genA, err := state.generation(r, a)
	if err != nil {
		return nil, err
	}
	genB, err := state.generation(r, b)
	if err != nil {
		return nil, err
	}
	if genA <= genB {
		if ok, err := r.isAncestor(state, a, b, genA); err != nil {
			return nil, err
		} else if ok {
			return []object.Hash{a}, nil
		}
	} else {
		if ok, err := r.isAncestor(state, b, a, genB); err != nil {
			return nil, err
		} else if ok {
			return []object.Hash{b}, nil
		}
	}

	ctx := &mergeBaseCtxt{repo: r, state: state, flags: make(map[object.Hash]uint8)}
	if err := ctx.buildCandidates(a, b); err != nil {
		return nil, err
	}

	var bases []object.Hash
	for _, h := range ctx.candidates {
		if ctx.flags[h]&flagStale == 0 {
			bases = append(bases, h)
		}
	}
	return bases, nil
}

// isAncestor reports whether ancestor is reachable from descendant. The
// frontier prunes commits at or below the ancestor's generation, since an
// ancestor path can only run through strictly higher generations.
func (r *Repo) isAncestor(state *mergeBaseTraversalState, ancestor, descendant object.Hash, ancestorGen uint64) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	visited := map[object.Hash]struct{}{descendant: {}}
	queue := []object.Hash{descendant}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == ancestor {
			return true, nil
		}

		curGen, err := state.generation(r, cur)
		if err != nil {
			return false, err
		}
		if curGen <= ancestorGen {
			continue
		}

		commit, err := state.readCommit(r, cur)
		if err != nil {
			return false, err
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, ok := visited[p]; ok {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return false, nil
}

type mergeBaseCtxt struct {
	repo       *Repo
	state      *mergeBaseTraversalState
	flags      map[object.Hash]uint8
	pqueue     mergeBaseMaxHeap
	candidates []object.Hash
	index      int
}

func (c *mergeBaseCtxt) push(h object.Hash, commit *object.CommitObj) {
	heap.Push(&c.pqueue, mergeBaseQueueItem{hash: h, commit: commit, index: c.index})
	c.index++
}

// stillInteresting reports whether the frontier can still produce new
// candidates: once every queued node is stale, everything downstream is
// stale too and the search can stop early.
func (c *mergeBaseCtxt) stillInteresting() bool {
	for _, item := range c.pqueue {
		if c.flags[item.hash]&flagStale == 0 {
			return true
		}
	}
	return false
}

// buildCandidates runs the coordinated paint-down. Both inputs expand over
// one shared priority queue (newest first), each commit colored with the
// set of inputs that reach it. The first time a commit carries both colors
// it becomes a candidate, and its parents are painted stale, which
// eventually discards every redundant candidate.
func (c *mergeBaseCtxt) buildCandidates(a, b object.Hash) error {
	commitA, err := c.state.readCommit(c.repo, a)
	if err != nil {
		return err
	}
	commitB, err := c.state.readCommit(c.repo, b)
	if err != nil {
		return err
	}
	c.flags[a] |= flagParent1
	c.push(a, commitA)
	c.flags[b] |= flagParent2
	c.push(b, commitB)

	for c.stillInteresting() {
		if c.pqueue.Len() == 0 {
			break
		}
		item := heap.Pop(&c.pqueue).(mergeBaseQueueItem)
		flags := c.flags[item.hash]

		// The result flag never propagates to parents.
		parentFlags := flags &^ flagResult

		if flags&(flagParent1|flagParent2) == flagParent1|flagParent2 {
			parentFlags |= flagStale
			if flags&(flagResult|flagStale) == 0 {
				c.flags[item.hash] = flags | flagResult
				c.candidates = append(c.candidates, item.hash)
			}
		}

		for _, p := range item.commit.Parents {
			if p == "" {
				continue
			}
			pflags := c.flags[p]
			if pflags&parentFlags == parentFlags {
				continue
			}
			parent, err := c.state.readCommit(c.repo, p)
			if err != nil {
				return err
			}
			c.flags[p] = pflags | parentFlags
			c.push(p, parent)
		}
	}
	return nil
}

// MergeBase resolves the single best common ancestor of a and b. When the
// history is criss-crossed and several best ancestors exist, the choice is
// surfaced as an AmbiguousMergeBaseError rather than resolved arbitrarily;
// callers wanting a deterministic pick use MergeBaseFirst. No common
// ancestor resolves to an empty hash, not an error.
func (r *Repo) MergeBase(a, b object.Hash) (object.Hash, error) {
	bases, err := r.MergeBases(a, b)
	if err != nil {
		return "", err
	}
	switch len(bases) {
	case 0:
		return "", nil
	case 1:
		return bases[0], nil
	default:
		return "", &AmbiguousMergeBaseError{Candidates: bases}
	}
}

// MergeBaseFirst resolves a single merge base with the documented tie-break
// policy: the first candidate discovered by the coordinated traversal
// (deterministic for a given graph).
func (r *Repo) MergeBaseFirst(a, b object.Hash) (object.Hash, error) {
	bases, err := r.MergeBases(a, b)
	if err != nil {
		return "", err
	}
	if len(bases) == 0 {
		return "", nil
	}
	return bases[0], nil
}

// MergeBasesMany extends the resolution to more than two inputs by folding:
// the best ancestors of the first pair are each resolved against the next
// input, keeping the union of the results.
func (r *Repo) MergeBasesMany(inputs []object.Hash) ([]object.Hash, error) {
	switch len(inputs) {
	case 0:
		return nil, nil
	case 1:
		return []object.Hash{inputs[0]}, nil
	}

	bases, err := r.MergeBases(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	for _, next := range inputs[2:] {
		seen := make(map[object.Hash]struct{})
		var folded []object.Hash
		for _, base := range bases {
			sub, err := r.MergeBases(base, next)
			if err != nil {
				return nil, err
			}
			for _, h := range sub {
				if _, ok := seen[h]; ok {
					continue
				}
				seen[h] = struct{}{}
				folded = append(folded, h)
			}
		}
		bases = folded
		if len(bases) == 0 {
			return nil, nil
		}
	}
	return bases, nil
}

// IsAncestor reports whether ancestor is reachable from descendant by
// parent edges.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	if ancestor == "" || descendant == "" {
		return false, nil
	}
	state := r.getMergeTraversalState()
	gen, err := state.generation(r, ancestor)
	if err != nil {
		return false, fmt.Errorf("is ancestor: %w", err)
	}
	return r.isAncestor(state, ancestor, descendant, gen)
}
