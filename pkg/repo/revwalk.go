package repo

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
	log "github.com/sirupsen/logrus"
)

// ErrWalkDone is the terminal state of a revision walk: no more commits.
var ErrWalkDone = errors.New("revision walk done")

type revNode struct {
	hash   object.Hash
	commit *object.CommitObj
	index  int
}

// revMaxHeap orders nodes newest-first by committer time; equal timestamps
// fall back to insertion order so traversal is deterministic.
type revMaxHeap []*revNode

func (h revMaxHeap) Len() int { return len(h) }

func (h revMaxHeap) Less(i, j int) bool {
	if h[i].commit.Committer.When == h[j].commit.Committer.When {
		return h[i].index < h[j].index
	}
	return h[i].commit.Committer.When > h[j].commit.Committer.When
}

func (h revMaxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *revMaxHeap) Push(x any) { *h = append(*h, x.(*revNode)) }

func (h *revMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RevWalker lazily enumerates the commits reachable from a set of start
// points, newest first by committer time, each commit exactly once. The
// walk is pull-based and read-only: a consumer may stop calling Next at any
// point with no side effects. A walker is single-use; restart by
// constructing a new one.
type RevWalker struct {
	store *object.Store
	queue revMaxHeap
	seen  map[object.Hash]struct{}
	index int
}

// NewRevWalker creates a walker over the commits reachable from starts.
func (r *Repo) NewRevWalker(starts []object.Hash) (*RevWalker, error) {
	w := &RevWalker{
		store: r.Store,
		seen:  make(map[object.Hash]struct{}),
	}
	for _, h := range starts {
		if err := w.enqueue(h); err != nil {
			return nil, fmt.Errorf("rev walk: %w", err)
		}
	}
	log.Debugf("revwalk: started from %d tip(s)", len(starts))
	return w, nil
}

// enqueue loads and queues a commit unless it was already queued. The seen
// set guarantees the at-most-once property and doubles as the cycle guard:
// a malformed, cyclic graph cannot re-enter the frontier.
func (w *RevWalker) enqueue(h object.Hash) error {
	if h == "" {
		return nil
	}
	if _, ok := w.seen[h]; ok {
		return nil
	}
	commit, err := w.store.ReadCommit(h)
	if err != nil {
		return err
	}
	w.seen[h] = struct{}{}
	heap.Push(&w.queue, &revNode{hash: h, commit: commit, index: w.index})
	w.index++
	return nil
}

// Next returns the next commit in the walk, or ErrWalkDone when the
// reachable set is exhausted.
func (w *RevWalker) Next() (object.Hash, *object.CommitObj, error) {
	if w.queue.Len() == 0 {
		return "", nil, ErrWalkDone
	}
	node := heap.Pop(&w.queue).(*revNode)
	for _, p := range node.commit.Parents {
		if err := w.enqueue(p); err != nil {
			return "", nil, fmt.Errorf("rev walk: parent of %s: %w", node.hash, err)
		}
	}
	return node.hash, node.commit, nil
}

// TopoWalker enumerates reachable commits in strict topological order:
// every commit is emitted before any of its parents. Ties between ready
// commits break by committer time, newest first.
type TopoWalker struct {
	queue   revMaxHeap
	commits map[object.Hash]*object.CommitObj
	pending map[object.Hash]int // children not yet emitted
	emitted int
	index   int
}

// NewTopoWalker eagerly resolves the reachable set from starts (topological
// order needs complete child counts before the first commit can be emitted)
// and returns a pull-based walker over it.
func (r *Repo) NewTopoWalker(starts []object.Hash) (*TopoWalker, error) {
	w := &TopoWalker{
		commits: make(map[object.Hash]*object.CommitObj),
		pending: make(map[object.Hash]int),
	}

	// Reachability pass.
	var stack []object.Hash
	for _, h := range starts {
		if h != "" {
			stack = append(stack, h)
		}
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := w.commits[h]; ok {
			continue
		}
		commit, err := r.Store.ReadCommit(h)
		if err != nil {
			return nil, fmt.Errorf("topo walk: %w", err)
		}
		w.commits[h] = commit
		stack = append(stack, commit.Parents...)
	}

	// Count children per commit within the reachable set.
	for _, commit := range w.commits {
		for _, p := range commit.Parents {
			w.pending[p]++
		}
	}

	for h, commit := range w.commits {
		if w.pending[h] == 0 {
			heap.Push(&w.queue, &revNode{hash: h, commit: commit, index: w.index})
			w.index++
		}
	}
	return w, nil
}

// Next returns the next commit in topological order, or ErrWalkDone. A
// graph where commits remain unemitted after the ready queue drains can
// only be cyclic, which is reported rather than looping forever.
func (w *TopoWalker) Next() (object.Hash, *object.CommitObj, error) {
	if w.queue.Len() == 0 {
		if w.emitted != len(w.commits) {
			return "", nil, fmt.Errorf("topo walk: commit graph cycle detected (%d of %d emitted)",
				w.emitted, len(w.commits))
		}
		return "", nil, ErrWalkDone
	}

	node := heap.Pop(&w.queue).(*revNode)
	w.emitted++
	for _, p := range node.commit.Parents {
		w.pending[p]--
		if w.pending[p] == 0 {
			heap.Push(&w.queue, &revNode{hash: p, commit: w.commits[p], index: w.index})
			w.index++
		}
	}
	return node.hash, node.commit, nil
}
