package repo

import "github.com/bitvcs/bit/pkg/object"

type mergeBaseQueueItem struct {
	hash   object.Hash
	commit *object.CommitObj
	index  int
}

// mergeBaseMaxHeap pops the newest commit first (committer time), breaking
// timestamp ties by insertion order so the coordinated traversal is
// deterministic.
type mergeBaseMaxHeap []mergeBaseQueueItem

func (h mergeBaseMaxHeap) Len() int { return len(h) }

func (h mergeBaseMaxHeap) Less(i, j int) bool {
	if h[i].commit.Committer.When == h[j].commit.Committer.When {
		return h[i].index < h[j].index
	}
	return h[i].commit.Committer.When > h[j].commit.Committer.When
}

func (h mergeBaseMaxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *mergeBaseMaxHeap) Push(x any) {
	*h = append(*h, x.(mergeBaseQueueItem))
}

func (h *mergeBaseMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
