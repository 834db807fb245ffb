package search

import (
	"container/heap"
	"slices"

	"github.com/kailas-cloud/patentdex/internal/domain/search/result"
)

// worstFirst is a max-heap on (distance, id): the root is the candidate to evict next.
type worstFirst []result.Ranked

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return result.Less(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(result.Ranked)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k best candidates seen so far in O(k) memory.
type topK struct {
	k int
	h worstFirst
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(worstFirst, 0, k)}
}

// offer adds c if it beats the current worst kept candidate.
func (t *topK) offer(c result.Ranked) {
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if result.Less(c, t.h[0]) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// sorted returns the kept candidates best first.
func (t *topK) sorted() []result.Ranked {
	out := slices.Clone(t.h)
	slices.SortFunc(out, func(a, b result.Ranked) int {
		switch {
		case result.Less(a, b):
			return -1
		case result.Less(b, a):
			return 1
		}
		return 0
	})
	return out
}
