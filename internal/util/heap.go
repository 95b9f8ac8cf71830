// Package util holds small, dependency-free helpers shared across the
// indexing components: a bounded top-k candidate collector, adapted from
// the teacher's internal/util MinHeap/MaxHeap (container/heap-based),
// generalized from uint32/float32 vector ids to string node ids and
// float64 spatial distances, and given a stable id tie-break.
package util

import "container/heap"

// Candidate is a scored id, used to collect bounded k-nearest results.
type Candidate struct {
	ID       string
	Distance float64
}

// maxCandidateHeap is a max-heap on Distance, so the current worst
// candidate sits at the root and can be evicted in O(log k).
type maxCandidateHeap []Candidate

func (h maxCandidateHeap) Len() int { return len(h) }
func (h maxCandidateHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].ID > h[j].ID
}
func (h maxCandidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxCandidateHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *maxCandidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// BoundedCandidates keeps the k candidates with smallest Distance seen so
// far, evicting the current worst when a better one arrives.
type BoundedCandidates struct {
	k int
	h maxCandidateHeap
}

// NewBoundedCandidates constructs a collector retaining at most k entries.
// k <= 0 means unbounded.
func NewBoundedCandidates(k int) *BoundedCandidates {
	return &BoundedCandidates{k: k}
}

// Offer considers c for inclusion in the bounded set.
func (b *BoundedCandidates) Offer(c Candidate) {
	if b.k <= 0 || len(b.h) < b.k {
		heap.Push(&b.h, c)
		return
	}
	if len(b.h) > 0 && (c.Distance < b.h[0].Distance || (c.Distance == b.h[0].Distance && c.ID < b.h[0].ID)) {
		heap.Pop(&b.h)
		heap.Push(&b.h, c)
	}
}

// Sorted drains the collector into ascending-distance order, ties broken
// by id (lexicographic), per the stable-tiebreak requirement on nearest().
func (b *BoundedCandidates) Sorted() []Candidate {
	out := make([]Candidate, len(b.h))
	copy(out, b.h)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Distance < out[i].Distance || (out[j].Distance == out[i].Distance && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Len reports how many candidates are currently retained.
func (b *BoundedCandidates) Len() int { return len(b.h) }
