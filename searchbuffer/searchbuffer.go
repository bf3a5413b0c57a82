// Package searchbuffer implements the bounded sorted candidate buffer
// used by greedy search: a capacity-C window of the C closest candidates
// seen so far, with a search-window-size W <= C controlling how many of
// those are treated as still expandable. This generalizes the plain
// sorted-insert-and-truncate pattern used for beam search, splitting a
// single "closest so far" list into a frontier (size W, these get
// expanded) and a held-back overflow (up to C) used only for the final
// top-k cut.
package searchbuffer

import "sort"

// Candidate is one entry in the buffer: an internal vector ID and its
// distance to the query.
type Candidate struct {
	ID       int
	Distance float32
}

// Buffer holds up to Capacity candidates sorted by ascending distance,
// deduplicated against a visited set by ID.
type Buffer struct {
	windowSize int
	capacity   int
	items      []Candidate
	visited    map[int]struct{}
}

// New creates a buffer with the given search-window size and total
// capacity. windowSize must be <= capacity; equal values give plain
// (non-split) greedy search behavior.
func New(windowSize, capacity int) *Buffer {
	if capacity < windowSize {
		capacity = windowSize
	}
	return &Buffer{
		windowSize: windowSize,
		capacity:   capacity,
		visited:    make(map[int]struct{}),
	}
}

func (b *Buffer) Len() int { return len(b.items) }

// Visited reports whether id has already been inserted (and thus must
// not be re-expanded), matching the visited-set dedup every greedy
// search implementation in the corpus relies on.
func (b *Buffer) Visited(id int) bool {
	_, ok := b.visited[id]
	return ok
}

// Insert adds a candidate in sorted position if it is not already
// present and the buffer has room or the candidate beats the current
// worst entry. Returns true if the candidate was kept.
func (b *Buffer) Insert(c Candidate) bool {
	if _, ok := b.visited[c.ID]; ok {
		return false
	}
	if len(b.items) >= b.capacity && len(b.items) > 0 && c.Distance >= b.items[len(b.items)-1].Distance {
		return false
	}

	idx := sort.Search(len(b.items), func(i int) bool {
		return b.items[i].Distance > c.Distance
	})
	b.items = append(b.items, Candidate{})
	copy(b.items[idx+1:], b.items[idx:])
	b.items[idx] = c
	if len(b.items) > b.capacity {
		b.items = b.items[:b.capacity]
	}
	b.visited[c.ID] = struct{}{}
	return true
}

// NextUnexpanded returns the closest candidate within the first
// windowSize slots that has not yet been marked expanded, and marks it
// expanded. Returns ok=false once the frontier is exhausted.
func (b *Buffer) NextUnexpanded(expanded map[int]struct{}) (Candidate, bool) {
	limit := b.windowSize
	if limit > len(b.items) {
		limit = len(b.items)
	}
	for i := 0; i < limit; i++ {
		if _, done := expanded[b.items[i].ID]; !done {
			expanded[b.items[i].ID] = struct{}{}
			return b.items[i], true
		}
	}
	return Candidate{}, false
}

// TopK returns the k closest candidates currently held, truncating the
// full capacity-C buffer down to the caller's requested result size.
func (b *Buffer) TopK(k int) []Candidate {
	if k > len(b.items) {
		k = len(b.items)
	}
	out := make([]Candidate, k)
	copy(out, b.items[:k])
	return out
}

// All returns every candidate currently held, sorted by distance.
func (b *Buffer) All() []Candidate {
	out := make([]Candidate, len(b.items))
	copy(out, b.items)
	return out
}
