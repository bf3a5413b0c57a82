package vamana

import (
	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/searchbuffer"
)

// BatchIterator performs a stateful incremental search: each call to
// Next widens the underlying search window as needed and returns the next
// batch of distinct, not-yet-returned neighbors in increasing-distance
// order. It holds back any over-fetched candidates in an overflow buffer
// rather than discarding them, so later batches can return them; each
// widening reruns the greedy search from the entry point with the larger
// window.
type BatchIterator struct {
	ds         dataset.Source
	graph      *Graph
	fn         distance.Functor
	query      []float32
	windowSize int
	batchSize  int
	returned   map[int]struct{}
	overflow   []searchbuffer.Candidate
	exhausted  bool
}

func NewBatchIterator(ds dataset.Source, g *Graph, fn distance.Functor, query []float32, initialWindow, batchSize int) *BatchIterator {
	return &BatchIterator{
		ds:         ds,
		graph:      g,
		fn:         fn,
		query:      query,
		windowSize: initialWindow,
		batchSize:  batchSize,
		returned:   make(map[int]struct{}),
	}
}

// Next returns the next batch of up to batchSize distinct results. If
// the underlying search panics, the iterator's state is restored before
// the panic propagates, so a failed call never leaves the iterator in a
// half-advanced state.
func (it *BatchIterator) Next() ([]searchbuffer.Candidate, bool) {
	if it.exhausted {
		return nil, false
	}
	saved := *it
	defer func() {
		if r := recover(); r != nil {
			*it = saved
			panic(r)
		}
	}()

	startWindow := it.windowSize
	for len(it.overflow) < it.batchSize {
		buf := GreedySearch(it.ds, it.graph, it.fn, it.query, it.windowSize, it.windowSize)
		all := buf.All()

		fresh := make([]searchbuffer.Candidate, 0, len(all))
		for _, c := range all {
			if _, done := it.returned[c.ID]; done {
				continue
			}
			fresh = append(fresh, c)
		}

		it.windowSize *= 2
		if len(fresh) <= len(it.overflow) && it.windowSize > startWindow*8 {
			// Widened repeatedly with no new candidates surfacing: the
			// graph has nothing left to offer this query.
			it.exhausted = true
			break
		}
		it.overflow = dedupeMerge(it.overflow, fresh)
	}

	if len(it.overflow) == 0 {
		it.exhausted = true
		return nil, false
	}

	n := it.batchSize
	if n > len(it.overflow) {
		n = len(it.overflow)
	}
	batch := make([]searchbuffer.Candidate, n)
	copy(batch, it.overflow[:n])
	it.overflow = it.overflow[n:]
	for _, c := range batch {
		it.returned[c.ID] = struct{}{}
	}
	if n < it.batchSize {
		it.exhausted = true
	}
	return batch, true
}

func dedupeMerge(a, b []searchbuffer.Candidate) []searchbuffer.Candidate {
	seen := make(map[int]bool, len(a))
	out := make([]searchbuffer.Candidate, 0, len(a)+len(b))
	for _, c := range a {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	for _, c := range b {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Distance < out[j-1].Distance; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// LabeledBatchIterator supports multiple vectors per external label,
// returning at most one (the closest) result per label per batch. This
// supplements spec §4.14's bare per-vector iterator with the
// multi-vector surface documented in the original's multi.h. The label
// map is copied at construction time: later changes to the caller's map
// are not seen, so a label removed from it after construction can still
// be returned. A label is never returned twice.
type LabeledBatchIterator struct {
	inner    *BatchIterator
	labelOf  map[int]int64 // snapshot: internal id -> label
	returned map[int64]struct{}
}

func NewLabeledBatchIterator(ds dataset.Source, g *Graph, fn distance.Functor, query []float32, initialWindow, batchSize int, labelOf map[int]int64) *LabeledBatchIterator {
	snapshot := make(map[int]int64, len(labelOf))
	for k, v := range labelOf {
		snapshot[k] = v
	}
	return &LabeledBatchIterator{
		inner:    NewBatchIterator(ds, g, fn, query, initialWindow, batchSize),
		labelOf:  snapshot,
		returned: make(map[int64]struct{}),
	}
}

// Next returns up to batchSize results with distinct labels, skipping
// any internal ID whose label has already appeared in a prior batch.
func (it *LabeledBatchIterator) Next() ([]searchbuffer.Candidate, bool) {
	var out []searchbuffer.Candidate
	for len(out) < it.inner.batchSize {
		batch, ok := it.inner.Next()
		if !ok {
			break
		}
		for _, c := range batch {
			label, known := it.labelOf[c.ID]
			if !known {
				continue
			}
			if _, done := it.returned[label]; done {
				continue
			}
			it.returned[label] = struct{}{}
			out = append(out, c)
		}
	}
	return out, len(out) > 0
}
