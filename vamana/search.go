package vamana

import (
	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/searchbuffer"
)

// GreedySearch walks the graph from the entry point, expanding the
// closest unexpanded frontier candidate each step and admitting its
// neighbors into the buffer, until the frontier is exhausted. This is
// the same shape as the AISAQ index's beamSearch (expand closest
// unvisited, grow the candidate list, stop when no closer candidate
// remains) generalized to the split window/capacity buffer spec's
// search-buffer component requires.
func GreedySearch(ds dataset.Source, g *Graph, fn distance.Functor, query []float32, windowSize, capacity int) *searchbuffer.Buffer {
	fn = fn.FixArgument(query)
	buf := searchbuffer.New(windowSize, capacity)
	expanded := make(map[int]struct{})

	entry := g.EntryPoint()
	buf.Insert(searchbuffer.Candidate{ID: entry, Distance: fn.Compute(query, ds.Get(entry))})

	for {
		cand, ok := buf.NextUnexpanded(expanded)
		if !ok {
			break
		}
		for _, nb := range g.Neighbors(cand.ID) {
			nid := int(nb)
			if buf.Visited(nid) {
				continue
			}
			buf.Insert(searchbuffer.Candidate{ID: nid, Distance: fn.Compute(query, ds.Get(nid))})
		}
	}
	return buf
}

// Search runs GreedySearch and returns the k closest results as
// (internal id, distance) pairs. capacity <= 0 defaults to windowSize,
// giving plain (non-split) greedy search.
func Search(ds dataset.Source, g *Graph, fn distance.Functor, query []float32, k, windowSize, capacity int) []searchbuffer.Candidate {
	if capacity <= 0 {
		capacity = windowSize
	}
	buf := GreedySearch(ds, g, fn, query, windowSize, capacity)
	return buf.TopK(k)
}
