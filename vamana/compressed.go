package vamana

import (
	"github.com/vecdb/annindex/quantize"
	"github.com/vecdb/annindex/searchbuffer"
)

// CompressedGreedySearch runs the same frontier-expansion traversal as
// GreedySearch, but evaluates candidate distances through the
// compressed dataset's adapted L2 functor (§4.5's distance adaptation,
// working directly on LVQ codes) instead of decoding each candidate
// into a full float32 vector first.
func CompressedGreedySearch(cds *quantize.CompressedDataset, g *Graph, query []float32, windowSize, capacity int) *searchbuffer.Buffer {
	aq := cds.FixQuery(query)
	buf := searchbuffer.New(windowSize, capacity)
	expanded := make(map[int]struct{})

	entry := g.EntryPoint()
	buf.Insert(searchbuffer.Candidate{ID: entry, Distance: aq.ComputeEncoded(entry)})

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
			buf.Insert(searchbuffer.Candidate{ID: nid, Distance: aq.ComputeEncoded(nid)})
		}
	}
	return buf
}
