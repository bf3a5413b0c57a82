package vamana

import (
	"sort"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/searchbuffer"
)

// RerankWithSecondary re-scores a candidate pool pulled from an
// approximate (compressed or dimensionality-reduced) primary view
// against the dataset's full-precision secondary view: §4.6's
// split-buffer reranking interaction, where the primary view only
// decides which candidates make the pool and the secondary view decides
// their final order. query is the original, untransformed query vector.
func RerankWithSecondary(secondary dataset.Source, fn distance.Functor, query []float32, candidates []searchbuffer.Candidate, k int) []searchbuffer.Candidate {
	fixed := fn.FixArgument(query)
	rescored := make([]searchbuffer.Candidate, len(candidates))
	for i, c := range candidates {
		rescored[i] = searchbuffer.Candidate{ID: c.ID, Distance: fixed.Compute(query, secondary.Get(c.ID))}
	}
	sort.Slice(rescored, func(i, j int) bool { return rescored[i].Distance < rescored[j].Distance })
	if k > len(rescored) {
		k = len(rescored)
	}
	return rescored[:k]
}
