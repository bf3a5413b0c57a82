package vamana

import (
	"context"
	"math/rand"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/searchbuffer"
	"github.com/vecdb/annindex/threadpool"
)

// BuildParameters configures graph construction, following the teacher's
// Default...Params() convention (plain struct, package-level default
// constructor, no framework).
type BuildParameters struct {
	GraphMaxDegree int
	PruneTo        int // 0 means "equal to GraphMaxDegree"; see SPEC_FULL.md open question E.3
	WindowSize     int
	Alpha          float32
}

func DefaultBuildParameters() BuildParameters {
	return BuildParameters{
		GraphMaxDegree: 64,
		WindowSize:     128,
		Alpha:          1.2,
	}
}

func (p BuildParameters) pruneTarget() int {
	if p.PruneTo > 0 {
		return p.PruneTo
	}
	return p.GraphMaxDegree
}

// Build constructs a Vamana graph over ds using a two-sweep
// alpha-pruning pass: the first pass runs with alpha forced to 1
// (equivalent to a pure degree-bounded nearest-neighbor graph), and the
// second uses the configured alpha to introduce the long-range edges
// that give Vamana its logarithmic search behavior. This mirrors the
// two-pass BuildIndex found in the pack's dedicated DiskANN
// implementation.
func Build(ds dataset.Source, fn distance.Functor, params BuildParameters, pool threadpool.Pool) (*Graph, error) {
	n := ds.Size()
	g := NewGraph(params.GraphMaxDegree)
	g.EnsureSize(n)

	entry, err := ComputeMedoid(ds, fn, n)
	if err != nil {
		return nil, err
	}
	g.SetEntryPoint(entry)

	configured := params.Alpha
	if err := pass(ds, g, fn, params, 1.0, pool); err != nil {
		return nil, err
	}
	if err := pass(ds, g, fn, params, configured, pool); err != nil {
		return nil, err
	}
	return g, nil
}

// pass runs one alpha-pruning sweep over every node in random order,
// fanning the per-node greedy-search-then-prune work out across pool:
// Graph's own locking keeps concurrent SetNeighbors/AddEdge calls safe,
// so the only serialization cost is the mutex, not the sweep itself.
func pass(ds dataset.Source, g *Graph, fn distance.Functor, params BuildParameters, alpha float32, pool threadpool.Pool) error {
	n := ds.Size()
	order := rand.Perm(n)

	return pool.ParallelFor(context.Background(), n, func(i int) error {
		id := order[i]
		query := ds.Get(id)
		buf := GreedySearch(ds, g, fn, query, params.WindowSize, params.WindowSize)
		visited := buf.All()

		accepted := robustPrune(ds, fn, id, visited, g, alpha, params.pruneTarget())
		g.SetNeighbors(id, accepted)

		for _, nb := range accepted {
			if !g.AddEdge(int(nb), int32(id)) {
				repruneNeighbor(ds, fn, int(nb), g, alpha, params.pruneTarget())
				g.AddEdge(int(nb), int32(id))
			}
		}
		return nil
	})
}

// robustPrune implements the alpha-rule: repeatedly pick the closest
// remaining candidate, accept it, then discard every other candidate x
// for which alpha * distance(accepted, x) <= distance(p, x), meaning x
// is already well covered by the just-accepted neighbor and doesn't earn
// its own edge. This matches the pack's DiskANN-style robustPrune
// (picking the closest candidate, then filtering by alpha-scaled
// coverage) rather than the variable roles implied by a literal reading
// of the greedy-search writeup.
func robustPrune(ds dataset.Source, fn distance.Functor, p int, candidates []searchbuffer.Candidate, g *Graph, alpha float32, maxDegree int) []int32 {
	pVec := ds.Get(p)
	fn = fn.FixArgument(pVec)

	working := make([]searchbuffer.Candidate, 0, len(candidates)+len(g.Neighbors(p)))
	seen := map[int]bool{p: true}
	for _, c := range candidates {
		if !seen[c.ID] {
			seen[c.ID] = true
			working = append(working, c)
		}
	}
	for _, nb := range g.Neighbors(p) {
		id := int(nb)
		if !seen[id] {
			seen[id] = true
			working = append(working, searchbuffer.Candidate{ID: id, Distance: fn.Compute(pVec, ds.Get(id))})
		}
	}

	var out []int32
	for len(working) > 0 && len(out) < maxDegree {
		minIdx := 0
		for i := 1; i < len(working); i++ {
			if working[i].Distance < working[minIdx].Distance {
				minIdx = i
			}
		}
		chosen := working[minIdx]
		out = append(out, int32(chosen.ID))

		remaining := working[:0]
		chosenVec := ds.Get(chosen.ID)
		chosenFn := fn.FixArgument(chosenVec)
		for i, x := range working {
			if i == minIdx {
				continue
			}
			dPX := x.Distance
			dChosenX := chosenFn.Compute(chosenVec, ds.Get(x.ID))
			if alpha*dChosenX <= dPX {
				continue
			}
			remaining = append(remaining, x)
		}
		working = remaining
	}
	return out
}

func repruneNeighbor(ds dataset.Source, fn distance.Functor, id int, g *Graph, alpha float32, maxDegree int) {
	nbVec := ds.Get(id)
	fixed := fn.FixArgument(nbVec)
	current := g.Neighbors(id)
	candidates := make([]searchbuffer.Candidate, len(current))
	for i, n := range current {
		candidates[i] = searchbuffer.Candidate{ID: int(n), Distance: fixed.Compute(nbVec, ds.Get(int(n)))}
	}
	pruned := robustPrune(ds, fn, id, candidates, g, alpha, maxDegree-1)
	g.SetNeighbors(id, pruned)
}
