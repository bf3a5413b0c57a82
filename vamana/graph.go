// Package vamana implements the Vamana proximity graph: construction via
// two-sweep alpha-pruning, greedy search, and a dynamic index supporting
// insert/delete/consolidate/compact. The graph container and pruning
// rule are grounded on the AISAQ index's adjacency-map graph
// (buildVamanaGraph, pruneFurthest) and cross-checked against a
// dedicated DiskANN-style implementation elsewhere in the retrieval pack
// for the exact two-sweep alpha-rule semantics.
package vamana

import "sync"

// Graph is an adjacency-list proximity graph over internal vector IDs.
type Graph struct {
	mu         sync.RWMutex
	maxDegree  int
	neighbors  [][]int32
	entryPoint int
}

func NewGraph(maxDegree int) *Graph {
	return &Graph{maxDegree: maxDegree}
}

// EnsureSize grows the adjacency table to hold at least n nodes.
func (g *Graph) EnsureSize(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(g.neighbors) < n {
		g.neighbors = append(g.neighbors, nil)
	}
}

func (g *Graph) Neighbors(id int) []int32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]int32, len(g.neighbors[id]))
	copy(out, g.neighbors[id])
	return out
}

func (g *Graph) SetNeighbors(id int, neighbors []int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(neighbors) > g.maxDegree {
		neighbors = neighbors[:g.maxDegree]
	}
	cp := make([]int32, len(neighbors))
	copy(cp, neighbors)
	g.neighbors[id] = cp
}

// AddEdge appends a directed edge id->to if not already present and
// there is room; returns false if the node is already at max degree so
// the caller can trigger a re-prune.
func (g *Graph) AddEdge(id int, to int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.neighbors[id] {
		if n == to {
			return true
		}
	}
	if len(g.neighbors[id]) >= g.maxDegree {
		return false
	}
	g.neighbors[id] = append(g.neighbors[id], to)
	return true
}

// RemoveEdge deletes a directed edge id->to if present.
func (g *Graph) RemoveEdge(id int, to int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ns := g.neighbors[id]
	for i, n := range ns {
		if n == to {
			g.neighbors[id] = append(ns[:i], ns[i+1:]...)
			return
		}
	}
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.neighbors)
}

func (g *Graph) MaxDegree() int { return g.maxDegree }

func (g *Graph) EntryPoint() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entryPoint
}

func (g *Graph) SetEntryPoint(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entryPoint = id
}
