// Package ivf implements the inverted-file index: flat and hierarchical
// K-means clustering, a clustered dataset keyed by centroid, and the
// two-stage (probe centroids, scan leaves) search it supports. The flat
// K-means routine and the centroid-probe search shape are grounded on
// the teacher's IVF-flat index (kmeans, Search); the per-sub-quantizer
// K-means used for hierarchical level-2 clustering is grounded on the
// teacher's IVF-PQ index's subqKmeans.
package ivf

import (
	"math/rand"

	annerrors "github.com/vecdb/annindex/errors"

	"github.com/vecdb/annindex/distance"
)

const (
	kmeansMaxIterations = 20
	kmeansTolerance     = 1e-4
)

// KMeansResult holds fitted centroids and the cluster assignment for
// every training vector.
type KMeansResult struct {
	Centroids   [][]float32
	Assignments []int
}

// FlatKMeans clusters vectors into nlist centroids via Lloyd's
// algorithm, following the teacher's random-sample initialization and
// convergence check (assignment-stable or centroid-shift-below-tolerance).
func FlatKMeans(vectors [][]float32, nlist int, fn distance.Functor, rng *rand.Rand) (*KMeansResult, error) {
	n := len(vectors)
	if n == 0 {
		return nil, annerrors.NewOther("cannot cluster an empty dataset", nil)
	}
	if nlist > n {
		nlist = n
	}
	dims := len(vectors[0])

	centroids := make([][]float32, nlist)
	perm := rng.Perm(n)
	for i := 0; i < nlist; i++ {
		src := vectors[perm[i]]
		centroids[i] = append([]float32(nil), src...)
	}

	assignments := make([]int, n)
	prevAssignments := make([]int, n)
	for i := range prevAssignments {
		prevAssignments[i] = -1
	}

	converged := false
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		copy(assignments, AssignNearest(vectors, centroids, fn.Name(), fn))

		sums := make([][]float32, nlist)
		counts := make([]int, nlist)
		for c := range sums {
			sums[c] = make([]float32, dims)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += x
			}
		}

		var maxShift float32
		for c := 0; c < nlist; c++ {
			if counts[c] == 0 {
				continue
			}
			newCentroid := make([]float32, dims)
			for j := range newCentroid {
				newCentroid[j] = sums[c][j] / float32(counts[c])
			}
			shift := fn.Compute(newCentroid, centroids[c])
			if shift > maxShift {
				maxShift = shift
			}
			centroids[c] = newCentroid
		}

		sameAssignment := true
		for i := range assignments {
			if assignments[i] != prevAssignments[i] {
				sameAssignment = false
				break
			}
		}
		copy(prevAssignments, assignments)

		if sameAssignment || maxShift < kmeansTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return &KMeansResult{Centroids: centroids, Assignments: assignments},
			annerrors.NewUnconvergent("flat k-means", kmeansMaxIterations)
	}
	return &KMeansResult{Centroids: centroids, Assignments: assignments}, nil
}

// HierarchicalKMeans runs a coarse level-1 clustering into nlist1
// centroids, then a level-2 clustering within each level-1 cluster into
// nlist2 sub-centroids. Level-1 clusters with fewer members than nlist2
// redistribute their leftover quota by weighted random draw across the
// other level-1 clusters, following the original's hierarchical_kmeans.h
// remainder rule rather than simply truncating.
func HierarchicalKMeans(vectors [][]float32, nlist1, nlist2 int, fn distance.Functor, rng *rand.Rand) ([][]float32, error) {
	level1, err := FlatKMeans(vectors, nlist1, fn, rng)
	if err != nil && !isUnconvergent(err) {
		return nil, err
	}

	byCluster := make([][][]float32, nlist1)
	for i, v := range vectors {
		c := level1.Assignments[i]
		byCluster[c] = append(byCluster[c], v)
	}

	quota := make([]int, nlist1)
	leftover := 0
	for c, members := range byCluster {
		if len(members) >= nlist2 {
			quota[c] = nlist2
		} else {
			quota[c] = len(members)
			leftover += nlist2 - len(members)
		}
	}

	// Redistribute leftover quota weighted by cluster size: bigger
	// clusters are more likely to receive extra sub-centroids, matching
	// the original's weighted-random redistribution instead of an even
	// split.
	totalSize := 0
	for _, members := range byCluster {
		totalSize += len(members)
	}
	for leftover > 0 && totalSize > 0 {
		r := rng.Intn(totalSize)
		acc := 0
		for c, members := range byCluster {
			acc += len(members)
			if r < acc {
				if quota[c] < len(members) {
					quota[c]++
					leftover--
				}
				break
			}
		}
	}

	var allCentroids [][]float32
	for c, members := range byCluster {
		if len(members) == 0 || quota[c] == 0 {
			continue
		}
		sub, err := FlatKMeans(members, quota[c], fn, rng)
		if err != nil && !isUnconvergent(err) {
			return nil, err
		}
		allCentroids = append(allCentroids, sub.Centroids...)
	}
	return allCentroids, nil
}

func isUnconvergent(err error) bool {
	_, ok := err.(*annerrors.Unconvergent)
	return ok
}

// IsUnconvergent reports whether err is the non-fatal "k-means did not
// converge within the iteration budget" error FlatKMeans/HierarchicalKMeans
// can return alongside a still-usable result, for callers outside this
// package that reuse FlatKMeans directly (e.g. vamana's centroid fitting).
func IsUnconvergent(err error) bool {
	return isUnconvergent(err)
}
