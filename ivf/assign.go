package ivf

import (
	"github.com/vecdb/annindex/blas"
	"github.com/vecdb/annindex/distance"
)

// CentroidNormSq precomputes ||c||^2 for each centroid, the per-centroid
// half of the batched assignment formula in §4.10.
func CentroidNormSq(centroids [][]float32) []float32 {
	out := make([]float32, len(centroids))
	for i, c := range centroids {
		var s float32
		for _, x := range c {
			s += x * x
		}
		out[i] = s
	}
	return out
}

// ScoreMatrix scores every vector against every centroid in one batched
// pass, following §4.10's 2*D*C^T + ||c||^2 formula: D*C^T is computed
// once via blas.MatMul instead of a per-vector-per-centroid distance
// loop. ||vector||^2 is omitted since it is constant across centroids
// for a fixed row and does not affect ranking. L2 and IP route through
// the matmul; cosine falls back to a per-functor loop since its
// normalization is per-row and the matmul shortcut doesn't capture it.
// Lower score is always closer, matching distance.Functor's convention.
func ScoreMatrix(vectors, centroids [][]float32, metric distance.Kind, fn distance.Functor) [][]float32 {
	if metric == distance.Cosine {
		out := make([][]float32, len(vectors))
		for i, v := range vectors {
			fixed := fn.FixArgument(v)
			row := make([]float32, len(centroids))
			for j, c := range centroids {
				row[j] = fixed.Compute(v, c)
			}
			out[i] = row
		}
		return out
	}

	dot := blas.MatMul(vectors, centroids)
	switch metric {
	case distance.IP:
		for i := range dot {
			for j := range dot[i] {
				dot[i][j] = -dot[i][j]
			}
		}
	default: // L2
		normC := CentroidNormSq(centroids)
		for i := range dot {
			for j := range dot[i] {
				dot[i][j] = normC[j] - 2*dot[i][j]
			}
		}
	}
	return dot
}

// AssignNearest scores every vector against every centroid via
// ScoreMatrix and returns each vector's best (lowest-scoring) centroid
// index, replacing a naive per-vector-per-centroid fn.Compute loop with
// one batched matmul.
func AssignNearest(vectors, centroids [][]float32, metric distance.Kind, fn distance.Functor) []int {
	scores := ScoreMatrix(vectors, centroids, metric, fn)
	assignments := make([]int, len(vectors))
	for i, row := range scores {
		best, bestScore := 0, row[0]
		for c := 1; c < len(row); c++ {
			if row[c] < bestScore {
				best, bestScore = c, row[c]
			}
		}
		assignments[i] = best
	}
	return assignments
}

// ScoreQuery scores a single query against every centroid, the search-time
// counterpart to ScoreMatrix used to pick the nprobe closest centroids.
func ScoreQuery(query []float32, centroids [][]float32, metric distance.Kind, fn distance.Functor) []float32 {
	rows := ScoreMatrix([][]float32{query}, centroids, metric, fn)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
