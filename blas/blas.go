// Package blas is a thin façade over gonum's dense matrix and SVD
// routines. It stands in for the external BLAS/LAPACK collaborator the
// index-builder and LeanVec components assume is available, so that
// k-means centroid scoring and PCA fitting route through one place
// instead of hand-rolled loops scattered across callers.
package blas

import (
	"gonum.org/v1/gonum/mat"
)

// MatMul computes C = A * B^T for row-major float32 slices, where A is
// (rows x dims) and B is (cols x dims). This is the shape k-means and
// IVF centroid scoring need: one row per query/vector, one column per
// centroid.
func MatMul(a [][]float32, b [][]float32) [][]float32 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	dims := len(a[0])
	ra, rb := len(a), len(b)

	af := make([]float64, ra*dims)
	for i, row := range a {
		for j, v := range row {
			af[i*dims+j] = float64(v)
		}
	}
	bf := make([]float64, rb*dims)
	for i, row := range b {
		for j, v := range row {
			bf[i*dims+j] = float64(v)
		}
	}

	am := mat.NewDense(ra, dims, af)
	bm := mat.NewDense(rb, dims, bf)

	var cm mat.Dense
	cm.Mul(am, bm.T())

	out := make([][]float32, ra)
	for i := 0; i < ra; i++ {
		out[i] = make([]float32, rb)
		for j := 0; j < rb; j++ {
			out[i][j] = float32(cm.At(i, j))
		}
	}
	return out
}

// PCA fits a rank-k principal component basis over row-major samples
// (one vector per row) via gonum's SVD, returning the k leading
// right-singular vectors as (k x dims) row-major components and the
// per-dimension mean that was subtracted before decomposition.
func PCA(samples [][]float32, k int) (components [][]float32, mean []float32, err error) {
	n := len(samples)
	if n == 0 {
		return nil, nil, nil
	}
	dims := len(samples[0])

	mean = make([]float32, dims)
	for _, row := range samples {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float32(n)
	}

	centered := make([]float64, n*dims)
	for i, row := range samples {
		for j, v := range row {
			centered[i*dims+j] = float64(v) - float64(mean[j])
		}
	}
	m := mat.NewDense(n, dims, centered)

	var svd mat.SVD
	ok := svd.Factorize(m, mat.SVDThin)
	if !ok {
		return nil, nil, &svdFailure{}
	}

	var v mat.Dense
	svd.VTo(&v)

	if k > dims {
		k = dims
	}
	components = make([][]float32, k)
	for c := 0; c < k; c++ {
		components[c] = make([]float32, dims)
		for j := 0; j < dims; j++ {
			components[c][j] = float32(v.At(j, c))
		}
	}
	return components, mean, nil
}

// Project applies a fitted PCA basis to a single vector: (v - mean) * components^T.
func Project(v []float32, components [][]float32, mean []float32) []float32 {
	out := make([]float32, len(components))
	for c, comp := range components {
		var sum float64
		for j, cv := range comp {
			sum += float64(v[j]-mean[j]) * float64(cv)
		}
		out[c] = float32(sum)
	}
	return out
}

type svdFailure struct{}

func (e *svdFailure) Error() string { return "blas: SVD factorization did not converge" }
