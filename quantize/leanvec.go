// LeanVec reduces vector dimensionality ahead of the expensive distance
// computation: a primary (reduced) view is used for candidate scoring
// during graph traversal, while a secondary (full-dimension) view is
// kept for final re-ranking. This file grounds the PCA fitting path on
// the blas façade's SVD wrapper since the corpus has no dimensionality
// reduction code of its own to adapt.
package quantize

import (
	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"

	"github.com/vecdb/annindex/blas"
)

// LeanVecTransform holds a fitted reduction basis. DataMatrix and
// QueryMatrix are identical only in PCA mode, where a single basis fit
// against the indexed data is used on both sides; OOD mode (out of
// distribution: the query distribution differs from the indexed data)
// keeps them distinct, typically one fit against the corpus and one
// fit against representative query traffic.
type LeanVecTransform struct {
	DataMatrix  [][]float32
	QueryMatrix [][]float32
	Mean        []float32
	pcaMode     bool
}

// FitPCA fits a single rank-outDims principal-component basis over the
// sample set and uses it for both data and query projection. Mean is
// subtracted from data vectors before projecting, and from queries only
// for L2 (see TransformQuery).
func FitPCA(samples [][]float32, outDims int) (*LeanVecTransform, error) {
	components, mean, err := blas.PCA(samples, outDims)
	if err != nil {
		return nil, err
	}
	return &LeanVecTransform{DataMatrix: components, QueryMatrix: components, Mean: mean, pcaMode: true}, nil
}

// NewOOD builds an out-of-distribution transform from caller-supplied
// data and query matrices, e.g. ones fit offline against the corpus and
// against observed query traffic respectively, rather than re-deriving
// either from a sample at index-build time.
func NewOOD(dataMatrix, queryMatrix [][]float32) *LeanVecTransform {
	return &LeanVecTransform{DataMatrix: dataMatrix, QueryMatrix: queryMatrix}
}

// ReducedDims reports the output dimensionality of the fitted basis.
func (t *LeanVecTransform) ReducedDims() int { return len(t.DataMatrix) }

// Primary projects a full-dimension vector down to the reduced view used
// to build and traverse the primary graph: (v - mean) * data_matrix.
func (t *LeanVecTransform) Primary(v []float32) []float32 {
	return projectWith(v, t.DataMatrix, t.Mean)
}

// TransformQuery projects a query vector for comparison against the
// primary (reduced) view. In PCA mode, L2 queries subtract the fitted
// mean first, matching how the primary dataset itself was centered;
// every other combination (PCA with IP/cosine, or OOD mode regardless
// of metric) just multiplies by query_matrix, since OOD's query_matrix
// already accounts for whatever centering its own fit applied.
func (t *LeanVecTransform) TransformQuery(q []float32, metric distance.Kind) []float32 {
	if t.pcaMode && metric == distance.L2 {
		return projectWith(q, t.QueryMatrix, t.Mean)
	}
	return projectWith(q, t.QueryMatrix, nil)
}

func projectWith(v []float32, matrix [][]float32, mean []float32) []float32 {
	out := make([]float32, len(matrix))
	for c, comp := range matrix {
		var sum float64
		for j, cv := range comp {
			x := float64(v[j])
			if mean != nil {
				x -= float64(mean[j])
			}
			sum += x * float64(cv)
		}
		out[c] = float32(sum)
	}
	return out
}

// NewSecondaryDataset builds the full-precision reranking container for
// a LeanVec-reduced index. With lvq nil it holds the raw vectors
// uncompressed; otherwise it LVQ-encodes them, trading a little
// reranking accuracy for a much smaller secondary footprint.
func NewSecondaryDataset(vectors [][]float32, lvq *LVQ1) (dataset.Source, error) {
	if lvq == nil {
		ds := dataset.New(len(vectors[0]))
		for _, v := range vectors {
			if _, err := ds.Append(v); err != nil {
				return nil, err
			}
		}
		return ds, nil
	}
	return NewCompressedDataset(vectors, lvq.Centroids, *lvq, nil)
}
