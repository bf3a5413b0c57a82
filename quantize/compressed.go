package quantize

import (
	annerrors "github.com/vecdb/annindex/errors"
)

// CompressedDataset presents an LVQ-encoded vector set through the same
// dataset.Source surface (Get/Dims/Size) the graph/search code already
// uses, so Vamana and IVF can build and traverse over compressed storage
// without a parallel code path for every caller that just wants a
// vector back. Get decodes lazily; the adapted distance path in
// AdaptedL2Query skips decoding entirely for the hot search loop.
type CompressedDataset struct {
	dims      int
	centroids *CentroidTable
	lvq1      *LVQ1
	lvq2      *LVQ2
	encoded1  []EncodedVector
	encoded2  []EncodedVector2
	normSq    []float32 // ||decoded||^2 per vector, cached per §4.5's distance-adaptation formula
}

// NewCompressedDataset encodes vectors with lvq1 (one-level) or, when
// lvq2 is non-nil, with the two-level residual codec instead. Exactly
// one of the two codecs is used per dataset.
func NewCompressedDataset(vectors [][]float32, centroids *CentroidTable, lvq1 LVQ1, lvq2 *LVQ2) (*CompressedDataset, error) {
	if len(vectors) == 0 {
		return nil, annerrors.NewOther("cannot build a compressed dataset from zero vectors", nil)
	}
	if centroids == nil || len(centroids.Centroids) == 0 {
		centroids = NewGlobalCentroidTable(make([]float32, len(vectors[0])))
	}
	lvq1.Centroids = centroids
	cd := &CompressedDataset{dims: len(vectors[0]), centroids: centroids, lvq1: &lvq1}

	if lvq2 != nil {
		lvq2.Primary.Centroids = centroids
		cd.lvq2 = lvq2
		cd.encoded2 = make([]EncodedVector2, len(vectors))
		cd.normSq = make([]float32, len(vectors))
		for i, v := range vectors {
			e := lvq2.Encode(v)
			cd.encoded2[i] = e
			cd.normSq[i] = l2norm(lvq2.Decode(e))
		}
		return cd, nil
	}

	cd.encoded1 = make([]EncodedVector, len(vectors))
	cd.normSq = make([]float32, len(vectors))
	for i, v := range vectors {
		e := cd.lvq1.Encode(v)
		cd.encoded1[i] = e
		cd.normSq[i] = l2norm(cd.lvq1.Decode(e))
	}
	return cd, nil
}

func l2norm(v []float32) float32 {
	var s float32
	for _, x := range v {
		s += x * x
	}
	return s
}

func (c *CompressedDataset) Dims() int { return c.dims }

func (c *CompressedDataset) Size() int {
	if c.lvq2 != nil {
		return len(c.encoded2)
	}
	return len(c.encoded1)
}

// Get decodes and returns the vector at id, satisfying dataset.Source
// for callers (graph construction, reconstruct accessors) that need a
// full float32 vector rather than an adapted distance.
func (c *CompressedDataset) Get(id int) []float32 {
	if c.lvq2 != nil {
		return c.lvq2.Decode(c.encoded2[id])
	}
	return c.lvq1.Decode(c.encoded1[id])
}

func (c *CompressedDataset) Centroids() *CentroidTable { return c.centroids }

// AdaptedL2Query is the adapted L2 functor spec §4.5 describes: it
// precomputes ||q||^2 and, per centroid, <q,c> once per query, then
// evaluates each compressed candidate's distance directly from its
// codes without materializing a decoded float32 vector.
type AdaptedL2Query struct {
	cds         *CompressedDataset
	queryNormSq float32
	centroidDot []float32
	query       []float32
}

// FixQuery binds a query vector against cds's centroid table, the
// adapt() half of spec §4.1: query stays in original space, the dataset
// side is compressed.
func (c *CompressedDataset) FixQuery(query []float32) *AdaptedL2Query {
	var qn float32
	for _, x := range query {
		qn += x * x
	}
	dots := make([]float32, len(c.centroids.Centroids))
	for i, cen := range c.centroids.Centroids {
		var d float32
		for j, x := range cen {
			d += query[j] * x
		}
		dots[i] = d
	}
	return &AdaptedL2Query{cds: c, queryNormSq: qn, centroidDot: dots, query: query}
}

// ComputeEncoded evaluates ||q||^2 - 2<q,decoded> + ||decoded||^2 for
// the compressed vector at id using the precomputed per-vector
// ||decoded||^2 and per-centroid <q,c>, without decoding the vector.
func (a *AdaptedL2Query) ComputeEncoded(id int) float32 {
	cds := a.cds
	if cds.lvq2 != nil {
		e := cds.encoded2[id]
		dot := a.dotEncoded(e.Primary) + a.dotResidual(e.Residual)
		return a.queryNormSq - 2*dot + cds.normSq[id]
	}
	e := cds.encoded1[id]
	dot := a.dotEncoded(e)
	return a.queryNormSq - 2*dot + cds.normSq[id]
}

// dotEncoded computes <q, centroid[selector] + scale*codes + bias>.
func (a *AdaptedL2Query) dotEncoded(e EncodedVector) float32 {
	dot := a.centroidDot[e.Selector]
	var codeSum, qSum float32
	for j, c := range e.Codes {
		codeSum += a.query[j] * float32(c)
		qSum += a.query[j]
	}
	return dot + e.Scale*codeSum + e.Bias*qSum
}

// dotResidual computes <q, scale*signedCodes>, the residual's
// contribution with no centroid/bias term of its own.
func (a *AdaptedL2Query) dotResidual(e EncodedVector) float32 {
	var codeSum float32
	for j, c := range e.Codes {
		codeSum += a.query[j] * float32(int8(c))
	}
	return e.Scale * codeSum
}
