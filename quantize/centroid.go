package quantize

// CentroidTable is the shared set of reference vectors LVQ encodes
// relative to: spec's "a shared f32 dataset of C <= 256 centroids,
// indexed by selector". A vector is encoded against whichever centroid
// is closest to it, so the stored scale/bias only has to cover the
// residual rather than the vector's full range.
type CentroidTable struct {
	Centroids [][]float32
}

// NewGlobalCentroidTable returns the "global" LVQ variant: a centroid
// table of size one, anchored at the supplied vector (typically the
// dataset medoid). Every vector encodes against the same centroid, so
// selector is always 0.
func NewGlobalCentroidTable(centroid []float32) *CentroidTable {
	cp := make([]float32, len(centroid))
	copy(cp, centroid)
	return &CentroidTable{Centroids: [][]float32{cp}}
}

// NewCentroidTable wraps a caller-fitted (e.g. k-means) set of centroids.
func NewCentroidTable(centroids [][]float32) *CentroidTable {
	return &CentroidTable{Centroids: centroids}
}

func (t *CentroidTable) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Centroids)
}

// nearest returns the selector and vector of the closest centroid by L2,
// or (0, nil) when t is nil/empty, the degenerate case LVQ1/LVQ2 treat
// as "quantize the vector directly" (residual against a zero centroid).
func (t *CentroidTable) nearest(v []float32) (int, []float32) {
	if t == nil || len(t.Centroids) == 0 {
		return 0, nil
	}
	best := 0
	bestDist := l2sq(v, t.Centroids[0])
	for i := 1; i < len(t.Centroids); i++ {
		d := l2sq(v, t.Centroids[i])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, t.Centroids[best]
}

func (t *CentroidTable) at(selector int) []float32 {
	if t == nil || len(t.Centroids) == 0 {
		return nil
	}
	return t.Centroids[selector]
}

func l2sq(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
