package vamana

import (
	"math/rand"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/ivf"
	"github.com/vecdb/annindex/logging"
	"github.com/vecdb/annindex/quantize"
	"github.com/vecdb/annindex/searchbuffer"
	"github.com/vecdb/annindex/threadpool"
)

// SearchParameters configures a single query, separate from
// BuildParameters the same way the teacher separates build-time and
// search-time HNSW knobs. Capacity <= WindowSize collapses to plain
// (non-split) greedy search; Capacity > WindowSize only matters for an
// index built with a secondary reranking view (BuildLeanVec), where the
// extra held-back candidates get a full-precision second pass before the
// final top-k cut. BuildCompressedLVQ sets no secondary view, so its
// results are ranked by the compressed distances alone, without reranking.
type SearchParameters struct {
	WindowSize int
	Capacity   int
}

func DefaultSearchParameters() SearchParameters {
	return SearchParameters{WindowSize: 64}
}

// QueryResult mirrors the original's typed result matrix rather than a
// bare tuple of slices: one row per query, each row carrying parallel
// ID/distance slices.
type QueryResult struct {
	IDs       [][]int64
	Distances [][]float32
}

// StaticIndex is an immutable, built-once Vamana index. ds is the
// primary view the graph is built and traversed over: a plain
// *dataset.Dataset for an uncompressed or LeanVec-reduced index, or a
// *quantize.CompressedDataset when built via BuildCompressedLVQ.
// compressed is set (and the adapted-distance CompressedGreedySearch
// path used instead of GreedySearch) whenever ds holds LVQ codes rather
// than raw floats. secondary (raw or LVQ-encoded) and queryTransform are
// only set by BuildLeanVec.
type StaticIndex struct {
	ds             dataset.Source
	compressed     *quantize.CompressedDataset
	secondary      dataset.Source
	queryTransform func([]float32) []float32
	graph          *Graph
	fn             distance.Functor
	trans          *dataset.Translator
	logger         logging.Logger
}

// BuildStatic constructs an uncompressed StaticIndex from external IDs
// and vectors.
func BuildStatic(externalIDs []int64, vectors [][]float32, metric distance.Kind, params BuildParameters, pool threadpool.Pool, logger logging.Logger) (*StaticIndex, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	ds := dataset.New(len(vectors[0]))
	trans := dataset.NewTranslator()
	for i, v := range vectors {
		if _, err := ds.Append(v); err != nil {
			return nil, err
		}
		if _, err := trans.Insert(externalIDs[i]); err != nil {
			return nil, err
		}
	}

	fn := distance.MustGet(metric)
	g, err := Build(ds, fn, params, pool)
	if err != nil {
		return nil, err
	}
	logger.Info("vamana static index built")
	return &StaticIndex{ds: ds, graph: g, fn: fn, trans: trans, logger: logger}, nil
}

// CompressedBuildParameters configures an LVQ-compressed build. Bits
// sizes the primary (or, with ResidualBits > 0, LVQ2's primary level)
// codec; ResidualBits > 0 adds a second residual level. Centroids
// selects how many centroids the shared CentroidTable gets: <= 1 fits
// a single "global" centroid (the dataset medoid), matching §4.5's
// global-LVQ degenerate case; > 1 fits that many centroids via
// ivf.FlatKMeans over the same vectors, reused here rather than
// duplicating a k-means routine in this package.
type CompressedBuildParameters struct {
	Bits         int
	ResidualBits int
	Centroids    int
}

func DefaultCompressedBuildParameters() CompressedBuildParameters {
	return CompressedBuildParameters{Bits: 8, Centroids: 1}
}

// BuildCompressedLVQ encodes vectors with LVQ, builds the Vamana graph
// directly over the compressed view (CompressedDataset satisfies
// dataset.Source, so the ordinary two-pass Build runs unmodified against
// decoded neighbor comparisons during construction), and searches it
// through the adapted distance functor instead of decoding candidates.
func BuildCompressedLVQ(externalIDs []int64, vectors [][]float32, metric distance.Kind, cparams CompressedBuildParameters, params BuildParameters, pool threadpool.Pool, logger logging.Logger) (*StaticIndex, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	centroids, err := fitCentroidTable(vectors, metric, cparams.Centroids)
	if err != nil {
		return nil, err
	}

	lvq1 := quantize.LVQ1{Bits: cparams.Bits, Centroids: centroids}
	var lvq2 *quantize.LVQ2
	if cparams.ResidualBits > 0 {
		lvq2 = &quantize.LVQ2{Primary: lvq1, Residual: quantize.LVQ1{Bits: cparams.ResidualBits}}
	}
	cds, err := quantize.NewCompressedDataset(vectors, centroids, lvq1, lvq2)
	if err != nil {
		return nil, err
	}

	trans := dataset.NewTranslator()
	for _, ext := range externalIDs {
		if _, err := trans.Insert(ext); err != nil {
			return nil, err
		}
	}

	fn := distance.MustGet(metric)
	g, err := Build(cds, fn, params, pool)
	if err != nil {
		return nil, err
	}
	logger.Info("vamana compressed (lvq) index built")
	return &StaticIndex{ds: cds, compressed: cds, graph: g, fn: fn, trans: trans, logger: logger}, nil
}

// fitCentroidTable builds a CentroidTable of the requested size: 1 (or
// fewer) centroids degenerate to the dataset medoid (§4.5's "global"
// LVQ variant), anything larger is fit with ivf.FlatKMeans.
func fitCentroidTable(vectors [][]float32, metric distance.Kind, n int) (*quantize.CentroidTable, error) {
	fn := distance.MustGet(metric)
	if n <= 1 {
		mean := make([]float32, len(vectors[0]))
		for _, v := range vectors {
			for j, x := range v {
				mean[j] += x
			}
		}
		for j := range mean {
			mean[j] /= float32(len(vectors))
		}
		fixed := fn.FixArgument(mean)
		best, bestDist := 0, fixed.Compute(mean, vectors[0])
		for i := 1; i < len(vectors); i++ {
			if d := fixed.Compute(mean, vectors[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		return quantize.NewGlobalCentroidTable(vectors[best]), nil
	}
	res, err := ivf.FlatKMeans(vectors, n, fn, rand.New(rand.NewSource(1)))
	if err != nil && !ivf.IsUnconvergent(err) {
		return nil, err
	}
	return quantize.NewCentroidTable(res.Centroids), nil
}

// LeanVecBuildParameters configures a dimensionality-reduced build.
// OutDims sizes the reduced primary view; OOD, when non-nil, is used
// directly instead of fitting PCA over vectors (spec §4.6's
// out-of-distribution mode: a transform already fit against separate
// corpus/query samples). SecondaryBits, if > 0, LVQ-encodes the
// full-dimension reranking view instead of storing it raw.
type LeanVecBuildParameters struct {
	OutDims       int
	OOD           *quantize.LeanVecTransform
	SecondaryBits int
}

// BuildLeanVec fits (or accepts) a reduction transform, builds the graph
// over the reduced primary view, and keeps a full-dimension secondary
// view for reranking: the split-buffer interaction of §4.6, where
// Search's Capacity beyond WindowSize pulls extra candidates through
// RerankWithSecondary before the final cut.
func BuildLeanVec(externalIDs []int64, vectors [][]float32, metric distance.Kind, lparams LeanVecBuildParameters, params BuildParameters, pool threadpool.Pool, logger logging.Logger) (*StaticIndex, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	transform := lparams.OOD
	if transform == nil {
		fitted, err := quantize.FitPCA(vectors, lparams.OutDims)
		if err != nil {
			return nil, err
		}
		transform = fitted
	}

	primary := dataset.New(transform.ReducedDims())
	trans := dataset.NewTranslator()
	for i, v := range vectors {
		if _, err := primary.Append(transform.Primary(v)); err != nil {
			return nil, err
		}
		if _, err := trans.Insert(externalIDs[i]); err != nil {
			return nil, err
		}
	}

	var lvq *quantize.LVQ1
	if lparams.SecondaryBits > 0 {
		lvq = &quantize.LVQ1{Bits: lparams.SecondaryBits}
	}
	secondary, err := quantize.NewSecondaryDataset(vectors, lvq)
	if err != nil {
		return nil, err
	}

	fn := distance.MustGet(metric)
	g, err := Build(primary, fn, params, pool)
	if err != nil {
		return nil, err
	}

	queryTransform := func(q []float32) []float32 { return transform.TransformQuery(q, metric) }
	logger.Info("vamana leanvec index built")
	return &StaticIndex{ds: primary, secondary: secondary, queryTransform: queryTransform, graph: g, fn: fn, trans: trans, logger: logger}, nil
}

// Search returns the k nearest external IDs and distances for a query.
// When the index holds a secondary full-precision view and
// params.Capacity exceeds params.WindowSize, the extra held-back
// candidates are rescored against that view before the final top-k cut;
// otherwise the primary view's own distances decide the order.
func (idx *StaticIndex) Search(query []float32, k int, params SearchParameters) ([]int64, []float32, error) {
	primaryQuery := query
	if idx.queryTransform != nil {
		primaryQuery = idx.queryTransform(query)
	}

	capacity := params.Capacity
	if capacity <= 0 {
		capacity = params.WindowSize
	}

	var candidates []searchbuffer.Candidate
	if idx.compressed != nil {
		buf := CompressedGreedySearch(idx.compressed, idx.graph, primaryQuery, params.WindowSize, capacity)
		candidates = buf.All()
	} else {
		buf := GreedySearch(idx.ds, idx.graph, idx.fn, primaryQuery, params.WindowSize, capacity)
		candidates = buf.All()
	}

	var results []searchbuffer.Candidate
	if idx.secondary != nil && capacity > params.WindowSize {
		results = RerankWithSecondary(idx.secondary, idx.fn, query, candidates, k)
	} else {
		if k > len(candidates) {
			k = len(candidates)
		}
		results = candidates[:k]
	}

	ids := make([]int64, len(results))
	dists := make([]float32, len(results))
	for i, c := range results {
		ext, _ := idx.trans.ExternalID(c.ID)
		ids[i] = ext
		dists[i] = c.Distance
	}
	return ids, dists, nil
}

// BatchSearch runs Search over many queries, returning a QueryResult.
func (idx *StaticIndex) BatchSearch(queries [][]float32, k int, params SearchParameters) (*QueryResult, error) {
	res := &QueryResult{IDs: make([][]int64, len(queries)), Distances: make([][]float32, len(queries))}
	for i, q := range queries {
		ids, dists, err := idx.Search(q, k, params)
		if err != nil {
			return nil, err
		}
		res.IDs[i], res.Distances[i] = ids, dists
	}
	return res, nil
}

func (idx *StaticIndex) Size() int { return idx.ds.Size() }
