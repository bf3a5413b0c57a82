package ivf

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/logging"
	"github.com/vecdb/annindex/threadpool"
)

// BuildParameters configures clustering, mirroring the teacher's
// Default...Params() convention.
type BuildParameters struct {
	Nlist        int
	Nprobe       int
	Hierarchical bool
	Nlist2       int // only used when Hierarchical is true
}

func DefaultBuildParameters() BuildParameters {
	return BuildParameters{Nlist: 128, Nprobe: 8}
}

// SearchParameters configures a single Search call. KReorder multiplies
// the per-partition candidate pool kept before the final top-k selection,
// the §4.12 "pull more, rerank tighter" knob; 0 defaults to 1, so each
// partition keeps its k closest scanned members. NInnerThreads partitions
// the probed clusters across that many goroutines, each keeping a bounded
// local top-(k*KReorder) list that is merged and re-truncated to k once
// every partition finishes; 0 or 1 scans every probed cluster as a single
// partition on one pool goroutine.
type SearchParameters struct {
	KReorder      int
	NInnerThreads int
}

func DefaultSearchParameters() SearchParameters {
	return SearchParameters{KReorder: 1, NInnerThreads: 1}
}

type clusterEntry struct {
	internalID int
	vector     []float32
}

// Index is a static, built-once IVF index: centroids plus a per-cluster
// bucket of member vectors, searched via a centroid probe followed by a
// leaf scan of the nprobe closest buckets, the same two-stage shape as
// the teacher's IVF-flat Search.
type Index struct {
	mu        sync.RWMutex
	fn        distance.Functor
	metric    distance.Kind
	centroids [][]float32
	clusters  [][]clusterEntry
	trans     *dataset.Translator
	nprobe    int
	logger    logging.Logger
}

// Build clusters vectors and assigns each to its nearest centroid's
// bucket.
func Build(externalIDs []int64, vectors [][]float32, metric distance.Kind, params BuildParameters, logger logging.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	fn := distance.MustGet(metric)
	rng := rand.New(rand.NewSource(1))

	var centroids [][]float32
	if params.Hierarchical {
		c, err := HierarchicalKMeans(vectors, params.Nlist, params.Nlist2, fn, rng)
		if err != nil {
			return nil, err
		}
		centroids = c
	} else {
		res, err := FlatKMeans(vectors, params.Nlist, fn, rng)
		if err != nil && !isUnconvergent(err) {
			return nil, err
		}
		centroids = res.Centroids
	}

	trans := dataset.NewTranslator()
	clusters := make([][]clusterEntry, len(centroids))
	assignments := AssignNearest(vectors, centroids, metric, fn)
	for i, v := range vectors {
		internal, err := trans.Insert(externalIDs[i])
		if err != nil {
			return nil, err
		}
		best := assignments[i]
		clusters[best] = append(clusters[best], clusterEntry{internalID: internal, vector: v})
	}

	nprobe := params.Nprobe
	if nprobe <= 0 || nprobe > len(centroids) {
		nprobe = len(centroids)
	}
	logger.Info("ivf index built")
	return &Index{fn: fn, metric: metric, centroids: centroids, clusters: clusters, trans: trans, nprobe: nprobe, logger: logger}, nil
}

type scoredCentroid struct {
	idx  int
	dist float32
}

type candidate struct {
	internalID int
	dist       float32
}

// Search probes the nprobe closest centroids and returns the k closest
// vectors among their bucket members, using DefaultSearchParameters.
func (idx *Index) Search(query []float32, k int) ([]int64, []float32) {
	return idx.SearchWithParams(query, k, DefaultSearchParameters())
}

// SearchWithParams is Search with explicit §4.12 knobs: params.KReorder
// scales the per-partition candidate pool kept before the final top-k
// selection, and params.NInnerThreads fans the probed clusters' scan out
// across that many goroutines, each with its own bounded candidate list.
func (idx *Index) SearchWithParams(query []float32, k int, params SearchParameters) ([]int64, []float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores := ScoreQuery(query, idx.centroids, idx.metric, idx.fn)
	scored := make([]scoredCentroid, len(scores))
	for i, d := range scores {
		scored[i] = scoredCentroid{idx: i, dist: d}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].dist < scored[j].dist })

	nprobe := idx.nprobe
	if nprobe > len(scored) {
		nprobe = len(scored)
	}
	probed := scored[:nprobe]

	kReorder := params.KReorder
	if kReorder <= 0 {
		kReorder = 1
	}
	poolSize := k * kReorder

	threads := params.NInnerThreads
	if threads <= 0 {
		threads = 1
	}
	if threads > len(probed) {
		threads = len(probed)
	}
	if threads < 1 {
		threads = 1
	}

	pool := threadpool.NewFixedPool(threads)
	defer pool.Close()

	fn := idx.fn.FixArgument(query)
	partials := make([][]candidate, threads)
	chunk := (len(probed) + threads - 1) / threads
	if chunk < 1 {
		chunk = 1
	}
	pool.ParallelFor(context.Background(), threads, func(t int) error {
		start := t * chunk
		end := start + chunk
		if end > len(probed) {
			end = len(probed)
		}
		var local []candidate
		for _, sc := range probed[start:end] {
			for _, entry := range idx.clusters[sc.idx] {
				local = append(local, candidate{internalID: entry.internalID, dist: fn.Compute(query, entry.vector)})
			}
		}
		sort.Slice(local, func(i, j int) bool { return local[i].dist < local[j].dist })
		if poolSize > 0 && len(local) > poolSize {
			local = local[:poolSize]
		}
		partials[t] = local
		return nil
	})

	var candidates []candidate
	for _, p := range partials {
		candidates = append(candidates, p...)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	if k > len(candidates) {
		k = len(candidates)
	}
	ids := make([]int64, k)
	dists := make([]float32, k)
	for i := 0; i < k; i++ {
		ext, _ := idx.trans.ExternalID(candidates[i].internalID)
		ids[i] = ext
		dists[i] = candidates[i].dist
	}
	return ids, dists
}

func (idx *Index) NumClusters() int { return len(idx.centroids) }
func (idx *Index) Size() int        { return idx.trans.Size() }
