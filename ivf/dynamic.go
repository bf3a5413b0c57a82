package ivf

import (
	"sort"
	"sync"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/internal/durable"
	"github.com/vecdb/annindex/logging"
)

// DynamicIndex wraps a fixed centroid set (fit once, e.g. via Build on a
// representative sample) and supports incremental insert/delete of
// bucket members without re-clustering, following the teacher's
// IVF-flat Insert (assign to nearest existing centroid, append) and
// Delete (remove from the owning bucket).
type DynamicIndex struct {
	mu        sync.RWMutex
	fn        distance.Functor
	metric    distance.Kind
	centroids [][]float32
	clusters  [][]clusterEntry
	trans     *dataset.Translator
	owner     map[int]int // internal id -> cluster index, for delete
	nprobe    int
	logger    logging.Logger
	wal       *durable.Log
}

// NewDynamic seeds a dynamic index from a fitted centroid set, typically
// produced by a one-time Build call over a representative sample.
func NewDynamic(centroids [][]float32, metric distance.Kind, nprobe int, logger logging.Logger) *DynamicIndex {
	if logger == nil {
		logger = logging.NoOp()
	}
	if nprobe <= 0 || nprobe > len(centroids) {
		nprobe = len(centroids)
	}
	return &DynamicIndex{
		fn:        distance.MustGet(metric),
		metric:    metric,
		centroids: centroids,
		clusters:  make([][]clusterEntry, len(centroids)),
		trans:     dataset.NewTranslator(),
		owner:     make(map[int]int),
		nprobe:    nprobe,
		logger:    logger,
	}
}

// OpenDurable seeds a dynamic index the same way NewDynamic does, then
// opens a badger-backed pending-mutation log at dir and replays it,
// mirroring vamana.OpenDurable so a process restart picks back up
// between Insert/Delete calls and the next save.
func OpenDurable(dir string, inMemory bool, centroids [][]float32, metric distance.Kind, nprobe int, logger logging.Logger) (*DynamicIndex, error) {
	wal, err := durable.Open(dir, inMemory)
	if err != nil {
		return nil, err
	}
	idx := NewDynamic(centroids, metric, nprobe, logger)
	idx.wal = wal
	if err := wal.Replay(func(m durable.Mutation) error {
		switch m.Kind {
		case durable.MutationInsert:
			return idx.insert(m.ExternalID, m.Vector)
		case durable.MutationDelete:
			return idx.delete(m.ExternalID)
		}
		return nil
	}); err != nil {
		wal.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *DynamicIndex) Close() error {
	if idx.wal == nil {
		return nil
	}
	return idx.wal.Close()
}

func (idx *DynamicIndex) nearestCentroid(v []float32) int {
	scores := ScoreQuery(v, idx.centroids, idx.metric, idx.fn)
	best, bestScore := 0, scores[0]
	for c := 1; c < len(scores); c++ {
		if scores[c] < bestScore {
			best, bestScore = c, scores[c]
		}
	}
	return best
}

func (idx *DynamicIndex) insert(externalID int64, v []float32) error {
	internal, err := idx.trans.Insert(externalID)
	if err != nil {
		return err
	}
	c := idx.nearestCentroid(v)
	idx.clusters[c] = append(idx.clusters[c], clusterEntry{internalID: internal, vector: v})
	idx.owner[internal] = c
	return nil
}

func (idx *DynamicIndex) delete(externalID int64) error {
	internal, ok := idx.trans.InternalID(externalID)
	if !ok {
		return nil
	}
	c, ok := idx.owner[internal]
	if !ok {
		return nil
	}
	bucket := idx.clusters[c]
	for i, entry := range bucket {
		if entry.internalID == internal {
			idx.clusters[c] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	delete(idx.owner, internal)
	return idx.trans.Delete(externalID)
}

// Insert assigns each vector to its nearest existing centroid's bucket,
// logging each one to the pending-mutation WAL first when durable
// staging is enabled.
func (idx *DynamicIndex) Insert(externalIDs []int64, vectors [][]float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, v := range vectors {
		if idx.wal != nil {
			if err := idx.wal.Append(durable.Mutation{Kind: durable.MutationInsert, ExternalID: externalIDs[i], Vector: v}); err != nil {
				return err
			}
		}
		if err := idx.insert(externalIDs[i], v); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes external IDs from their owning buckets, logging each
// one to the pending-mutation WAL first when durable staging is enabled.
func (idx *DynamicIndex) Delete(externalIDs []int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, ext := range externalIDs {
		if idx.wal != nil {
			if err := idx.wal.Append(durable.Mutation{Kind: durable.MutationDelete, ExternalID: ext}); err != nil {
				return err
			}
		}
		if err := idx.delete(ext); err != nil {
			return err
		}
	}
	return nil
}

func (idx *DynamicIndex) Search(query []float32, k int) ([]int64, []float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		idx  int
		dist float32
	}
	scores := ScoreQuery(query, idx.centroids, idx.metric, idx.fn)
	centroidScores := make([]scored, len(scores))
	for i, d := range scores {
		centroidScores[i] = scored{idx: i, dist: d}
	}
	sort.Slice(centroidScores, func(i, j int) bool { return centroidScores[i].dist < centroidScores[j].dist })

	nprobe := idx.nprobe
	if nprobe > len(centroidScores) {
		nprobe = len(centroidScores)
	}

	type candidate struct {
		internalID int
		dist       float32
	}
	fn := idx.fn.FixArgument(query)
	var candidates []candidate
	for _, cs := range centroidScores[:nprobe] {
		for _, entry := range idx.clusters[cs.idx] {
			candidates = append(candidates, candidate{internalID: entry.internalID, dist: fn.Compute(query, entry.vector)})
		}
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

func (idx *DynamicIndex) Size() int { return idx.trans.Size() }
