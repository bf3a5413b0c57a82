package vamana

import (
	"sync"

	annerrors "github.com/vecdb/annindex/errors"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/internal/durable"
	"github.com/vecdb/annindex/logging"
	"github.com/vecdb/annindex/searchbuffer"
)

// DynamicIndex supports incremental insert, tombstone-based delete, and
// periodic consolidate/compact, generalizing the teacher's AISAQ
// Insert/Delete (beamSearch for neighbor candidates, bidirectional edges
// with reverse re-prune on overflow, adjacency cleanup on delete) onto
// the alpha-pruned Vamana graph and a side-table translator instead of
// deleting from every neighbor's adjacency list inline.
type DynamicIndex struct {
	mu     sync.RWMutex
	ds     *dataset.BlockedDataset
	graph  *Graph
	fn     distance.Functor
	trans  *dataset.Translator
	params BuildParameters
	logger logging.Logger
	wal    *durable.Log
}

func NewDynamic(dims int, metric distance.Kind, params BuildParameters, logger logging.Logger) *DynamicIndex {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &DynamicIndex{
		ds:     dataset.NewBlocked(dims, 4096),
		graph:  NewGraph(params.GraphMaxDegree),
		fn:     distance.MustGet(metric),
		trans:  dataset.NewTranslator(),
		params: params,
		logger: logger,
	}
}

// OpenDurable opens (or creates) a badger-backed mutation log at dir and
// replays any pending entries into a fresh DynamicIndex before attaching
// the log for future Append calls, so a process restarted between
// Consolidate passes picks its pending inserts/deletes back up instead
// of losing them.
func OpenDurable(dir string, inMemory bool, dims int, metric distance.Kind, params BuildParameters, logger logging.Logger) (*DynamicIndex, error) {
	wal, err := durable.Open(dir, inMemory)
	if err != nil {
		return nil, err
	}
	idx := NewDynamic(dims, metric, params, logger)
	idx.wal = wal

	if err := wal.Replay(func(m durable.Mutation) error {
		switch m.Kind {
		case durable.MutationInsert:
			return idx.addPoint(m.ExternalID, m.Vector)
		case durable.MutationDelete:
			return idx.trans.Delete(m.ExternalID)
		}
		return nil
	}); err != nil {
		wal.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the durable log, if one is attached.
func (idx *DynamicIndex) Close() error {
	if idx.wal == nil {
		return nil
	}
	return idx.wal.Close()
}

// AddPoints inserts a batch of (external id, vector) pairs, running a
// greedy search against the current graph for each to find candidate
// neighbors, then robust-pruning and wiring bidirectional edges with
// reverse re-prune on overflow, the same shape as the teacher's
// Insert, generalized to alpha-pruning instead of plain distance-sort
// truncation.
func (idx *DynamicIndex) AddPoints(externalIDs []int64, vectors [][]float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, v := range vectors {
		if idx.wal != nil {
			if err := idx.wal.Append(durable.Mutation{Kind: durable.MutationInsert, ExternalID: externalIDs[i], Vector: v}); err != nil {
				return err
			}
		}
		if err := idx.addPoint(externalIDs[i], v); err != nil {
			return err
		}
	}
	return nil
}

// addPoint does the actual insert work shared by AddPoints and durable-log
// replay; it does not itself append to the log, so replay doesn't
// re-log entries it's only re-applying.
func (idx *DynamicIndex) addPoint(externalID int64, v []float32) error {
	internal, err := idx.ds.Append(v)
	if err != nil {
		return err
	}
	if _, err := idx.trans.Insert(externalID); err != nil {
		return err
	}
	idx.graph.EnsureSize(internal + 1)

	if internal == 0 {
		idx.graph.SetEntryPoint(0)
		return nil
	}

	buf := GreedySearch(idx.ds, idx.graph, idx.fn, v, idx.params.WindowSize, idx.params.WindowSize)
	candidates := buf.All()
	accepted := robustPrune(idx.ds, idx.fn, internal, candidates, idx.graph, idx.params.Alpha, idx.params.pruneTarget())
	idx.graph.SetNeighbors(internal, accepted)

	for _, nb := range accepted {
		if !idx.graph.AddEdge(int(nb), int32(internal)) {
			repruneNeighbor(idx.ds, idx.fn, int(nb), idx.graph, idx.params.Alpha, idx.params.pruneTarget())
			idx.graph.AddEdge(int(nb), int32(internal))
		}
	}
	return nil
}

// Delete tombstones the given external IDs. Edges into and out of
// deleted nodes remain in the graph until Consolidate runs, matching
// spec §4.8's deferred-cleanup model rather than the teacher's
// immediate adjacency-list surgery.
func (idx *DynamicIndex) Delete(externalIDs []int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, ext := range externalIDs {
		if idx.wal != nil {
			if err := idx.wal.Append(durable.Mutation{Kind: durable.MutationDelete, ExternalID: ext}); err != nil {
				return err
			}
		}
		if err := idx.trans.Delete(ext); err != nil {
			return err
		}
	}
	return nil
}

// Consolidate rewrites the out-edges of every live node so none point at
// a tombstoned node: for each live node whose neighbor list contains a
// tombstone, that tombstone's own out-edges are spliced in as
// replacement candidates and the result is robust-pruned back down to
// the degree bound.
func (idx *DynamicIndex) Consolidate() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, id := range idx.trans.LiveIDs() {
		neighbors := idx.graph.Neighbors(id)
		hasTombstone := false
		for _, n := range neighbors {
			if idx.trans.IsTombstoned(int(n)) {
				hasTombstone = true
				break
			}
		}
		if !hasTombstone {
			continue
		}

		replacement := make(map[int32]bool)
		for _, n := range neighbors {
			if idx.trans.IsTombstoned(int(n)) {
				for _, n2 := range idx.graph.Neighbors(int(n)) {
					if !idx.trans.IsTombstoned(int(n2)) && int(n2) != id {
						replacement[n2] = true
					}
				}
			} else {
				replacement[n] = true
			}
		}

		vVec := idx.ds.Get(id)
		fixed := idx.fn.FixArgument(vVec)
		candidates := make([]searchbuffer.Candidate, 0, len(replacement))
		for n := range replacement {
			candidates = append(candidates, searchbuffer.Candidate{ID: int(n), Distance: fixed.Compute(vVec, idx.ds.Get(int(n)))})
		}
		// Clear first: robustPrune also merges the node's current
		// neighbors, which still include the tombstones.
		idx.graph.SetNeighbors(id, nil)
		pruned := robustPrune(idx.ds, idx.fn, id, candidates, idx.graph, idx.params.Alpha, idx.params.pruneTarget())
		idx.graph.SetNeighbors(id, pruned)
	}
	return nil
}

// Compact reclaims tombstoned slots by renumbering live internal IDs
// into a dense prefix: the dataset, translator and graph are all rebuilt
// in lockstep so every edge and external-ID mapping still points at the
// right row afterward. It must run after Consolidate so no live edge
// still references a tombstone (a live node pointing at one would be
// silently dropped by the remap below instead of erroring, so running
// out of order would quietly corrupt adjacency rather than fail loudly).
//
// batchSize controls how many rows are moved per iteration of the
// renumbering pass; it doesn't change the result. The whole compaction
// runs under the index lock without yielding, so batchSize only chunks
// the row-move loop, mirroring spec's compact(batch_size) shape.
func (idx *DynamicIndex) Compact(batchSize int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if batchSize <= 0 {
		batchSize = 4096
	}

	liveIDs := idx.trans.LiveIDs()
	oldToNew := make(map[int]int, len(liveIDs))
	for newID, oldID := range liveIDs {
		oldToNew[oldID] = newID
	}

	// Move vectors into a dense prefix. liveIDs is strictly increasing
	// and newID <= oldID at every step, so writing row newID can never
	// clobber a row some later iteration still needs to read.
	for start := 0; start < len(liveIDs); start += batchSize {
		end := start + batchSize
		if end > len(liveIDs) {
			end = len(liveIDs)
		}
		for newID := start; newID < end; newID++ {
			oldID := liveIDs[newID]
			if newID == oldID {
				continue
			}
			if err := idx.ds.Set(newID, idx.ds.Get(oldID)); err != nil {
				return err
			}
		}
	}
	idx.ds.Truncate(len(liveIDs))

	newGraph := NewGraph(idx.graph.MaxDegree())
	newGraph.EnsureSize(len(liveIDs))
	for newID, oldID := range liveIDs {
		var remapped []int32
		for _, n := range idx.graph.Neighbors(oldID) {
			if mapped, ok := oldToNew[int(n)]; ok {
				remapped = append(remapped, int32(mapped))
			}
		}
		newGraph.SetNeighbors(newID, remapped)
	}
	if newEntry, ok := oldToNew[idx.graph.EntryPoint()]; ok {
		newGraph.SetEntryPoint(newEntry)
	} else if len(liveIDs) > 0 {
		newGraph.SetEntryPoint(0)
	}

	externals := make([]int64, len(liveIDs))
	for newID, oldID := range liveIDs {
		ext, ok := idx.trans.ExternalID(oldID)
		if !ok {
			return annerrors.NewOther("compact: live internal id has no external mapping", nil)
		}
		externals[newID] = ext
	}

	idx.graph = newGraph
	idx.trans = dataset.NewTranslatorFromLive(externals)

	if idx.wal != nil {
		if err := idx.wal.Truncate(); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the k nearest live external IDs for a query.
func (idx *DynamicIndex) Search(query []float32, k int, params SearchParameters) ([]int64, []float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	buf := GreedySearch(idx.ds, idx.graph, idx.fn, query, params.WindowSize, params.WindowSize)
	candidates := buf.All()

	ids := make([]int64, 0, k)
	dists := make([]float32, 0, k)
	for _, c := range candidates {
		if idx.trans.IsTombstoned(c.ID) {
			continue
		}
		ext, ok := idx.trans.ExternalID(c.ID)
		if !ok {
			continue
		}
		ids = append(ids, ext)
		dists = append(dists, c.Distance)
		if len(ids) == k {
			break
		}
	}
	return ids, dists
}

func (idx *DynamicIndex) Size() int { return idx.trans.Size() }
