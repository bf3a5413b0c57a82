package vamana

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
	"github.com/vecdb/annindex/quantize"
	"github.com/vecdb/annindex/threadpool"
)

func randVectors(n, dims int, seed float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32((i*31+j*7)%101) + seed
		}
		out[i] = v
	}
	return out
}

func TestBuildAndSearchReturnsSelf(t *testing.T) {
	vectors := randVectors(200, 16, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}

	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 32

	idx, err := BuildStatic(ids, vectors, distance.L2, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)
	require.NotNil(t, idx)

	for i := 0; i < 10; i++ {
		resultIDs, dists, err := idx.Search(vectors[i], 5, DefaultSearchParameters())
		require.NoError(t, err)
		require.NotEmpty(t, resultIDs)
		require.Equal(t, resultIDs[0], ids[i], "closest result for an indexed point should be itself")
		require.InDelta(t, 0, dists[0], 1e-3)
	}
}

func TestGraphMaxDegreeInvariant(t *testing.T) {
	vectors := randVectors(300, 8, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 12

	idx, err := BuildStatic(ids, vectors, distance.IP, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)

	for i := 0; i < idx.graph.Size(); i++ {
		require.LessOrEqual(t, len(idx.graph.Neighbors(i)), params.GraphMaxDegree)
	}
}

func TestDynamicIndexInsertSearchDelete(t *testing.T) {
	dims := 8
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 24

	idx := NewDynamic(dims, distance.L2, params, nil)
	vectors := randVectors(100, dims, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	require.NoError(t, idx.AddPoints(ids, vectors))
	require.Equal(t, 100, idx.Size())

	resultIDs, _ := idx.Search(vectors[5], 3, DefaultSearchParameters())
	require.Contains(t, resultIDs, int64(5))

	require.NoError(t, idx.Delete([]int64{5}))
	resultIDs, _ = idx.Search(vectors[5], 10, DefaultSearchParameters())
	require.NotContains(t, resultIDs, int64(5))

	require.NoError(t, idx.Consolidate())
}

func TestDynamicIndexDeleteConsolidateCompactSearch(t *testing.T) {
	dims := 8
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 24

	idx := NewDynamic(dims, distance.L2, params, nil)
	vectors := randVectors(100, dims, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	require.NoError(t, idx.AddPoints(ids, vectors))
	require.NoError(t, idx.Delete([]int64{10, 20, 30}))
	require.NoError(t, idx.Consolidate())
	require.NoError(t, idx.Compact(32))
	require.Equal(t, 97, idx.Size())

	resultIDs, _ := idx.Search(vectors[50], 5, DefaultSearchParameters())
	require.Contains(t, resultIDs, int64(50))
	for _, deleted := range []int64{10, 20, 30} {
		resultIDs, _ := idx.Search(vectors[deleted], 1, DefaultSearchParameters())
		require.NotContains(t, resultIDs, deleted)
	}
}

func TestOpenDurableReplaysAfterRestart(t *testing.T) {
	dims := 8
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 24

	vectors := randVectors(60, dims, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}

	dir := t.TempDir()
	idx, err := OpenDurable(dir, false, dims, distance.L2, params, nil)
	require.NoError(t, err)
	require.NoError(t, idx.AddPoints(ids, vectors))
	require.NoError(t, idx.Close())

	restarted, err := OpenDurable(dir, false, dims, distance.L2, params, nil)
	require.NoError(t, err)
	defer restarted.Close()
	require.Equal(t, 60, restarted.Size())

	resultIDs, _ := restarted.Search(vectors[5], 1, DefaultSearchParameters())
	require.Equal(t, []int64{5}, resultIDs)
}

func TestBuildCompressedLVQReturnsSelf(t *testing.T) {
	vectors := randVectors(150, 16, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 32
	cparams := DefaultCompressedBuildParameters()
	cparams.Centroids = 4

	idx, err := BuildCompressedLVQ(ids, vectors, distance.L2, cparams, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)
	require.NotNil(t, idx)

	sp := DefaultSearchParameters()
	sp.Capacity = 64
	for i := 0; i < 10; i++ {
		resultIDs, _, err := idx.Search(vectors[i], 5, sp)
		require.NoError(t, err)
		require.Contains(t, resultIDs, ids[i])
	}
}

func TestBuildCompressedLVQWithResidualReturnsSelf(t *testing.T) {
	vectors := randVectors(120, 16, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 32
	cparams := CompressedBuildParameters{Bits: 4, ResidualBits: 8, Centroids: 1}

	idx, err := BuildCompressedLVQ(ids, vectors, distance.L2, cparams, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		resultIDs, _, err := idx.Search(vectors[i], 5, DefaultSearchParameters())
		require.NoError(t, err)
		require.Contains(t, resultIDs, ids[i])
	}
}

func TestBuildLeanVecRerankFindsSelf(t *testing.T) {
	vectors := randVectors(200, 16, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 32
	lparams := LeanVecBuildParameters{OutDims: 8}

	idx, err := BuildLeanVec(ids, vectors, distance.L2, lparams, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)
	require.NotNil(t, idx)

	sp := SearchParameters{WindowSize: 32, Capacity: 96}
	for i := 0; i < 10; i++ {
		resultIDs, _, err := idx.Search(vectors[i], 5, sp)
		require.NoError(t, err)
		require.Contains(t, resultIDs, ids[i])
	}
}

func TestBuildLeanVecOODUsesSuppliedMatrices(t *testing.T) {
	vectors := randVectors(100, 8, 0)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 12
	params.WindowSize = 24

	dataMatrix := make([][]float32, 4)
	queryMatrix := make([][]float32, 4)
	for i := range dataMatrix {
		row := make([]float32, 8)
		row[i] = 1
		dataMatrix[i] = row
		queryMatrix[i] = append([]float32(nil), row...)
	}
	transform := quantize.NewOOD(dataMatrix, queryMatrix)
	lparams := LeanVecBuildParameters{OOD: transform, SecondaryBits: 8}

	idx, err := BuildLeanVec(ids, vectors, distance.L2, lparams, params, threadpool.NewSequential(), nil)
	require.NoError(t, err)

	sp := SearchParameters{WindowSize: 24, Capacity: 64}
	for i := 0; i < 5; i++ {
		resultIDs, _, err := idx.Search(vectors[i], 3, sp)
		require.NoError(t, err)
		require.Contains(t, resultIDs, ids[i])
	}
}

func TestBatchIteratorDistinctIncreasingBatches(t *testing.T) {
	dims := 8
	n := 150
	ds := dataset.New(dims)
	vectors := randVectors(n, dims, 0)
	for _, v := range vectors {
		_, err := ds.Append(v)
		require.NoError(t, err)
	}
	fn := distance.MustGet(distance.L2)
	params := DefaultBuildParameters()
	params.GraphMaxDegree = 16
	params.WindowSize = 32
	g, err := Build(ds, fn, params, threadpool.NewSequential())
	require.NoError(t, err)

	it := NewBatchIterator(ds, g, fn, vectors[0], 16, 10)
	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		batch, ok := it.Next()
		if !ok {
			break
		}
		for _, c := range batch {
			require.False(t, seen[c.ID], "batch iterator must not repeat an id across batches")
			seen[c.ID] = true
			require.GreaterOrEqual(t, c.Distance, float32(0))
		}
	}
}
