package ivf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vecdb/annindex/distance"
)

func sampleVectors(n, dims int) [][]float32 {
	r := rand.New(rand.NewSource(42))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dims)
		for j := range v {
			v[j] = r.Float32() * 100
		}
		out[i] = v
	}
	return out
}

func TestFlatKMeansAssignsEveryVector(t *testing.T) {
	vectors := sampleVectors(300, 8)
	fn := distance.MustGet(distance.L2)
	res, err := FlatKMeans(vectors, 10, fn, rand.New(rand.NewSource(7)))
	if err != nil {
		require.True(t, isUnconvergent(err))
	}
	require.Len(t, res.Assignments, len(vectors))
	for _, c := range res.Assignments {
		require.GreaterOrEqual(t, c, 0)
		require.Less(t, c, len(res.Centroids))
	}
}

func TestIVFBuildAndSearchReturnsSelf(t *testing.T) {
	vectors := sampleVectors(400, 8)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.Nlist = 16
	params.Nprobe = 8

	idx, err := Build(ids, vectors, distance.L2, params, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		resultIDs, dists := idx.Search(vectors[i], 3)
		require.NotEmpty(t, resultIDs)
		require.Contains(t, resultIDs, ids[i])
		require.GreaterOrEqual(t, dists[0], float32(0))
	}
}

func TestIVFDynamicInsertSearchDelete(t *testing.T) {
	vectors := sampleVectors(200, 8)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.Nlist = 8
	built, err := Build(ids[:100], vectors[:100], distance.L2, params, nil)
	require.NoError(t, err)

	dyn := NewDynamic(built.centroids, distance.L2, 4, nil)
	require.NoError(t, dyn.Insert(ids[100:], vectors[100:]))
	require.Equal(t, 100, dyn.Size())

	resultIDs, _ := dyn.Search(vectors[150], 1)
	require.Equal(t, []int64{150}, resultIDs)

	require.NoError(t, dyn.Delete([]int64{150}))
	resultIDs, _ = dyn.Search(vectors[150], 5)
	require.NotContains(t, resultIDs, int64(150))
}

func TestIVFSearchWithParamsFinerReorderStillFindsSelf(t *testing.T) {
	vectors := sampleVectors(400, 8)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.Nlist = 16
	params.Nprobe = 8

	idx, err := Build(ids, vectors, distance.L2, params, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		resultIDs, _ := idx.SearchWithParams(vectors[i], 3, SearchParameters{KReorder: 4, NInnerThreads: 3})
		require.Contains(t, resultIDs, ids[i])
	}
}

func TestIVFDurableReplayRebuildsAfterRestart(t *testing.T) {
	vectors := sampleVectors(100, 8)
	ids := make([]int64, len(vectors))
	for i := range ids {
		ids[i] = int64(i)
	}
	params := DefaultBuildParameters()
	params.Nlist = 8
	built, err := Build(ids[:50], vectors[:50], distance.L2, params, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	dyn, err := OpenDurable(dir, false, built.centroids, distance.L2, 4, nil)
	require.NoError(t, err)
	require.NoError(t, dyn.Insert(ids[50:], vectors[50:]))
	require.NoError(t, dyn.Close())

	restarted, err := OpenDurable(dir, false, built.centroids, distance.L2, 4, nil)
	require.NoError(t, err)
	defer restarted.Close()
	require.Equal(t, 50, restarted.Size())

	resultIDs, _ := restarted.Search(vectors[75], 1)
	require.Equal(t, []int64{75}, resultIDs)
}
