package quantize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vecdb/annindex/distance"
)

func TestLVQ1RoundTripApproximatesInput(t *testing.T) {
	q := LVQ1{Bits: 8}
	v := []float32{0.1, 0.5, 0.9, -0.3, 2.5}
	decoded := q.Decode(q.Encode(v))
	require.Len(t, decoded, len(v))
	require.Less(t, q.ReconstructionError(v), 0.01)
}

func TestLVQ1LowerBitsHigherError(t *testing.T) {
	v := []float32{0.1, 0.5, 0.9, -0.3, 2.5, 1.1, 3.3}
	err4 := LVQ1{Bits: 4}.ReconstructionError(v)
	err8 := LVQ1{Bits: 8}.ReconstructionError(v)
	require.Greater(t, err4, err8)
}

func TestLVQ2TighterThanLVQ1(t *testing.T) {
	v := []float32{0.1, 0.5, 0.9, -0.3, 2.5, 1.1, 3.3, -2.2}
	lvq1 := LVQ1{Bits: 4}
	lvq2 := LVQ2{Primary: LVQ1{Bits: 4}, Residual: LVQ1{Bits: 8}}

	decoded1 := lvq1.Decode(lvq1.Encode(v))
	decoded2 := lvq2.Decode(lvq2.Encode(v))

	errOf := func(decoded []float32) float64 {
		var sum float64
		for i := range v {
			d := float64(v[i] - decoded[i])
			sum += d * d
		}
		return sum / float64(len(v))
	}
	require.Less(t, errOf(decoded2), errOf(decoded1))
}

func TestTurboRejectsUnsupportedCombination(t *testing.T) {
	require.NoError(t, Turbo(4, 8))
	require.NoError(t, Turbo(8, 0))
	require.Error(t, Turbo(2, 3))
}

func TestFitPCAReducesDimensionality(t *testing.T) {
	samples := [][]float32{
		{1, 0, 0, 1},
		{0, 1, 0, 1},
		{1, 1, 0, 1},
		{0, 0, 1, 1},
	}
	transform, err := FitPCA(samples, 2)
	require.NoError(t, err)
	require.Equal(t, 2, transform.ReducedDims())

	reduced := transform.Primary(samples[0])
	require.Len(t, reduced, 2)
}

func TestOODTransformUsesDistinctMatrices(t *testing.T) {
	dataMatrix := [][]float32{{1, 0}, {0, 1}}
	queryMatrix := [][]float32{{0, 1}, {1, 0}}
	transform := NewOOD(dataMatrix, queryMatrix)

	v := []float32{3, 4}
	require.Equal(t, []float32{3, 4}, transform.Primary(v))
	require.Equal(t, []float32{4, 3}, transform.TransformQuery(v, distance.L2))
}

func TestLVQ1EncodesRelativeToNearestCentroid(t *testing.T) {
	centroids := NewCentroidTable([][]float32{{0, 0, 0}, {10, 10, 10}})
	q := LVQ1{Bits: 8, Centroids: centroids}

	near := []float32{9.8, 10.1, 9.9}
	e := q.Encode(near)
	require.Equal(t, 1, e.Selector)

	decoded := q.Decode(e)
	for i := range near {
		require.InDelta(t, near[i], decoded[i], 0.1)
	}
}

func TestGlobalCentroidTableIsSizeOne(t *testing.T) {
	medoid := []float32{1, 2, 3}
	table := NewGlobalCentroidTable(medoid)
	require.Equal(t, 1, table.Size())

	q := LVQ1{Bits: 8, Centroids: table}
	v := []float32{1.1, 2.1, 2.9}
	e := q.Encode(v)
	require.Equal(t, 0, e.Selector)
}

func TestPackSequentialRoundTrip(t *testing.T) {
	codes := []uint8{0, 3, 7, 15, 1, 9}
	packed := PackSequential(codes, 4)
	unpacked := UnpackSequential(packed, len(codes), 4)
	require.Equal(t, codes, unpacked)
}

func TestPackTurboBatchRoundTrip(t *testing.T) {
	vectorCodes := make([][]uint8, 20)
	for i := range vectorCodes {
		vectorCodes[i] = []uint8{uint8(i), uint8(i * 2), uint8(255 - i)}
	}
	packed, err := PackTurboBatch(vectorCodes, 8)
	require.NoError(t, err)

	unpacked := UnpackTurboBatch(packed, len(vectorCodes), 3)
	require.Equal(t, vectorCodes, unpacked)
}

func TestPackTurboBatchRejects4Bit(t *testing.T) {
	// 4-bit is a valid Turbo() bit pair but batch interleaving is only
	// implemented for byte-aligned (8-bit) codes; see PackSequential for
	// the 4-bit path.
	_, err := PackTurboBatch([][]uint8{{1, 2}}, 4)
	require.Error(t, err)
}

func TestCompressedDatasetAdaptedDistanceMatchesDecoded(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3, 4},
		{5, 1, 2, 0},
		{0, 0, 0, 1},
		{9, 9, 9, 9},
	}
	table := NewGlobalCentroidTable([]float32{2, 2, 2, 2})
	cds, err := NewCompressedDataset(vectors, table, LVQ1{Bits: 8}, nil)
	require.NoError(t, err)

	query := []float32{1, 1, 1, 1}
	fn := distance.MustGet(distance.L2)
	aq := cds.FixQuery(query)

	for id := range vectors {
		want := fn.Compute(query, cds.Get(id))
		got := aq.ComputeEncoded(id)
		require.InDelta(t, want, got, 0.05)
	}
}
