package blas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatMulComputesDotProducts(t *testing.T) {
	a := [][]float32{{1, 0}, {0, 1}}
	b := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	out := MatMul(a, b)
	require.Equal(t, [][]float32{
		{1, 0, 1},
		{0, 1, 1},
	}, out)
}

func TestPCAReturnsRequestedComponentCount(t *testing.T) {
	samples := [][]float32{
		{1, 2, 3, 4},
		{2, 3, 4, 5},
		{3, 1, 5, 2},
		{4, 4, 1, 1},
	}
	components, mean, err := PCA(samples, 2)
	require.NoError(t, err)
	require.Len(t, components, 2)
	require.Len(t, mean, 4)
}

func TestProjectMatchesComponentCount(t *testing.T) {
	components := [][]float32{{1, 0, 0}, {0, 1, 0}}
	mean := []float32{0, 0, 0}
	out := Project([]float32{3, 4, 5}, components, mean)
	require.Equal(t, []float32{3, 4}, out)
}
