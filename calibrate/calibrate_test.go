package calibrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecallAtKPerfectMatch(t *testing.T) {
	truth := [][]int64{{1, 2, 3}}
	results := [][]int64{{1, 2, 3}}
	require.Equal(t, 1.0, RecallAtK(truth, results))
}

func TestRecallAtKPartialMatch(t *testing.T) {
	truth := [][]int64{{1, 2, 3, 4}}
	results := [][]int64{{1, 2, 9, 10}}
	require.Equal(t, 0.5, RecallAtK(truth, results))
}

func TestBinarySearchWindowSizeFindsMinimalWindow(t *testing.T) {
	truth := [][]int64{{1, 2, 3}}
	search := func(windowSize int) [][]int64 {
		if windowSize >= 50 {
			return [][]int64{{1, 2, 3}}
		}
		return [][]int64{{1, 9, 9}}
	}
	window, recall := BinarySearchWindowSize(search, truth, 1.0, 1, 100)
	require.Equal(t, 50, window)
	require.Equal(t, 1.0, recall)
}

func TestPrefetchSweepPicksFastestAboveTarget(t *testing.T) {
	truth := [][]int64{{1}}
	search := func(prefetch int) ([][]int64, float64) {
		if prefetch < 4 {
			return [][]int64{{9}}, 1
		}
		return [][]int64{{1}}, float64(prefetch)
	}
	best, elapsed := PrefetchSweep(search, truth, 1.0, 1, 16)
	require.GreaterOrEqual(t, best, 4)
	require.Greater(t, elapsed, 0.0)
}

func TestRecallStats(t *testing.T) {
	stats := RecallStats([]float64{0.5, 1.0, 0.75})
	require.InDelta(t, 0.75, stats.Avg, 1e-9)
	require.Equal(t, 0.5, stats.Min)
	require.Equal(t, 1.0, stats.Max)
}
