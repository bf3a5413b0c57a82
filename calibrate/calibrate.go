// Package calibrate auto-tunes search parameters to meet a target
// recall, built directly on the recall-metric style of the teacher's
// recall.go (GetRecallValue, GetRecallStats), extended with a
// binary-search driver over search-window-size and a memoized
// ternary-search prefetch sweep.
package calibrate

import "math"

// RecallAtK computes R@k = |ground-truth ∩ result| / k, averaged across
// queries. This matches the teacher's GetRecallValue convention
// (denominator is the result size, i.e. k) rather than its inconsistent
// CalculateSingleRecall (denominator is the ground-truth size); see
// DESIGN.md for why the former was kept and the latter was not carried
// forward.
func RecallAtK(groundTruth, results [][]int64) float64 {
	if len(groundTruth) == 0 {
		return 0
	}
	var total float64
	for i := range groundTruth {
		truth := make(map[int64]bool, len(groundTruth[i]))
		for _, id := range groundTruth[i] {
			truth[id] = true
		}
		hits := 0
		for _, id := range results[i] {
			if truth[id] {
				hits++
			}
		}
		k := len(results[i])
		if k == 0 {
			continue
		}
		total += float64(hits) / float64(k)
	}
	avg := total / float64(len(groundTruth))
	return math.Round(avg*1000) / 1000.0
}

// SearchFunc runs a single batch of queries at a given window size and
// returns each query's result IDs, used as the evaluation hook for
// binary search without calibrate depending on any particular index type.
type SearchFunc func(windowSize int) (results [][]int64)

// BinarySearchWindowSize finds the smallest search-window-size within
// [minWindow, maxWindow] whose measured recall against groundTruth meets
// or exceeds targetRecall, following spec's target-recall auto-tuning
// algorithm: binary search on window size, since recall is monotonically
// non-decreasing in window size.
func BinarySearchWindowSize(search SearchFunc, groundTruth [][]int64, targetRecall float64, minWindow, maxWindow int) (int, float64) {
	lo, hi := minWindow, maxWindow
	bestWindow := maxWindow
	bestRecall := RecallAtK(groundTruth, search(maxWindow))

	for lo <= hi {
		mid := lo + (hi-lo)/2
		recall := RecallAtK(groundTruth, search(mid))
		if recall >= targetRecall {
			bestWindow = mid
			bestRecall = recall
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return bestWindow, bestRecall
}

// SplitBufferCapacitySearch tunes the search buffer's total capacity C
// (holding window size W fixed) the same way BinarySearchWindowSize
// tunes W: find the smallest C >= W meeting the target recall.
func SplitBufferCapacitySearch(search func(capacity int) [][]int64, groundTruth [][]int64, targetRecall float64, windowSize, maxCapacity int) (int, float64) {
	lo, hi := windowSize, maxCapacity
	bestCapacity := maxCapacity
	bestRecall := RecallAtK(groundTruth, search(maxCapacity))

	for lo <= hi {
		mid := lo + (hi-lo)/2
		recall := RecallAtK(groundTruth, search(mid))
		if recall >= targetRecall {
			bestCapacity = mid
			bestRecall = recall
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return bestCapacity, bestRecall
}

// TimedSearchFunc runs queries at a given prefetch lookahead and reports
// both results and elapsed time in arbitrary caller-defined units
// (e.g. nanoseconds per query), so PrefetchSweep can pick the fastest
// setting that still clears the recall bar.
type TimedSearchFunc func(prefetch int) (results [][]int64, elapsed float64)

// PrefetchSweep finds the prefetch lookahead that minimizes latency
// without dropping below targetRecall, using a ternary search with a
// timing memo table rather than testing every integer lookahead value:
// each step drops a third of [lo, hi], and the last few values are
// scanned directly. The range is not narrowed by halving intervals
// around the best point found so far.
func PrefetchSweep(search TimedSearchFunc, groundTruth [][]int64, targetRecall float64, minPrefetch, maxPrefetch int) (bestPrefetch int, bestElapsed float64) {
	memo := make(map[int]float64)
	timed := func(p int) float64 {
		if t, ok := memo[p]; ok {
			return t
		}
		results, elapsed := search(p)
		if RecallAtK(groundTruth, results) < targetRecall {
			elapsed = math.Inf(1)
		}
		memo[p] = elapsed
		return elapsed
	}

	lo, hi := minPrefetch, maxPrefetch
	bestPrefetch = lo
	bestElapsed = timed(lo)

	for hi-lo > 2 {
		mid1 := lo + (hi-lo)/3
		mid2 := hi - (hi-lo)/3
		e1, e2 := timed(mid1), timed(mid2)
		if e1 <= e2 {
			hi = mid2
			if e1 < bestElapsed {
				bestPrefetch, bestElapsed = mid1, e1
			}
		} else {
			lo = mid1
			if e2 < bestElapsed {
				bestPrefetch, bestElapsed = mid2, e2
			}
		}
	}
	for p := lo; p <= hi; p++ {
		if e := timed(p); e < bestElapsed {
			bestPrefetch, bestElapsed = p, e
		}
	}
	return bestPrefetch, bestElapsed
}

// Stats mirrors the teacher's GetRecallStats: average/min/max/stddev
// over a set of per-query recall values.
type Stats struct {
	Avg    float64
	Min    float64
	Max    float64
	StdDev float64
}

func RecallStats(perQuery []float64) Stats {
	if len(perQuery) == 0 {
		return Stats{}
	}
	min, max, sum := perQuery[0], perQuery[0], 0.0
	for _, v := range perQuery {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(perQuery))

	var variance float64
	for _, v := range perQuery {
		d := v - avg
		variance += d * d
	}
	variance /= float64(len(perQuery))

	return Stats{Avg: avg, Min: min, Max: max, StdDev: math.Sqrt(variance)}
}
