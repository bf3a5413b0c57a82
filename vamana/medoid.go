package vamana

import (
	"math/rand"

	"github.com/vecdb/annindex/dataset"
	"github.com/vecdb/annindex/distance"
)

// exactMedoidThreshold is the dataset-size cutoff below which the exact
// medoid (full scan against the true mean) is computed; above it an
// approximate medoid is estimated from a random sample, following the
// exact/approximate split documented in the original's medoid header.
const exactMedoidThreshold = 50_000

// ComputeMedoid returns the internal ID whose vector is closest to the
// dataset mean, used as the Vamana graph's entry point. For small
// datasets this is an exact full scan; for large ones it samples to
// avoid an O(n*dims) mean computation plus O(n) distance pass on every
// build.
func ComputeMedoid(ds dataset.Source, fn distance.Functor, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	if n <= exactMedoidThreshold {
		return exactMedoid(ds, fn, n)
	}
	return approximateMedoid(ds, fn, n)
}

func exactMedoid(ds dataset.Source, fn distance.Functor, n int) (int, error) {
	dims := ds.Dims()
	mean := make([]float32, dims)
	for i := 0; i < n; i++ {
		v := ds.Get(i)
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float32(n)
	}
	return closestTo(ds, fn, mean, n), nil
}

// approximateMedoid estimates the mean from a fixed-size random sample,
// then finds the sampled point closest to that estimated mean rather
// than scanning the full dataset a second time.
func approximateMedoid(ds dataset.Source, fn distance.Functor, n int) (int, error) {
	const sampleSize = 10_000
	dims := ds.Dims()
	perm := rand.Perm(n)
	if len(perm) > sampleSize {
		perm = perm[:sampleSize]
	}

	mean := make([]float32, dims)
	for _, id := range perm {
		v := ds.Get(id)
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float32(len(perm))
	}

	fn = fn.FixArgument(mean)
	best := perm[0]
	bestDist := fn.Compute(mean, ds.Get(best))
	for _, id := range perm[1:] {
		d := fn.Compute(mean, ds.Get(id))
		if d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, nil
}

func closestTo(ds dataset.Source, fn distance.Functor, target []float32, n int) int {
	fn = fn.FixArgument(target)
	best := 0
	bestDist := fn.Compute(target, ds.Get(0))
	for i := 1; i < n; i++ {
		d := fn.Compute(target, ds.Get(i))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
