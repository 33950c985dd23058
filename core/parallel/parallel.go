// Package parallel provides chunked reductions over index ranges.
//
// Partial results are stored per chunk and combined in chunk order, so the
// result of a floating point sum depends only on the input and the chunk
// size, never on goroutine scheduling or the number of CPUs.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ChunkSize is the number of items each worker sums before its partial
// result is combined.
const ChunkSize = 4096

// Sum returns fn(0, items) when items fits in a single chunk, and otherwise
// splits [0, items) into ChunkSize ranges, evaluates them concurrently with at
// most runtime.NumCPU() workers, and adds the partial sums in range order.
func Sum(items int, fn func(start, end int) float64) float64 {
	if items <= 0 {
		return 0
	}
	if items <= ChunkSize {
		return fn(0, items)
	}

	numChunks := (items + ChunkSize - 1) / ChunkSize
	partials := make([]float64, numChunks)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for c := 0; c < numChunks; c++ {
		start := c * ChunkSize
		end := start + ChunkSize
		if end > items {
			end = items
		}
		g.Go(func() error {
			partials[c] = fn(start, end)
			return nil
		})
	}
	_ = g.Wait()

	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}

// SumWithThreshold runs fn sequentially over [0, items) when items is at or
// below threshold, and falls back to Sum otherwise. A threshold <= 0 always
// parallelizes.
func SumWithThreshold(items, threshold int, fn func(start, end int) float64) float64 {
	if threshold > 0 && items <= threshold {
		return fn(0, items)
	}
	return Sum(items, fn)
}

// Sum2 is Sum for two accumulators computed in the same pass, as needed for
// the pair of gradients.
func Sum2(items, threshold int, fn func(start, end int) (float64, float64)) (float64, float64) {
	if items <= 0 {
		return 0, 0
	}
	if (threshold > 0 && items <= threshold) || items <= ChunkSize {
		return fn(0, items)
	}

	numChunks := (items + ChunkSize - 1) / ChunkSize
	partials := make([][2]float64, numChunks)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for c := 0; c < numChunks; c++ {
		start := c * ChunkSize
		end := start + ChunkSize
		if end > items {
			end = items
		}
		g.Go(func() error {
			a, b := fn(start, end)
			partials[c] = [2]float64{a, b}
			return nil
		})
	}
	_ = g.Wait()

	var a, b float64
	for _, p := range partials {
		a += p[0]
		b += p[1]
	}
	return a, b
}
