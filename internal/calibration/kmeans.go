// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	// DefaultMaxIterations bounds the k-means refinement loop.
	DefaultMaxIterations = 100
	// DefaultTolerance is the per-center shift below which the
	// clustering is considered converged.
	DefaultTolerance = 1e-4
)

// Cluster finds the floor and line values of a sample stream using
// k-means clustering with k=2. The larger center becomes the line, the
// smaller the floor.
//
// rng seeds the initial cluster centers; pass a seeded source for
// reproducible results, or nil to seed from the clock.
func Cluster(data []int, rng *rand.Rand) (CalibratedSensor, error) {
	return cluster(data, DefaultMaxIterations, DefaultTolerance, rng)
}

func cluster(data []int, maxIterations int, tolerance float64, rng *rand.Rand) (CalibratedSensor, error) {
	if err := validateSamples(data); err != nil {
		return CalibratedSensor{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// Initialize the two centers from two distinct sample values so
	// they cannot start on top of each other.
	distinct := distinctValues(data)
	if len(distinct) < 2 {
		return CalibratedSensor{}, fmt.Errorf("%w: need 2 distinct values, got %d",
			ErrNotEnoughSamples, len(distinct))
	}
	i := rng.Intn(len(distinct))
	j := rng.Intn(len(distinct) - 1)
	if j >= i {
		j++
	}
	centers := [2]float64{float64(distinct[i]), float64(distinct[j])}

	for iter := 0; iter < maxIterations; iter++ {
		// Assign each sample to its nearest center; ties go to the
		// first center.
		var sums [2]float64
		var counts [2]int
		for _, v := range data {
			idx := 0
			if math.Abs(float64(v)-centers[1]) < math.Abs(float64(v)-centers[0]) {
				idx = 1
			}
			sums[idx] += float64(v)
			counts[idx]++
		}

		previous := centers
		for k := 0; k < 2; k++ {
			if counts[k] > 0 {
				centers[k] = sums[k] / float64(counts[k])
			} else {
				// Reinitialize an empty cluster from a random sample
				centers[k] = float64(data[rng.Intn(len(data))])
			}
		}

		shift := math.Max(
			math.Abs(previous[0]-centers[0]),
			math.Abs(previous[1]-centers[1]),
		)
		if shift < tolerance {
			break
		}
	}

	return CalibratedSensor{
		Line:  math.Max(centers[0], centers[1]),
		Floor: math.Min(centers[0], centers[1]),
	}, nil
}

func distinctValues(data []int) []int {
	seen := make(map[int]struct{}, len(data))
	out := make([]int, 0, len(data))
	for _, v := range data {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
