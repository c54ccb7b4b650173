// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// DefaultGap is the minimum distance between sensor values that counts
// as the gap between the floor peak and the line peak.
const DefaultGap = 10.0

// Histogram finds the floor and line values of a sample stream by
// locating a gap in its value histogram. The most common value anchors
// one peak; the first value (in descending frequency order) further
// than gap away from it marks the split. Samples below the split
// threshold form the floor group, the rest the line group.
//
// Returns ErrNoLine when one of the groups ends up empty, which means
// the sweep never saw both surfaces.
func Histogram(data []int, gap float64) (CalibratedSensor, error) {
	if err := validateSamples(data); err != nil {
		return CalibratedSensor{}, err
	}
	if gap <= 0 {
		return CalibratedSensor{}, fmt.Errorf("gap must be larger than 0, got %g", gap)
	}

	counts := make(map[int]int)
	for _, v := range data {
		counts[v]++
	}

	// Distinct values by descending frequency, ties broken by smaller
	// value so the ordering is deterministic.
	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})

	log.Printf("calibration: found %d unique values in sensor data", len(values))

	// The most common value is always either the floor or the line.
	mostCommon := values[0]

	var threshold float64
	found := false
	for i := 1; i < len(values); i++ {
		if math.Abs(float64(values[i]-mostCommon)) > gap {
			threshold = (float64(values[i]) + float64(mostCommon)) / 2
			log.Printf("calibration: gap found at index %d", i-1)
			log.Printf("calibration: threshold set at %g", threshold)
			found = true
			break
		}
	}
	if !found {
		// No gap in the data. Fall back to the midpoint of the full
		// value range.
		minV, maxV := data[0], data[0]
		for _, v := range data {
			minV = min(minV, v)
			maxV = max(maxV, v)
		}
		threshold = (float64(maxV) + float64(minV)) / 2
		log.Printf("calibration: no gap found in data, using fallback threshold %g", threshold)
	}

	var floorSum, lineSum float64
	var floorCount, lineCount int
	for _, v := range data {
		if float64(v) < threshold {
			floorSum += float64(v)
			floorCount++
		} else {
			lineSum += float64(v)
			lineCount++
		}
	}
	log.Printf("calibration: found %d floor values", floorCount)
	log.Printf("calibration: found %d line values", lineCount)

	if floorCount == 0 || lineCount == 0 {
		return CalibratedSensor{}, ErrNoLine
	}

	return CalibratedSensor{
		Line:  lineSum / float64(lineCount),
		Floor: floorSum / float64(floorCount),
	}, nil
}
