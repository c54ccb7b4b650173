// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration turns raw sensor sample streams into per-sensor
// line/floor values the steering controllers steer against.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relabs-tech/logbot/internal/sensors"
)

var (
	// ErrNoLine means the calibration sweep never saw both line and
	// floor, so the samples cannot be split into two groups.
	ErrNoLine = errors.New("no line detected during calibration")
	// ErrNotEnoughSamples is returned for sample streams that cannot
	// be calibrated at all.
	ErrNotEnoughSamples = errors.New("need at least 2 sensor readings")
	// ErrSampleRange is returned when a sample falls outside the 8-bit
	// ADC range.
	ErrSampleRange = errors.New("sensor data should be between 0-255")
)

// CalibratedSensor is the result of calibrating one sensor. Line is the
// expected reading over the printed line, Floor over the background.
// The steering controllers require Line > Floor.
type CalibratedSensor struct {
	Line  float64 `json:"line"`
	Floor float64 `json:"floor"`
}

// Average returns the midpoint between line and floor. This is the
// steering setpoint and the edge threshold, so it gets its own method.
func (c CalibratedSensor) Average() float64 {
	return (c.Line + c.Floor) / 2
}

// Map holds the calibration for each sensor. It is produced once per
// run (or loaded from a snapshot) and only read afterwards.
type Map map[sensors.Sensor]CalibratedSensor

// validateSamples checks the shared preconditions of both algorithms.
func validateSamples(data []int) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: got %d", ErrNotEnoughSamples, len(data))
	}
	for _, v := range data {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: got %d", ErrSampleRange, v)
		}
	}
	return nil
}

// Save writes the calibration map as a JSON snapshot, keyed by sensor
// name, so a known track can skip the sweep next run.
func (m Map) Save(path string) error {
	byName := make(map[string]CalibratedSensor, len(m))
	for sensor, cal := range m {
		byName[sensor.String()] = cal
	}
	data, err := json.MarshalIndent(byName, "", "  ")
	if err != nil {
		return fmt.Errorf("calibration: marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("calibration: create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("calibration: write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a calibration map written by Save.
func LoadSnapshot(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibration: read snapshot: %w", err)
	}
	var byName map[string]CalibratedSensor
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("calibration: parse snapshot: %w", err)
	}
	m := make(Map, len(byName))
	for name, cal := range byName {
		sensor, err := sensors.ParseSensor(name)
		if err != nil {
			return nil, fmt.Errorf("calibration: snapshot: %w", err)
		}
		m[sensor] = cal
	}
	return m, nil
}
