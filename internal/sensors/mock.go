// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// MockSensors is a scripted Reader for tests and bench runs without
// hardware. Each sensor plays back its sequence one value per Read and
// then keeps returning the final value.
type MockSensors struct {
	Sequences map[Sensor][]int
	// Err, when set, is returned by every Read.
	Err error

	pos     map[Sensor]int
	history map[Sensor][]int
}

// NewMock creates a MockSensors playing back the given sequences.
func NewMock(sequences map[Sensor][]int) *MockSensors {
	return &MockSensors{
		Sequences: sequences,
		pos:       make(map[Sensor]int),
		history:   make(map[Sensor][]int),
	}
}

// Read returns the next scripted value for the sensor.
func (m *MockSensors) Read(sensor Sensor) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	seq := m.Sequences[sensor]
	if len(seq) == 0 {
		return 0, fmt.Errorf("mock: no sequence for %s sensor", sensor)
	}
	i := m.pos[sensor]
	if i >= len(seq) {
		i = len(seq) - 1
	} else {
		m.pos[sensor]++
	}
	value := seq[i]
	m.history[sensor] = append(m.history[sensor], value)
	return value, nil
}

// Average returns the mean of the values played back so far.
func (m *MockSensors) Average(sensor Sensor) (float64, error) {
	h := m.history[sensor]
	if len(h) == 0 {
		return 0, fmt.Errorf("%w: %s sensor", ErrNoHistory, sensor)
	}
	sum := 0
	for _, v := range h {
		sum += v
	}
	return float64(sum) / float64(len(h)), nil
}

// Reads returns how many values a sensor has played back.
func (m *MockSensors) Reads(sensor Sensor) int {
	return len(m.history[sensor])
}
