// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads the two reflectance sensors through a shared
// 8-bit ADC on the I2C bus. Readings are raw counts in [0,255]; higher
// values mean more reflected light (the printed line).
package sensors

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Sensor identifies one of the ADC channels.
type Sensor int

const (
	Left  Sensor = 0
	Right Sensor = 1
)

// String returns the lowercase sensor name used in logs, topics and
// calibration snapshots.
func (s Sensor) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("sensor(%d)", int(s))
}

// ParseSensor maps a sensor name back to its identifier.
func ParseSensor(name string) (Sensor, error) {
	switch name {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown sensor name %q", name)
}

var (
	// ErrBus is returned when a sensor read keeps failing after the
	// internal retries are exhausted.
	ErrBus = errors.New("sensor bus I/O failed")
	// ErrNoHistory is returned by Average before the first successful
	// Read of that sensor.
	ErrNoHistory = errors.New("sensor history empty, call Read first")
)

// readAttempts bounds the transparent retries inside Read. Transient bus
// glitches are retried here; the control loops never retry themselves.
const readAttempts = 5

// Reader is the narrow capability the control layer consumes.
type Reader interface {
	// Read returns the current raw value of a sensor in [0,255].
	Read(Sensor) (int, error)
	// Average returns the mean over the recent read history.
	Average(Sensor) (float64, error)
}

// I2CSensors reads both reflectance sensors through one ADC and keeps a
// bounded history of readings per sensor for Average.
type I2CSensors struct {
	bus     i2c.BusCloser
	dev     i2c.Dev
	history map[Sensor][]int
	maxLen  int
}

// Opts configures the ADC connection.
type Opts struct {
	// Bus is the I2C bus name; empty selects the first available bus.
	Bus string
	// Addr is the ADC address on the bus.
	Addr uint16
	// HistoryLen bounds the per-sensor read history used by Average.
	HistoryLen int
}

// DefaultOpts matches the ADC wiring on the vehicle.
var DefaultOpts = Opts{Addr: 0x48, HistoryLen: 100}

// NewI2C opens the I2C bus and prepares the ADC device handle.
func NewI2C(opts Opts) (*I2CSensors, error) {
	if opts.Addr == 0 {
		opts.Addr = DefaultOpts.Addr
	}
	if opts.HistoryLen <= 0 {
		opts.HistoryLen = DefaultOpts.HistoryLen
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sensors: periph host init: %w", err)
	}

	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return nil, fmt.Errorf("sensors: open I2C bus %q: %w", opts.Bus, err)
	}
	log.Printf("sensors: ADC at 0x%02X on bus %s", opts.Addr, bus)

	return &I2CSensors{
		bus:     bus,
		dev:     i2c.Dev{Bus: bus, Addr: opts.Addr},
		history: make(map[Sensor][]int),
		maxLen:  opts.HistoryLen,
	}, nil
}

// Read returns the current value of a sensor and updates its history.
// Transient bus failures are retried up to readAttempts times before the
// error escalates to the caller.
func (s *I2CSensors) Read(sensor Sensor) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		value, err := s.readChannel(byte(sensor))
		if err == nil {
			s.record(sensor, value)
			return value, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: %s sensor after %d attempts: %v",
		ErrBus, sensor, readAttempts, lastErr)
}

// readChannel performs one ADC conversion: select the channel with the
// control byte, discard the stale conversion, read the fresh one.
func (s *I2CSensors) readChannel(channel byte) (int, error) {
	if err := s.dev.Tx([]byte{0x40 | channel}, nil); err != nil {
		return 0, err
	}
	buf := make([]byte, 1)
	// Dummy read to start the ADC conversion
	if err := s.dev.Tx(nil, buf); err != nil {
		return 0, err
	}
	if err := s.dev.Tx(nil, buf); err != nil {
		return 0, err
	}
	return int(buf[0]), nil
}

func (s *I2CSensors) record(sensor Sensor, value int) {
	h := append(s.history[sensor], value)
	if len(h) > s.maxLen {
		h = h[len(h)-s.maxLen:]
	}
	s.history[sensor] = h
}

// Average returns the mean over the last reads of a sensor. At least one
// successful Read must have happened first.
func (s *I2CSensors) Average(sensor Sensor) (float64, error) {
	h := s.history[sensor]
	if len(h) == 0 {
		return 0, fmt.Errorf("%w: %s sensor", ErrNoHistory, sensor)
	}
	sum := 0
	for _, v := range h {
		sum += v
	}
	return float64(sum) / float64(len(h)), nil
}

// Close releases the I2C bus.
func (s *I2CSensors) Close() error {
	return s.bus.Close()
}
