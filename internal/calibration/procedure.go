// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

// Driver is the slice of the vehicle the sweep needs.
type Driver interface {
	Spin(vehicle.SpinDirection, float64) (float64, error)
	Stop() (float64, error)
}

// sampleTick paces the sampling loop so one spin window yields a few
// hundred samples per sensor instead of a busy-loop flood.
const sampleTick = 2 * time.Millisecond

// Calibrator runs the calibration sweep: spin left for half the window
// to aim past the line, sweep right across the full window while
// sampling, then spin back. The collected samples are clustered into
// line and floor values per sensor.
type Calibrator struct {
	Vehicle Driver
	Sensors sensors.Reader
	// Window is the duration of the full sweep.
	Window time.Duration
	// Speed is the spin speed during the sweep.
	Speed float64
	// Rand seeds the clustering; nil seeds from the clock.
	Rand *rand.Rand

	now   func() time.Time
	sleep func(time.Duration)
}

// NewCalibrator creates a Calibrator with the given sweep window and
// spin speed.
func NewCalibrator(v Driver, r sensors.Reader, window time.Duration, speed float64) *Calibrator {
	return &Calibrator{
		Vehicle: v,
		Sensors: r,
		Window:  window,
		Speed:   speed,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Run performs the sweep and returns the calibration for each requested
// sensor. The vehicle is stopped on every exit path.
func (c *Calibrator) Run(ctx context.Context, sensorList ...sensors.Sensor) (m Map, err error) {
	if c.Window <= 0 {
		return nil, fmt.Errorf("calibration: sweep window must be positive, got %s", c.Window)
	}
	if len(sensorList) == 0 {
		sensorList = []sensors.Sensor{sensors.Left, sensors.Right}
	}
	log.Printf("calibration: setting spin range to %s", c.Window)

	defer func() {
		if _, serr := c.Vehicle.Stop(); serr != nil && err == nil {
			err = serr
		}
	}()

	// Turn to start reading from the left side
	if _, err := c.Vehicle.Spin(vehicle.SpinLeft, c.Speed); err != nil {
		return nil, err
	}
	c.sleep(c.Window / 2)
	if _, err := c.Vehicle.Stop(); err != nil {
		return nil, err
	}

	// Record sensor values while sweeping from left to right
	samples := make(map[sensors.Sensor][]int, len(sensorList))
	start := c.now()
	if _, err := c.Vehicle.Spin(vehicle.SpinRight, c.Speed); err != nil {
		return nil, err
	}
	for c.now().Sub(start) < c.Window {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sensor := range sensorList {
			value, err := c.Sensors.Read(sensor)
			if err != nil {
				return nil, err
			}
			samples[sensor] = append(samples[sensor], value)
		}
		c.sleep(sampleTick)
	}
	if _, err := c.Vehicle.Stop(); err != nil {
		return nil, err
	}

	// Turn back to the initial orientation
	if _, err := c.Vehicle.Spin(vehicle.SpinLeft, c.Speed); err != nil {
		return nil, err
	}
	c.sleep(c.Window / 2)
	if _, err := c.Vehicle.Stop(); err != nil {
		return nil, err
	}

	m = make(Map, len(sensorList))
	for _, sensor := range sensorList {
		log.Printf("calibration: recorded %d values from %s sensor",
			len(samples[sensor]), sensor)
		cal, err := Cluster(samples[sensor], c.Rand)
		if err != nil {
			return nil, fmt.Errorf("calibration: %s sensor: %w", sensor, err)
		}
		log.Printf("calibration: %s sensor line=%.2f floor=%.2f", sensor, cal.Line, cal.Floor)
		m[sensor] = cal
	}
	return m, nil
}
