// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package control closes the steering loop: it polls the reflectance
// sensors, computes a correction and commands the wheels, one tick at a
// time. Exactly one routine may drive the vehicle at a time; the caller
// is responsible for that exclusion. Every routine guarantees the
// vehicle receives a stop command on every exit path, including errors
// and context cancellation.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

var (
	// ErrInvalidArgument is returned for out-of-range parameters.
	// Raised before any actuator command is issued.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoCalibration is returned when a routine needs calibration
	// data for a sensor and none is available.
	ErrNoCalibration = errors.New("no calibration data provided")
	// ErrInvertedCalibration is returned when a routine requires
	// line > floor and the calibration violates that.
	ErrInvertedCalibration = errors.New("calibration requires line > floor")
)

// Reference tuning for the PD/PID strategies.
const (
	DefaultKp = 1.2
	DefaultKi = 0.0
	DefaultKd = 0.6
)

// DefaultThreshold is the fallback line threshold for sensors without
// calibration data.
const DefaultThreshold = 200.0

// DefaultSearchSpeed is the spin speed used by the edge search.
const DefaultSearchSpeed = 20.0

// Gains are the PID gains shared by the steering strategies.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// Driver is the actuator capability the controller consumes. Vehicle
// satisfies it.
type Driver interface {
	Move(vehicle.Direction, float64) (float64, error)
	Spin(vehicle.SpinDirection, float64) (float64, error)
	MoveWheels(leftSpeed, rightSpeed float64) error
	Stop() (float64, error)
	DefaultSpeed() float64
}

// UntilFunc is the caller-supplied stop predicate polled once per tick.
// Returning an error aborts the loop; the vehicle is stopped first.
type UntilFunc func() (bool, error)

// Config tunes a Controller. Zero values select the reference defaults.
type Config struct {
	Gains Gains
	// ThresholdLeft/Right are the discrete-mode and stop-line
	// fallback thresholds for uncalibrated sensors.
	ThresholdLeft  float64
	ThresholdRight float64
	// Tick is the pause between loop iterations.
	Tick time.Duration
}

// Controller drives the vehicle along the line. It holds only static
// configuration plus the calibration map; all loop state is local to
// each routine invocation.
type Controller struct {
	vehicle     Driver
	sensors     sensors.Reader
	calibration calibration.Map
	cfg         Config

	// Injected clock, swapped out in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Controller over the given actuator and sensors.
func New(v Driver, s sensors.Reader, cfg Config) *Controller {
	if cfg.Gains == (Gains{}) {
		cfg.Gains = Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd}
	}
	if cfg.ThresholdLeft == 0 {
		cfg.ThresholdLeft = DefaultThreshold
	}
	if cfg.ThresholdRight == 0 {
		cfg.ThresholdRight = DefaultThreshold
	}
	if cfg.Tick == 0 {
		cfg.Tick = 10 * time.Millisecond
	}
	return &Controller{
		vehicle: v,
		sensors: s,
		cfg:     cfg,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// SetCalibration installs the calibration map used by the single-sensor
// strategies, the edge search and the stop-line detector.
func (c *Controller) SetCalibration(m calibration.Map) {
	c.calibration = m
}

// Calibration returns the installed calibration map.
func (c *Controller) Calibration() calibration.Map {
	return c.calibration
}

// resolveCalibration picks the override if given, otherwise the
// installed entry for the sensor.
func (c *Controller) resolveCalibration(sensor sensors.Sensor, override *calibration.CalibratedSensor) (calibration.CalibratedSensor, error) {
	if override != nil {
		return *override, nil
	}
	cal, ok := c.calibration[sensor]
	if !ok {
		return calibration.CalibratedSensor{}, fmt.Errorf("%w: %s sensor", ErrNoCalibration, sensor)
	}
	return cal, nil
}

// stopOnExit wires the guaranteed stop command into a routine's exit
// path. Call it only after all preconditions have passed, so rejected
// calls never touch the actuator.
func (c *Controller) stopOnExit(err *error) {
	if _, serr := c.vehicle.Stop(); serr != nil && *err == nil {
		*err = serr
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
