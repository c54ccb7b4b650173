// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

// baseSweep is the duration of the first oscillation sweep. Every swap
// doubles it, so the scan covers an exponentially growing arc.
const baseSweep = time.Second

// OscillateUntil spins the vehicle back and forth, starting left, until
// the predicate reports done or the timeout elapses. Each direction
// swap doubles the sweep duration.
//
// Returns whether the predicate was met before the timeout.
func (c *Controller) OscillateUntil(ctx context.Context, until UntilFunc, timeout time.Duration, speed float64) (found bool, err error) {
	if timeout < 0 {
		return false, fmt.Errorf("%w: timeout should not be negative", ErrInvalidArgument)
	}
	if speed < 0 || speed > 100 {
		return false, fmt.Errorf("%w: speed should be between 0-100 (inclusive), got %g",
			ErrInvalidArgument, speed)
	}
	defer c.stopOnExit(&err)

	start := c.now()

	direction := vehicle.SpinLeft
	sweep := baseSweep
	sweepStart := start

	if _, err := c.vehicle.Spin(direction, speed); err != nil {
		return false, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		done, err := until()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}

		timestamp := c.now()
		if timestamp.Sub(start) > timeout {
			return false, nil
		}

		// Swap spin direction once the current sweep is exhausted
		if timestamp.Sub(sweepStart) > sweep {
			sweep *= 2
			sweepStart = timestamp
			if direction == vehicle.SpinLeft {
				direction = vehicle.SpinRight
			} else {
				direction = vehicle.SpinLeft
			}
			if _, err := c.vehicle.Spin(direction, speed); err != nil {
				return false, err
			}
		}
		c.sleep(c.cfg.Tick)
	}
}

// FindEdge oscillates until the given sensor reads within threshold of
// its calibrated line value, i.e. the sensor sits on the edge of the
// line. Returns whether the edge was found before the timeout.
func (c *Controller) FindEdge(ctx context.Context, sensor sensors.Sensor, timeout time.Duration, threshold float64, override *calibration.CalibratedSensor) (bool, error) {
	if timeout < 0 {
		return false, fmt.Errorf("%w: timeout should not be negative", ErrInvalidArgument)
	}
	cal, err := c.resolveCalibration(sensor, override)
	if err != nil {
		return false, err
	}

	until := func() (bool, error) {
		value, err := c.sensors.Read(sensor)
		if err != nil {
			return false, err
		}
		return math.Abs(float64(value)-cal.Line) < threshold, nil
	}
	return c.OscillateUntil(ctx, until, timeout, DefaultSearchSpeed)
}
