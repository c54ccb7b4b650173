// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

// DefaultInitialSpin is how long TurnUntilLine spins blind before it
// starts watching the sensor. The maneuver assumes the vehicle starts
// before the line, so this carries it off its current line first.
const DefaultInitialSpin = 1250 * time.Millisecond

// linePollTick paces the wait for the line to pass under the sensor.
const linePollTick = 10 * time.Millisecond

// TurnUntilLine spins the vehicle in a direction until the sensor on
// that side has crossed a perpendicular line: first an unconditional
// initial spin, then a wait for the reading to rise above the
// calibration midpoint, then a wait for it to drop back below. The
// vehicle ends up squared against the line.
//
// The wait has no timeout of its own; cancel the context to bound it.
func (c *Controller) TurnUntilLine(ctx context.Context, direction vehicle.SpinDirection, speed float64, initialSpin time.Duration, override *calibration.CalibratedSensor) (err error) {
	if speed < 0 {
		return fmt.Errorf("%w: speed should not be negative", ErrInvalidArgument)
	}
	if initialSpin < 0 {
		return fmt.Errorf("%w: initial spin should not be negative", ErrInvalidArgument)
	}

	// The sensor on the inside of the turn crosses the line first.
	var sensor sensors.Sensor
	switch direction {
	case vehicle.SpinLeft:
		sensor = sensors.Left
	case vehicle.SpinRight:
		sensor = sensors.Right
	default:
		return fmt.Errorf("%w: spin direction not covered: %s", ErrInvalidArgument, direction)
	}

	cal, err := c.resolveCalibration(sensor, override)
	if err != nil {
		return err
	}
	if cal.Line <= cal.Floor {
		return fmt.Errorf("%w: %s sensor has line=%g floor=%g",
			ErrInvertedCalibration, sensor, cal.Line, cal.Floor)
	}
	threshold := cal.Average()

	defer c.stopOnExit(&err)

	// Phase 1: spin blind past the current line
	if _, err := c.vehicle.Spin(direction, speed); err != nil {
		return err
	}
	c.sleep(initialSpin)

	// Phase 2: wait for the line to appear, then for it to pass
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := c.sensors.Read(sensor)
		if err != nil {
			return err
		}
		if float64(value) > threshold {
			for float64(value) > threshold {
				c.sleep(linePollTick)
				if err := ctx.Err(); err != nil {
					return err
				}
				value, err = c.sensors.Read(sensor)
				if err != nil {
					return err
				}
			}
			return nil
		}
		c.sleep(linePollTick)
	}
}
