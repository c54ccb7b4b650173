// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

// FollowLineUntil follows the line with the discrete three-state
// strategy: veer left while the right sensor sees the line, veer right
// while the left sensor sees it, drive straight otherwise. No state is
// carried between ticks.
//
// The loop runs until the predicate reports done, the timeout elapses,
// or the context is cancelled. A timeout of 0 disables the timeout.
func (c *Controller) FollowLineUntil(ctx context.Context, until UntilFunc, timeout time.Duration) (err error) {
	if timeout < 0 {
		return fmt.Errorf("%w: timeout can't be negative", ErrInvalidArgument)
	}
	defer c.stopOnExit(&err)

	var deadline time.Time
	if timeout > 0 {
		deadline = c.now().Add(timeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := until()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		right, err := c.sensors.Read(sensors.Right)
		if err != nil {
			return err
		}
		switch {
		case float64(right) > c.cfg.ThresholdRight:
			_, err = c.vehicle.Move(vehicle.Left, vehicle.DefaultSpeed)
		default:
			var left int
			left, err = c.sensors.Read(sensors.Left)
			if err != nil {
				return err
			}
			if float64(left) > c.cfg.ThresholdLeft {
				_, err = c.vehicle.Move(vehicle.Right, vehicle.DefaultSpeed)
			} else {
				_, err = c.vehicle.Move(vehicle.Forward, vehicle.DefaultSpeed)
			}
		}
		if err != nil {
			return err
		}

		if timeout > 0 && c.now().After(deadline) {
			return nil
		}
		c.sleep(c.cfg.Tick)
	}
}

// FollowPDUntil follows the line with both sensors using PD control:
// the error is the difference between the left and right readings, and
// the correction shifts speed between the wheels.
func (c *Controller) FollowPDUntil(ctx context.Context, until UntilFunc) (err error) {
	defer c.stopOnExit(&err)

	lastError := 0.0
	baseSpeed := c.vehicle.DefaultSpeed()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := until()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		left, err := c.sensors.Read(sensors.Left)
		if err != nil {
			return err
		}
		right, err := c.sensors.Read(sensors.Right)
		if err != nil {
			return err
		}

		controlErr := float64(left) - float64(right)
		derivative := controlErr - lastError
		lastError = controlErr

		correction := c.cfg.Gains.Kp*controlErr + c.cfg.Gains.Kd*derivative

		leftSpeed := clamp(baseSpeed-correction, 0, 100)
		rightSpeed := clamp(baseSpeed+correction, 0, 100)

		if err := c.vehicle.MoveWheels(leftSpeed, rightSpeed); err != nil {
			return err
		}
		c.sleep(c.cfg.Tick)
	}
}

// FollowOptions shapes the single-sensor strategy.
type FollowOptions struct {
	// AccelerationTime ramps speed linearly from zero over this
	// duration at loop start. Zero disables the ramp.
	AccelerationTime time.Duration
	// Integral enables the integral term (PID instead of PD). The
	// gain stays at the configured Ki, 0.0 by default.
	Integral bool
	// ResetIntegralOnTarget zeroes the accumulated integral whenever
	// the error drops below one count, so a long straight cannot let
	// it creep up until it overpowers the steering.
	ResetIntegralOnTarget bool
	// DynamicSpeed slows the vehicle down on large errors.
	DynamicSpeed bool
	// Calibration overrides the installed calibration for this call.
	Calibration *calibration.CalibratedSensor
}

// FollowEdgeUntil follows the edge of the line using a single sensor
// and PID steering against the calibration midpoint. Requires the
// sensor's calibration with line > floor.
func (c *Controller) FollowEdgeUntil(ctx context.Context, sensor sensors.Sensor, until UntilFunc, opts FollowOptions) (err error) {
	if opts.AccelerationTime < 0 {
		return fmt.Errorf("%w: acceleration time can't be negative", ErrInvalidArgument)
	}
	cal, err := c.resolveCalibration(sensor, opts.Calibration)
	if err != nil {
		return err
	}
	if cal.Line <= cal.Floor {
		return fmt.Errorf("%w: %s sensor has line=%g floor=%g",
			ErrInvertedCalibration, sensor, cal.Line, cal.Floor)
	}
	defer c.stopOnExit(&err)

	lastError := 0.0
	integral := 0.0
	setpoint := cal.Average()

	// Largest error the calibration can explain, used to scale the
	// dynamic speed reduction.
	maxError := setpoint - math.Min(cal.Line, cal.Floor)

	start := c.now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := until()
		if err != nil {
			return err
		}
		if done {
			break
		}

		reading, err := c.sensors.Read(sensor)
		if err != nil {
			return err
		}

		controlErr := float64(reading) - setpoint
		derivative := controlErr - lastError
		lastError = controlErr

		correction := c.cfg.Gains.Kp*controlErr + c.cfg.Gains.Kd*derivative

		if opts.Integral {
			if opts.ResetIntegralOnTarget && math.Abs(controlErr) < 1 {
				integral = 0
			} else {
				integral += controlErr
			}
			correction += c.cfg.Gains.Ki * integral
		}

		// Re-read the default speed every tick so speed changes from
		// outside the loop take effect immediately.
		baseSpeed := c.vehicle.DefaultSpeed()

		if opts.DynamicSpeed {
			errorRatio := math.Abs(controlErr) / maxError
			baseSpeed *= 1 - clamp(errorRatio, 0.5, 1)
		}

		leftSpeed := baseSpeed - correction
		rightSpeed := baseSpeed + correction

		if opts.AccelerationTime > 0 {
			ramp := math.Min(1, float64(c.now().Sub(start))/float64(opts.AccelerationTime))
			leftSpeed *= ramp
			rightSpeed *= ramp
		}

		leftSpeed = clamp(leftSpeed, 0, 100)
		rightSpeed = clamp(rightSpeed, 0, 100)

		if err := c.vehicle.MoveWheels(leftSpeed, rightSpeed); err != nil {
			return err
		}
		c.sleep(c.cfg.Tick)
	}

	log.Printf("control: followed edge for %.2f seconds", c.now().Sub(start).Seconds())
	return nil
}
