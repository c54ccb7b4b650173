// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vehicle is the two-wheeled vehicle abstraction on top of the
// drive motors. All speeds are percent [0,100]; every command returns
// the speed the vehicle had before the call.
package vehicle

import (
	"fmt"

	"github.com/relabs-tech/logbot/internal/motors"
)

// Direction is a whole-vehicle travel direction. Left and Right are
// turns, not pivots: the inner wheel runs at one third of the requested
// speed.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// SpinDirection is an in-place pivot: the wheels run in opposite
// rotation senses at equal speed.
type SpinDirection int

const (
	SpinLeft SpinDirection = iota
	SpinRight
)

func (d SpinDirection) String() string {
	if d == SpinRight {
		return "right"
	}
	return "left"
}

// DefaultSpeed passed as the speed argument selects the vehicle's
// configured default speed.
const DefaultSpeed float64 = -1

// Wheel is the single-motor capability the vehicle drives through.
type Wheel interface {
	Move(motors.Direction, float64) error
	Stop() (float64, error)
}

// Vehicle is a dual-motor vehicle. It owns the current commanded speed;
// only Move, Spin and Stop mutate it.
type Vehicle struct {
	left         Wheel
	right        Wheel
	speed        float64
	defaultSpeed float64
}

// New creates a Vehicle over the left and right wheels.
func New(left, right Wheel, defaultSpeed float64) *Vehicle {
	return &Vehicle{left: left, right: right, defaultSpeed: defaultSpeed}
}

// DefaultSpeed returns the configured default speed.
func (v *Vehicle) DefaultSpeed() float64 {
	return v.defaultSpeed
}

// Speed returns the currently commanded speed.
func (v *Vehicle) Speed() float64 {
	return v.speed
}

func (v *Vehicle) resolveSpeed(speed float64) (float64, error) {
	if speed == DefaultSpeed {
		return v.defaultSpeed, nil
	}
	if speed < 0 || speed > 100 {
		return 0, fmt.Errorf("%w: got %g", motors.ErrSpeedRange, speed)
	}
	return speed, nil
}

// Move drives the vehicle in a direction. Speed is validated before any
// motor is commanded; pass DefaultSpeed to use the configured default.
// Returns the speed before this call.
func (v *Vehicle) Move(direction Direction, speed float64) (float64, error) {
	speed, err := v.resolveSpeed(speed)
	if err != nil {
		return 0, err
	}
	previous := v.speed
	v.speed = speed

	switch direction {
	case Forward:
		err = v.wheels(motors.Forward, speed, motors.Forward, speed)
	case Backward:
		err = v.wheels(motors.Backward, speed, motors.Backward, speed)
	case Left:
		err = v.wheels(motors.Forward, speed/3, motors.Forward, speed)
	case Right:
		err = v.wheels(motors.Forward, speed, motors.Forward, speed/3)
	default:
		return previous, fmt.Errorf("vehicle: direction not covered: %s", direction)
	}
	return previous, err
}

// Spin pivots the vehicle in place. Returns the speed before this call.
func (v *Vehicle) Spin(direction SpinDirection, speed float64) (float64, error) {
	speed, err := v.resolveSpeed(speed)
	if err != nil {
		return 0, err
	}
	previous := v.speed
	v.speed = speed

	switch direction {
	case SpinLeft:
		err = v.wheels(motors.Backward, speed, motors.Forward, speed)
	case SpinRight:
		err = v.wheels(motors.Forward, speed, motors.Backward, speed)
	default:
		return previous, fmt.Errorf("vehicle: spin direction not covered: %s", direction)
	}
	return previous, err
}

// MoveWheels drives both wheels forward at individual speeds. The
// steering controllers use this to apply their per-wheel corrections.
// Both speeds are validated before either motor is commanded.
func (v *Vehicle) MoveWheels(leftSpeed, rightSpeed float64) error {
	if leftSpeed < 0 || leftSpeed > 100 {
		return fmt.Errorf("%w: left got %g", motors.ErrSpeedRange, leftSpeed)
	}
	if rightSpeed < 0 || rightSpeed > 100 {
		return fmt.Errorf("%w: right got %g", motors.ErrSpeedRange, rightSpeed)
	}
	return v.wheels(motors.Forward, leftSpeed, motors.Forward, rightSpeed)
}

// Stop halts both wheels and returns the speed before the stop.
func (v *Vehicle) Stop() (float64, error) {
	previous := v.speed
	v.speed = 0
	if _, err := v.left.Stop(); err != nil {
		return previous, err
	}
	if _, err := v.right.Stop(); err != nil {
		return previous, err
	}
	return previous, nil
}

func (v *Vehicle) wheels(ld motors.Direction, ls float64, rd motors.Direction, rs float64) error {
	if err := v.left.Move(ld, ls); err != nil {
		return err
	}
	return v.right.Move(rd, rs)
}
