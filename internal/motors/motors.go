// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motors drives the DC motors: a power pin modulated with
// software PWM and a direction pin selecting the rotation sense.
package motors

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Direction is the rotation sense of a single wheel.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ErrSpeedRange is returned when a speed outside [0,100] is requested.
// The check happens before any pin is touched.
var ErrSpeedRange = errors.New("speed should be between 0.0 and 100.0 (inclusive)")

// Motor is one drive motor. The direction pin polarity differs between
// the left and right motor because they are mounted mirrored.
type Motor struct {
	power     *softPWM
	direction gpio.PinIO
	forward   gpio.Level
	backward  gpio.Level
	speed     float64
}

// New wires a Motor from explicit pins. forward is the direction pin
// level that makes this wheel push the vehicle forward.
func New(power, direction gpio.PinIO, forward gpio.Level, pwmHz int) (*Motor, error) {
	if pwmHz <= 0 {
		return nil, fmt.Errorf("motors: pwm frequency must be positive, got %d", pwmHz)
	}
	if err := direction.Out(forward); err != nil {
		return nil, fmt.Errorf("motors: direction pin %s: %w", direction, err)
	}
	pwm, err := newSoftPWM(power, pwmHz)
	if err != nil {
		return nil, fmt.Errorf("motors: power pin %s: %w", power, err)
	}
	return &Motor{
		power:     pwm,
		direction: direction,
		forward:   forward,
		backward:  !forward,
	}, nil
}

// NewLeft creates the left wheel motor from BCM pin names.
func NewLeft(powerPin, directionPin string, pwmHz int) (*Motor, error) {
	power, direction, err := pinsByName(powerPin, directionPin)
	if err != nil {
		return nil, err
	}
	return New(power, direction, gpio.Low, pwmHz)
}

// NewRight creates the right wheel motor from BCM pin names.
func NewRight(powerPin, directionPin string, pwmHz int) (*Motor, error) {
	power, direction, err := pinsByName(powerPin, directionPin)
	if err != nil {
		return nil, err
	}
	return New(power, direction, gpio.High, pwmHz)
}

func pinsByName(powerPin, directionPin string) (gpio.PinIO, gpio.PinIO, error) {
	power := gpioreg.ByName(powerPin)
	if power == nil {
		return nil, nil, fmt.Errorf("motors: power pin %q not found", powerPin)
	}
	direction := gpioreg.ByName(directionPin)
	if direction == nil {
		return nil, nil, fmt.Errorf("motors: direction pin %q not found", directionPin)
	}
	return power, direction, nil
}

// SetSpeed sets the PWM duty cycle and returns the previous speed.
func (m *Motor) SetSpeed(speed float64) (float64, error) {
	if speed < 0 || speed > 100 {
		return 0, fmt.Errorf("%w: got %g", ErrSpeedRange, speed)
	}
	previous := m.speed
	m.speed = speed
	m.power.setDuty(speed)
	return previous, nil
}

// Move starts the motor in a direction at the given speed.
func (m *Motor) Move(direction Direction, speed float64) error {
	if _, err := m.SetSpeed(speed); err != nil {
		return err
	}
	level := m.forward
	if direction == Backward {
		level = m.backward
	}
	if err := m.direction.Out(level); err != nil {
		return fmt.Errorf("motors: direction pin %s: %w", m.direction, err)
	}
	return nil
}

// Stop halts the motor and returns the speed before the stop.
func (m *Motor) Stop() (float64, error) {
	return m.SetSpeed(0)
}

// Close stops the PWM worker and pulls both pins low.
func (m *Motor) Close() error {
	log.Printf("motors: cleaning up motor, power %s, direction %s", m.power.pin, m.direction)
	m.power.close()
	return m.direction.Out(gpio.Low)
}
