// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// liftResetTolerance is the acceptable residual offset, in seconds of
// motor travel, after the lift has been reset on Close.
const liftResetTolerance = 100 * time.Millisecond

// LiftMotor raises and lowers the package platform. It tracks cumulative
// travel time so Close can return the lift to its initial position.
type LiftMotor struct {
	power     *softPWM
	direction gpio.PinIO

	// movement is the cumulative upwards travel. Negative means the
	// lift sits below its initial position.
	movement time.Duration

	// ResetOnClose returns the lift to the initial position on Close.
	ResetOnClose bool
}

// NewLift creates the lift motor from BCM pin names.
func NewLift(powerPin, directionPin string, pwmHz int) (*LiftMotor, error) {
	power, direction, err := pinsByName(powerPin, directionPin)
	if err != nil {
		return nil, err
	}
	return NewLiftFromPins(power, direction, pwmHz)
}

// NewLiftFromPins wires a LiftMotor from explicit pins.
func NewLiftFromPins(power, direction gpio.PinIO, pwmHz int) (*LiftMotor, error) {
	if pwmHz <= 0 {
		return nil, fmt.Errorf("motors: pwm frequency must be positive, got %d", pwmHz)
	}
	if err := direction.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("motors: lift direction pin %s: %w", direction, err)
	}
	pwm, err := newSoftPWM(power, pwmHz)
	if err != nil {
		return nil, fmt.Errorf("motors: lift power pin %s: %w", power, err)
	}
	return &LiftMotor{power: pwm, direction: direction, ResetOnClose: true}, nil
}

// Up raises the lift for the given duration at full power.
func (l *LiftMotor) Up(duration time.Duration) error {
	return l.travel(gpio.High, duration, 1)
}

// Down lowers the lift for the given duration at full power.
func (l *LiftMotor) Down(duration time.Duration) error {
	return l.travel(gpio.Low, duration, -1)
}

func (l *LiftMotor) travel(level gpio.Level, duration time.Duration, sign int) error {
	if duration < 0 {
		return fmt.Errorf("motors: lift duration must not be negative, got %s", duration)
	}
	if err := l.direction.Out(level); err != nil {
		return fmt.Errorf("motors: lift direction pin %s: %w", l.direction, err)
	}

	// Track actual elapsed time rather than the requested duration so
	// the reset on Close stays accurate even if the sleep is cut short.
	start := time.Now()
	l.power.setDuty(100)
	defer func() {
		l.power.setDuty(0)
		l.movement += time.Duration(sign) * time.Since(start)
	}()

	time.Sleep(duration)
	return nil
}

// Movement returns the cumulative upwards travel of the lift.
func (l *LiftMotor) Movement() time.Duration {
	return l.movement
}

// Close resets the lift to its initial position when requested, then
// stops the PWM worker and pulls the pins low.
func (l *LiftMotor) Close() error {
	if l.ResetOnClose {
		switch {
		case l.movement > 0:
			if err := l.Down(l.movement); err != nil {
				log.Printf("motors: lift reset failed: %v", err)
			}
		case l.movement < 0:
			if err := l.Up(-l.movement); err != nil {
				log.Printf("motors: lift reset failed: %v", err)
			}
		}
		if l.movement > liftResetTolerance || l.movement < -liftResetTolerance {
			log.Printf("motors: lift is still %s from initial position after reset", l.movement)
		}
	}
	l.power.close()
	return l.direction.Out(gpio.Low)
}
