// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestMotor(t *testing.T, forward gpio.Level) (*Motor, *gpiotest.Pin) {
	t.Helper()
	power := &gpiotest.Pin{N: "PWR", Num: 12}
	direction := &gpiotest.Pin{N: "DIR", Num: 5}
	m, err := New(power, direction, forward, 100)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, direction
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	power := &gpiotest.Pin{N: "PWR", Num: 12}
	direction := &gpiotest.Pin{N: "DIR", Num: 5}

	_, err := New(power, direction, gpio.High, 0)
	require.Error(t, err)
}

func TestNewSetsForwardLevel(t *testing.T) {
	t.Parallel()
	// The motors are mounted mirrored, so forward is High on one side
	// and Low on the other.
	_, direction := newTestMotor(t, gpio.High)
	assert.Equal(t, gpio.High, direction.Read())

	_, direction = newTestMotor(t, gpio.Low)
	assert.Equal(t, gpio.Low, direction.Read())
}

func TestMoveDirectionPolarity(t *testing.T) {
	t.Parallel()
	m, direction := newTestMotor(t, gpio.High)

	require.NoError(t, m.Move(Backward, 50))
	assert.Equal(t, gpio.Low, direction.Read())

	require.NoError(t, m.Move(Forward, 50))
	assert.Equal(t, gpio.High, direction.Read())
}

func TestSetSpeed(t *testing.T) {
	t.Parallel()
	m, _ := newTestMotor(t, gpio.High)

	previous, err := m.SetSpeed(40)
	require.NoError(t, err)
	assert.Equal(t, 0.0, previous)

	previous, err = m.SetSpeed(70)
	require.NoError(t, err)
	assert.Equal(t, 40.0, previous)

	previous, err = m.Stop()
	require.NoError(t, err)
	assert.Equal(t, 70.0, previous)
}

func TestSetSpeedRange(t *testing.T) {
	t.Parallel()
	m, _ := newTestMotor(t, gpio.High)

	_, err := m.SetSpeed(-0.1)
	require.ErrorIs(t, err, ErrSpeedRange)

	_, err = m.SetSpeed(100.1)
	require.ErrorIs(t, err, ErrSpeedRange)

	// A rejected speed leaves the current one in place
	_, err = m.SetSpeed(30)
	require.NoError(t, err)
	_, err = m.SetSpeed(101)
	require.ErrorIs(t, err, ErrSpeedRange)
	previous, err := m.SetSpeed(30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, previous)
}

func TestClosePullsPinsLow(t *testing.T) {
	t.Parallel()
	power := &gpiotest.Pin{N: "PWR", Num: 12}
	direction := &gpiotest.Pin{N: "DIR", Num: 5}
	m, err := New(power, direction, gpio.High, 100)
	require.NoError(t, err)

	require.NoError(t, m.Move(Forward, 80))
	require.NoError(t, m.Close())
	assert.Equal(t, gpio.Low, direction.Read())
	assert.Equal(t, gpio.Low, power.Read())
}

func TestPinsByName(t *testing.T) {
	t.Parallel()
	_, _, err := pinsByName("NOPE1", "NOPE2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE1")
}
