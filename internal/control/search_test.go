// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

func TestOscillateUntilValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
		speed   float64
	}{
		{"negative timeout", -time.Second, 20},
		{"negative speed", time.Second, -1},
		{"speed above range", time.Second, 100.5},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			drv := &fakeDriver{defaultSpeed: 30}
			c := newTestController(drv, sensors.NewMock(nil), Config{})

			found, err := c.OscillateUntil(context.Background(), never, tc.timeout, tc.speed)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.False(t, found)
			assert.Empty(t, drv.commands)
		})
	}
}

func TestOscillateUntilDoublingSweeps(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{Tick: 100 * time.Millisecond})

	found, err := c.OscillateUntil(context.Background(), never, 5*time.Second, 20)
	require.NoError(t, err)
	assert.False(t, found)

	// Sweeps of 1s, 2s, 4s: the scan starts left, swaps right after the
	// first second and back left two seconds later. The 4s sweep is cut
	// short by the timeout.
	assert.Equal(t, []vehicle.SpinDirection{
		vehicle.SpinLeft, vehicle.SpinRight, vehicle.SpinLeft,
	}, drv.spins())
	assert.Equal(t, "stop", drv.names()[len(drv.names())-1])

	for _, cmd := range drv.commands {
		if cmd.name == "spin" {
			assert.Equal(t, 20.0, cmd.speed)
		}
	}
}

func TestOscillateUntilFound(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	found, err := c.OscillateUntil(context.Background(), doneAfter(2), time.Minute, 20)
	require.NoError(t, err)
	assert.True(t, found)
	// Found within the first sweep, so a single spin then the stop
	assert.Equal(t, []string{"spin", "stop"}, drv.names())
}

func TestOscillateUntilCancelled(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	found, err := c.OscillateUntil(ctx, never, time.Minute, 20)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
	assert.Equal(t, []string{"spin", "stop"}, drv.names())
}

func TestFindEdge(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left: {50, 100, 198},
	})
	c := newTestController(drv, reader, Config{})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	found, err := c.FindEdge(context.Background(), sensors.Left, 10*time.Second, 5, &cal)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, reader.Reads(sensors.Left))
}

func TestFindEdgeUsesInstalledCalibration(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Right: {199},
	})
	c := newTestController(drv, reader, Config{})
	c.SetCalibration(calibration.Map{
		sensors.Right: {Line: 200, Floor: 100},
	})

	found, err := c.FindEdge(context.Background(), sensors.Right, 10*time.Second, 5, nil)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFindEdgeNoCalibration(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	_, err := c.FindEdge(context.Background(), sensors.Left, 10*time.Second, 5, nil)
	require.ErrorIs(t, err, ErrNoCalibration)
	assert.Empty(t, drv.commands)
}

func TestFindEdgeNegativeTimeout(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	_, err := c.FindEdge(context.Background(), sensors.Left, -time.Second, 5, &cal)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, drv.commands)
}
