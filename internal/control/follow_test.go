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

func TestFollowLineUntil(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Right: {250, 10, 10},
		sensors.Left:  {250, 10},
	})
	c := newTestController(drv, reader, Config{})

	err := c.FollowLineUntil(context.Background(), doneAfter(3), 0)
	require.NoError(t, err)

	require.Equal(t, []string{"move", "move", "move", "stop"}, drv.names())
	// Line under the right sensor: veer left. Line under the left
	// sensor: veer right. Neither: straight on.
	assert.Equal(t, vehicle.Left, drv.commands[0].direction)
	assert.Equal(t, vehicle.Right, drv.commands[1].direction)
	assert.Equal(t, vehicle.Forward, drv.commands[2].direction)
	// The strategy always drives at the configured default speed
	for _, cmd := range drv.commands[:3] {
		assert.Equal(t, vehicle.DefaultSpeed, cmd.speed)
	}
}

func TestFollowLineUntilTimeout(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Right: {10},
		sensors.Left:  {10},
	})
	c := newTestController(drv, reader, Config{})

	err := c.FollowLineUntil(context.Background(), never, 50*time.Millisecond)
	require.NoError(t, err)

	names := drv.names()
	assert.GreaterOrEqual(t, len(names), 3)
	assert.Equal(t, "stop", names[len(names)-1])
}

func TestFollowLineUntilNegativeTimeout(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	err := c.FollowLineUntil(context.Background(), never, -time.Second)
	require.ErrorIs(t, err, ErrInvalidArgument)
	// Rejected before any actuator command, including the stop
	assert.Empty(t, drv.commands)
}

func TestFollowLineUntilCancelled(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.FollowLineUntil(ctx, never, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"stop"}, drv.names())
}

func TestFollowLineUntilFuncError(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	c := newTestController(drv, sensors.NewMock(nil), Config{})

	until := func() (bool, error) { return false, assert.AnError }
	err := c.FollowLineUntil(context.Background(), until, 0)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"stop"}, drv.names())
}

func TestFollowPDUntil(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left:  {100},
		sensors.Right: {50},
	})
	c := newTestController(drv, reader, Config{})

	err := c.FollowPDUntil(context.Background(), doneAfter(2))
	require.NoError(t, err)

	// error=50 both ticks. Tick 1 has derivative 50, so the correction
	// is 1.2*50+0.6*50=90 and the left wheel clamps to 0, the right to
	// 100. Tick 2 has derivative 0, correction 60.
	require.Equal(t, [][2]float64{{0, 100}, {0, 90}}, drv.wheels())
	assert.Equal(t, "stop", drv.names()[len(drv.names())-1])
}

func TestFollowEdgeUntilValidation(t *testing.T) {
	t.Parallel()
	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}

	tests := []struct {
		name string
		opts FollowOptions
		want error
	}{
		{
			"negative acceleration time",
			FollowOptions{AccelerationTime: -time.Second, Calibration: &cal},
			ErrInvalidArgument,
		},
		{
			"no calibration",
			FollowOptions{},
			ErrNoCalibration,
		},
		{
			"inverted calibration",
			FollowOptions{Calibration: &calibration.CalibratedSensor{Line: 100, Floor: 200}},
			ErrInvertedCalibration,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			drv := &fakeDriver{defaultSpeed: 30}
			c := newTestController(drv, sensors.NewMock(nil), Config{})

			err := c.FollowEdgeUntil(context.Background(), sensors.Left, never, tc.opts)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, drv.commands)
		})
	}
}

func TestFollowEdgeUntilSteering(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left: {160},
	})
	c := newTestController(drv, reader, Config{})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	err := c.FollowEdgeUntil(context.Background(), sensors.Left, doneAfter(1),
		FollowOptions{Calibration: &cal})
	require.NoError(t, err)

	// Setpoint 150, reading 160: error 10 with derivative 10 gives a
	// correction of 18, shifting speed from the left wheel to the right.
	require.Len(t, drv.wheels(), 1)
	assert.InDelta(t, 12, drv.wheels()[0][0], 1e-9)
	assert.InDelta(t, 48, drv.wheels()[0][1], 1e-9)
}

func TestFollowEdgeUntilDynamicSpeedAndRamp(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left: {150},
	})
	c := newTestController(drv, reader, Config{})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	err := c.FollowEdgeUntil(context.Background(), sensors.Left, doneAfter(3), FollowOptions{
		AccelerationTime: 40 * time.Millisecond,
		DynamicSpeed:     true,
		Calibration:      &cal,
	})
	require.NoError(t, err)

	// On the setpoint the dynamic reduction floors at half the default
	// speed; the ramp then scales 15 by 0, 0.25 and 0.5 over the first
	// three ticks.
	wheels := drv.wheels()
	require.Len(t, wheels, 3)
	want := []float64{0, 3.75, 7.5}
	for i, pair := range wheels {
		assert.InDelta(t, want[i], pair[0], 1e-9)
		assert.InDelta(t, want[i], pair[1], 1e-9)
	}
}

func TestFollowEdgeUntilIntegral(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left: {160},
	})
	c := newTestController(drv, reader, Config{
		Gains: Gains{Kp: 1, Ki: 0.5, Kd: 0},
	})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	err := c.FollowEdgeUntil(context.Background(), sensors.Left, doneAfter(2),
		FollowOptions{Integral: true, Calibration: &cal})
	require.NoError(t, err)

	// error 10 each tick: the integral grows 10, 20, so the correction
	// grows 15, 20.
	require.Equal(t, [][2]float64{{15, 45}, {10, 50}}, drv.wheels())
}

func TestFollowEdgeUntilSensorError(t *testing.T) {
	t.Parallel()
	drv := &fakeDriver{defaultSpeed: 30}
	reader := sensors.NewMock(nil)
	reader.Err = assert.AnError
	c := newTestController(drv, reader, Config{})

	cal := calibration.CalibratedSensor{Line: 200, Floor: 100}
	err := c.FollowEdgeUntil(context.Background(), sensors.Left, never,
		FollowOptions{Calibration: &cal})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"stop"}, drv.names())
}
