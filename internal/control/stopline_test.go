package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/sensors"
)

func newStopLineController(reader sensors.Reader) *Controller {
	c := newTestController(&fakeDriver{defaultSpeed: 30}, reader, Config{})
	c.SetCalibration(calibration.Map{
		sensors.Left:  {Line: 150, Floor: 50},
		sensors.Right: {Line: 160, Floor: 50},
	})
	return c
}

func TestDetectStopLine(t *testing.T) {
	t.Parallel()

	t.Run("both sensors above their line values", func(t *testing.T) {
		t.Parallel()
		reader := sensors.NewMock(map[sensors.Sensor][]int{
			sensors.Left:  {151},
			sensors.Right: {161},
		})
		c := newStopLineController(reader)

		found, err := c.DetectStopLine()
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("left exactly at the line value", func(t *testing.T) {
		t.Parallel()
		reader := sensors.NewMock(map[sensors.Sensor][]int{
			sensors.Left:  {150},
			sensors.Right: {161},
		})
		c := newStopLineController(reader)

		found, err := c.DetectStopLine()
		require.NoError(t, err)
		assert.False(t, found)
		// Detection short-circuits on the left sensor
		assert.Zero(t, reader.Reads(sensors.Right))
	})

	t.Run("right below the line value", func(t *testing.T) {
		t.Parallel()
		reader := sensors.NewMock(map[sensors.Sensor][]int{
			sensors.Left:  {151},
			sensors.Right: {160},
		})
		c := newStopLineController(reader)

		found, err := c.DetectStopLine()
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestDetectStopLineFallbackThresholds(t *testing.T) {
	t.Parallel()
	// Without calibration the configured thresholds apply
	reader := sensors.NewMock(map[sensors.Sensor][]int{
		sensors.Left:  {201},
		sensors.Right: {201},
	})
	c := newTestController(&fakeDriver{defaultSpeed: 30}, reader, Config{})

	found, err := c.DetectStopLine()
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDetectStopLineSensorError(t *testing.T) {
	t.Parallel()
	reader := sensors.NewMock(nil)
	reader.Err = assert.AnError
	c := newStopLineController(reader)

	_, err := c.DetectStopLine()
	require.ErrorIs(t, err, assert.AnError)
}
