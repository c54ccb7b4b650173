package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepCtx(t *testing.T) {
	t.Parallel()
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestSensorStateSnapshot(t *testing.T) {
	t.Parallel()
	state := &sensorState{readings: make(map[string]Reading)}

	state.set(Reading{Sensor: "left", Value: 42, Average: 40.5})
	state.set(Reading{Sensor: "right", Value: 180, Average: 178.2})
	state.set(Reading{Sensor: "left", Value: 43, Average: 41})

	snap := state.snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 43, snap["left"].Value)
	assert.Equal(t, 180, snap["right"].Value)

	// The snapshot is a copy, later updates must not leak into it
	state.set(Reading{Sensor: "left", Value: 99})
	assert.Equal(t, 43, snap["left"].Value)
}
