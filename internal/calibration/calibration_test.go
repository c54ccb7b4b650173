package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/logbot/internal/sensors"
)

func TestAverage(t *testing.T) {
	t.Parallel()
	cal := CalibratedSensor{Line: 200, Floor: 100}
	assert.Equal(t, 150.0, cal.Average())
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	m := Map{
		sensors.Left:  {Line: 201.25, Floor: 10.5},
		sensors.Right: {Line: 198, Floor: 12},
	}

	// Nested path so Save has to create the directory
	path := filepath.Join(t.TempDir(), "snapshots", "calibration.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestLoadSnapshotUnknownSensor(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "calibration.json")
	data := []byte(`{"middle": {"line": 200, "floor": 100}}`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "middle")
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
