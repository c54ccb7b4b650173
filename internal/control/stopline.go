// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import "github.com/relabs-tech/logbot/internal/sensors"

// DetectStopLine reports whether both sensors currently read strictly
// above their line thresholds, which happens when the vehicle crosses a
// line perpendicular to its path. Calibrated line values are preferred;
// the configured fallbacks cover uncalibrated sensors. Stateless, so it
// is safe to poll every tick as an UntilFunc.
func (c *Controller) DetectStopLine() (bool, error) {
	leftThreshold := c.cfg.ThresholdLeft
	if cal, ok := c.calibration[sensors.Left]; ok {
		leftThreshold = cal.Line
	}
	rightThreshold := c.cfg.ThresholdRight
	if cal, ok := c.calibration[sensors.Right]; ok {
		rightThreshold = cal.Line
	}

	left, err := c.sensors.Read(sensors.Left)
	if err != nil {
		return false, err
	}
	if float64(left) <= leftThreshold {
		return false, nil
	}
	right, err := c.sensors.Read(sensors.Right)
	if err != nil {
		return false, err
	}
	return float64(right) > rightThreshold, nil
}
