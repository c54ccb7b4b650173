// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/config"
	"github.com/relabs-tech/logbot/internal/control"
	"github.com/relabs-tech/logbot/internal/motors"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

// RunMission drives the package shuttle sequence: calibrate (or load a
// snapshot), find the line edge, then follow the track between stop
// lines, operating the lift at each end.
//
// snapshotPath, when non-empty, loads a saved calibration instead of
// running the sweep.
func RunMission(ctx context.Context, snapshotPath string) error {
	cfg := config.Get()

	left, err := motors.NewLeft(cfg.LeftMotorPowerPin, cfg.LeftMotorDirectionPin, cfg.PWMFrequency)
	if err != nil {
		return err
	}
	defer left.Close()

	right, err := motors.NewRight(cfg.RightMotorPowerPin, cfg.RightMotorDirectionPin, cfg.PWMFrequency)
	if err != nil {
		return err
	}
	defer right.Close()

	lift, err := motors.NewLift(cfg.LiftPowerPin, cfg.LiftDirectionPin, cfg.PWMFrequency)
	if err != nil {
		return err
	}
	defer lift.Close()

	reader, err := sensors.NewI2C(sensors.Opts{
		Bus:        cfg.SensorI2CBus,
		Addr:       cfg.SensorI2CAddr,
		HistoryLen: cfg.SensorHistoryLen,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	v := vehicle.New(left, right, cfg.DefaultSpeed)
	// Whatever happens below, the vehicle must not keep rolling.
	defer v.Stop()

	bot := control.New(v, reader, control.Config{
		Gains:          control.Gains{Kp: cfg.Kp, Ki: cfg.Ki, Kd: cfg.Kd},
		ThresholdLeft:  cfg.SensorThresholdLeft,
		ThresholdRight: cfg.SensorThresholdRight,
		Tick:           time.Duration(cfg.ControlTick) * time.Millisecond,
	})

	// --- Calibration ---
	var cal calibration.Map
	if snapshotPath != "" {
		cal, err = calibration.LoadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		log.Printf("mission: loaded calibration snapshot from %s", snapshotPath)
	} else {
		calibrator := calibration.NewCalibrator(v, reader,
			time.Duration(cfg.CalibrationSpinWindow)*time.Millisecond,
			cfg.CalibrationSpeed)
		cal, err = calibrator.Run(ctx, sensors.Left, sensors.Right)
		if err != nil {
			return err
		}
	}
	bot.SetCalibration(cal)

	// --- Find the edge of the line with the left sensor ---
	found, err := bot.FindEdge(ctx, sensors.Left, 20*time.Second, 5.0, nil)
	if err != nil {
		return err
	}
	if !found {
		log.Println("mission: didn't find the edge, giving up")
		return nil
	}

	stopLine := func() (bool, error) { return bot.DetectStopLine() }

	// --- Leg 1: follow the edge to the pickup stop line ---
	if err := bot.FollowEdgeUntil(ctx, sensors.Left, stopLine, control.FollowOptions{
		AccelerationTime: 2 * time.Second,
		DynamicSpeed:     true,
	}); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := lift.Up(3 * time.Second); err != nil {
		return err
	}

	// --- Turn onto the crossing line and carry the package over ---
	if err := bot.TurnUntilLine(ctx, vehicle.SpinLeft, cfg.DefaultSpeed, control.DefaultInitialSpin, nil); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := bot.FollowPDUntil(ctx, stopLine); err != nil {
		return err
	}

	// Nudge across the stop line before following the next segment
	if _, err := v.Move(vehicle.Forward, vehicle.DefaultSpeed); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := bot.FollowPDUntil(ctx, stopLine); err != nil {
		return err
	}

	// --- Drop the package and back away ---
	if err := lift.Down(3 * time.Second); err != nil {
		return err
	}
	if _, err := v.Move(vehicle.Backward, vehicle.DefaultSpeed); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 2500*time.Millisecond); err != nil {
		return err
	}
	if err := bot.TurnUntilLine(ctx, vehicle.SpinLeft, cfg.DefaultSpeed, control.DefaultInitialSpin, nil); err != nil {
		return err
	}

	log.Println("mission: complete")
	return nil
}

// sleepCtx pauses the mission while staying responsive to cancellation.
// The deferred vehicle stop covers the interrupted case.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
