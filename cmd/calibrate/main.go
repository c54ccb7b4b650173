// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/relabs-tech/logbot/internal/calibration"
	"github.com/relabs-tech/logbot/internal/config"
	"github.com/relabs-tech/logbot/internal/motors"
	"github.com/relabs-tech/logbot/internal/sensors"
	"github.com/relabs-tech/logbot/internal/vehicle"
)

func main() {
	configPath := flag.String("config", "logbot_config.txt", "path to the configuration file")
	output := flag.String("output", "", "snapshot path (default <CALIBRATION_DIR>/calibration.json)")
	speed := flag.Float64("speed", 0, "spin speed override (0 uses CALIBRATION_SPEED)")
	window := flag.Duration("window", 0, "sweep window override (0 uses CALIBRATION_SPIN_WINDOW)")
	flag.Parse()

	log.Println("starting logbot calibration sweep")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	if *speed == 0 {
		*speed = cfg.CalibrationSpeed
	}
	if *window == 0 {
		*window = time.Duration(cfg.CalibrationSpinWindow) * time.Millisecond
	}
	if *output == "" {
		*output = filepath.Join(cfg.CalibrationDir, "calibration.json")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *window, *speed, *output); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, window time.Duration, speed float64, output string) error {
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
	defer v.Stop()

	cal, err := calibration.NewCalibrator(v, reader, window, speed).Run(ctx, sensors.Left, sensors.Right)
	if err != nil {
		return err
	}
	if err := cal.Save(output); err != nil {
		return err
	}
	log.Printf("calibration snapshot written to %s", output)
	return nil
}
