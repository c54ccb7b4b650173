// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/logbot/internal/app"
	"github.com/relabs-tech/logbot/internal/config"
)

func main() {
	configPath := flag.String("config", "logbot_config.txt", "path to the configuration file")
	snapshot := flag.String("snapshot", "", "calibration snapshot to load instead of running the sweep")
	flag.Parse()

	log.Println("starting logbot mission runner")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Ctrl-C cancels the mission; the control loops stop the vehicle
	// on their way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunMission(ctx, *snapshot); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("mission interrupted")
			return
		}
		log.Fatalf("fatal: %v", err)
	}
}
