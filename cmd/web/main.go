// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/logbot/internal/app"
	"github.com/relabs-tech/logbot/internal/config"
)

func main() {
	configPath := flag.String("config", "logbot_config.txt", "path to the configuration file")
	flag.Parse()

	log.Println("starting logbot web server (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Note: live data requires the telemetry producer to be running")

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
