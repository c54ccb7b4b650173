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

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunTelemetry(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
