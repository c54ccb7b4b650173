// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/logbot/internal/config"
	"github.com/relabs-tech/logbot/internal/sensors"
)

// Reading is the telemetry payload published for each sensor.
type Reading struct {
	Sensor  string  `json:"sensor"`
	Value   int     `json:"value"`
	Average float64 `json:"average"`
	Time    string  `json:"time"`
}

// RunTelemetry reads both reflectance sensors on an interval and
// publishes their values and running averages over MQTT.
func RunTelemetry() error {
	log.Println("starting logbot sensor telemetry producer")

	cfg := config.Get()

	reader, err := sensors.NewI2C(sensors.Opts{
		Bus:        cfg.SensorI2CBus,
		Addr:       cfg.SensorI2CAddr,
		HistoryLen: cfg.SensorHistoryLen,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDTelemetry)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	topics := map[sensors.Sensor]string{
		sensors.Left:  cfg.TopicSensorLeft,
		sensors.Right: cfg.TopicSensorRight,
	}

	ticker := time.NewTicker(time.Duration(cfg.TelemetryInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		for _, sensor := range []sensors.Sensor{sensors.Left, sensors.Right} {
			value, err := reader.Read(sensor)
			if err != nil {
				log.Printf("telemetry: %s sensor read error: %v", sensor, err)
				continue
			}
			average, err := reader.Average(sensor)
			if err != nil {
				log.Printf("telemetry: %s sensor average error: %v", sensor, err)
				continue
			}

			payload, err := json.Marshal(Reading{
				Sensor:  sensor.String(),
				Value:   value,
				Average: average,
				Time:    t.Format(time.RFC3339),
			})
			if err != nil {
				log.Printf("telemetry: json marshal error: %v", err)
				continue
			}

			if token := client.Publish(topics[sensor], 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("telemetry: MQTT publish error (%s): %v", sensor, token.Error())
			}
		}
	}
	return nil
}
