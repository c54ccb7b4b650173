// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/logbot/internal/config"
)

// RunConsole subscribes to the sensor topics and logs the latest values
// to the terminal at a fixed interval. Handy for watching a calibration
// run from a laptop.
func RunConsole() error {
	cfg := config.Get()

	var (
		mu       sync.RWMutex
		readings = make(map[string]Reading)
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var r Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		readings[r.Sensor] = r
		mu.Unlock()
	}
	for _, topic := range []string{cfg.TopicSensorLeft, cfg.TopicSensorRight} {
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to MQTT topic %s", topic)
	}

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		mu.RLock()
		left, haveLeft := readings["left"]
		right, haveRight := readings["right"]
		mu.RUnlock()

		if !haveLeft && !haveRight {
			log.Println("console: no sensor data yet")
			continue
		}
		log.Printf("console: left=%d (avg %.1f) right=%d (avg %.1f)",
			left.Value, left.Average, right.Value, right.Average)
	}
	return nil
}
