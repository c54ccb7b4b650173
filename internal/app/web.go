package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/relabs-tech/logbot/internal/config"
)

// sensorState caches the latest telemetry per sensor for the JSON API
// and the websocket stream.
type sensorState struct {
	mu       sync.RWMutex
	readings map[string]Reading
}

func (s *sensorState) set(r Reading) {
	s.mu.Lock()
	s.readings[r.Sensor] = r
	s.mu.Unlock()
}

func (s *sensorState) snapshot() map[string]Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Reading, len(s.readings))
	for k, v := range s.readings {
		out[k] = v
	}
	return out
}

var upgrader = websocket.Upgrader{
	// The dashboard is served from the Pi itself on the local network
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunWeb subscribes to the sensor topics and serves the latest values
// as a JSON API plus a websocket stream for the dashboard.
func RunWeb() error {
	cfg := config.Get()

	state := &sensorState{readings: make(map[string]Reading)}

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to both sensor topics and cache the latest reading
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var r Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		state.set(r)
	}
	for _, topic := range []string{cfg.TopicSensorLeft, cfg.TopicSensorRight} {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to MQTT topic %s", topic)
	}

	// 3) JSON API endpoint: latest reading per sensor
	http.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		readings := state.snapshot()
		if len(readings) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(readings); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket stream: push the snapshot on every update interval
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		interval := time.Duration(cfg.TelemetryInterval) * time.Millisecond
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteJSON(state.snapshot()); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
