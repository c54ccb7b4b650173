package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/logbot/internal/config"
)

// RunDisplay shows the latest sensor telemetry on the small SSD1306
// status display mounted on the vehicle.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	var (
		mu       sync.RWMutex
		readings = make(map[string]Reading)
	)

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var r Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("display: payload unmarshal error: %v", err)
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
	}

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		mu.RLock()
		left, haveLeft := readings["left"]
		right, haveRight := readings["right"]
		mu.RUnlock()

		lines := []string{"logbot sensors"}
		if haveLeft {
			lines = append(lines, fmt.Sprintf("L %3d avg %5.1f", left.Value, left.Average))
		} else {
			lines = append(lines, "L --")
		}
		if haveRight {
			lines = append(lines, fmt.Sprintf("R %3d avg %5.1f", right.Value, right.Average))
		} else {
			lines = append(lines, "R --")
		}

		if err := drawLines(display, lines); err != nil {
			log.Printf("display: draw error: %v", err)
		}
	}
	return nil
}

// drawLines renders text lines onto the display with the basic 7x13 font.
func drawLines(display *ssd1306.Dev, lines []string) error {
	bounds := display.Bounds()
	img := image1bit.NewVerticalLSB(bounds)

	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}

	return display.Draw(bounds, img, image.Point{})
}
