package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDTelemetry string
	MQTTClientIDWeb       string
	MQTTClientIDDisplay   string
	MQTTClientIDConsole   string

	// Topics
	TopicSensorLeft  string
	TopicSensorRight string

	// Reflectance sensors (shared ADC on one I2C bus)
	SensorI2CBus     string
	SensorI2CAddr    uint16
	SensorHistoryLen int

	// Motor pins (BCM names, e.g. "GPIO17")
	LeftMotorPowerPin      string
	LeftMotorDirectionPin  string
	RightMotorPowerPin     string
	RightMotorDirectionPin string
	LiftPowerPin           string
	LiftDirectionPin       string

	// PWM frequency for the motor power pins, in Hz
	PWMFrequency int

	// Speeds in percent [0,100]
	DefaultSpeed     float64
	CalibrationSpeed float64

	// Calibration sweep window in milliseconds
	CalibrationSpinWindow int
	CalibrationDir        string

	// Steering gains
	Kp float64
	Ki float64
	Kd float64

	// Fallback line thresholds for uncalibrated sensors
	SensorThresholdLeft  float64
	SensorThresholdRight float64

	// Control loop tick in milliseconds
	ControlTick int

	// Timing
	TelemetryInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TELEMETRY":
		c.MQTTClientIDTelemetry = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_SENSOR_LEFT":
		c.TopicSensorLeft = value
	case "TOPIC_SENSOR_RIGHT":
		c.TopicSensorRight = value

	// Sensors
	case "SENSOR_I2C_BUS":
		c.SensorI2CBus = value
	case "SENSOR_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_I2C_ADDR %q: %w", value, err)
		}
		c.SensorI2CAddr = uint16(addr)
	case "SENSOR_HISTORY_LEN":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_HISTORY_LEN %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("SENSOR_HISTORY_LEN must be at least 1, got %d", n)
		}
		c.SensorHistoryLen = n

	// Motor pins
	case "LEFT_MOTOR_POWER_PIN":
		c.LeftMotorPowerPin = value
	case "LEFT_MOTOR_DIRECTION_PIN":
		c.LeftMotorDirectionPin = value
	case "RIGHT_MOTOR_POWER_PIN":
		c.RightMotorPowerPin = value
	case "RIGHT_MOTOR_DIRECTION_PIN":
		c.RightMotorDirectionPin = value
	case "LIFT_POWER_PIN":
		c.LiftPowerPin = value
	case "LIFT_DIRECTION_PIN":
		c.LiftDirectionPin = value

	case "PWM_FREQUENCY":
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PWM_FREQUENCY %q: %w", value, err)
		}
		if hz <= 0 {
			return fmt.Errorf("PWM_FREQUENCY must be positive, got %d", hz)
		}
		c.PWMFrequency = hz

	// Speeds
	case "DEFAULT_SPEED":
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_SPEED %q: %w", value, err)
		}
		if speed < 0 || speed > 100 {
			return fmt.Errorf("DEFAULT_SPEED must be 0-100, got %g", speed)
		}
		c.DefaultSpeed = speed
	case "CALIBRATION_SPEED":
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_SPEED %q: %w", value, err)
		}
		if speed < 0 || speed > 100 {
			return fmt.Errorf("CALIBRATION_SPEED must be 0-100, got %g", speed)
		}
		c.CalibrationSpeed = speed

	// Calibration
	case "CALIBRATION_SPIN_WINDOW":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_SPIN_WINDOW %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("CALIBRATION_SPIN_WINDOW must be positive, got %d", ms)
		}
		c.CalibrationSpinWindow = ms
	case "CALIBRATION_DIR":
		c.CalibrationDir = value

	// Gains
	case "KP":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid KP %q: %w", value, err)
		}
		c.Kp = v
	case "KI":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid KI %q: %w", value, err)
		}
		c.Ki = v
	case "KD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid KD %q: %w", value, err)
		}
		c.Kd = v

	// Thresholds
	case "SENSOR_THRESHOLD_LEFT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_THRESHOLD_LEFT %q: %w", value, err)
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("SENSOR_THRESHOLD_LEFT must be 0-255, got %g", v)
		}
		c.SensorThresholdLeft = v
	case "SENSOR_THRESHOLD_RIGHT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_THRESHOLD_RIGHT %q: %w", value, err)
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("SENSOR_THRESHOLD_RIGHT must be 0-255, got %g", v)
		}
		c.SensorThresholdRight = v

	// Timing
	case "CONTROL_TICK":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONTROL_TICK %q: %w", value, err)
		}
		c.ControlTick = ms
	case "TELEMETRY_INTERVAL":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TELEMETRY_INTERVAL %q: %w", value, err)
		}
		c.TelemetryInterval = ms
	case "CONSOLE_LOG_INTERVAL":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = ms

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = ms

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.LeftMotorPowerPin == "" || c.LeftMotorDirectionPin == "" {
		return fmt.Errorf("LEFT_MOTOR_POWER_PIN and LEFT_MOTOR_DIRECTION_PIN are required")
	}
	if c.RightMotorPowerPin == "" || c.RightMotorDirectionPin == "" {
		return fmt.Errorf("RIGHT_MOTOR_POWER_PIN and RIGHT_MOTOR_DIRECTION_PIN are required")
	}
	if c.PWMFrequency == 0 {
		return fmt.Errorf("PWM_FREQUENCY is required")
	}
	if c.DefaultSpeed == 0 {
		return fmt.Errorf("DEFAULT_SPEED is required")
	}
	if c.CalibrationSpinWindow == 0 {
		return fmt.Errorf("CALIBRATION_SPIN_WINDOW is required")
	}
	if c.ControlTick == 0 {
		return fmt.Errorf("CONTROL_TICK is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
