package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker                 string
	MQTTClientIDMonitor        string
	MQTTClientIDSerialProducer string
	MQTTClientIDIMUProducer    string
	MQTTClientIDConsole        string
	MQTTClientIDWeb            string
	MQTTClientIDDisplay        string

	// Topics
	TopicAccel               string
	TopicOrientation         string
	TopicPosture             string
	TopicCalibrationProgress string
	TopicCalibrationResult   string
	TopicCalibrationCommand  string
	TopicMovement            string
	TopicReminder            string
	TopicSession             string

	// Core tuning
	WindowCapacity             int
	CalibrationRequiredSamples int
	CalibrationBudgetMS        int
	ProgressIntervalMS         int
	MovementThreshold          float64
	StillReminderSeconds       int

	// Serial headset tether
	SerialPort     string
	SerialBaudRate int

	// I2C accelerometer (prototype rig)
	IMUI2CBus           string
	IMUI2CAddr          uint16
	IMUSampleIntervalMS int
	// Accelerometer range: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Display
	DisplayUpdateIntervalMS int

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for the config singleton:
// globalConfig is only set through InitGlobal (guarded by sync.Once and
// the write lock) and only read through Get (read lock), so concurrent
// readers across goroutines are safe.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with the shipped tuning; the
// config file overrides individual keys.
func defaults() *Config {
	return &Config{
		MQTTBroker:                 "tcp://localhost:1883",
		MQTTClientIDMonitor:        "posture-monitor",
		MQTTClientIDSerialProducer: "posture-serial-producer",
		MQTTClientIDIMUProducer:    "posture-imu-producer",
		MQTTClientIDConsole:        "posture-console-subscriber",
		MQTTClientIDWeb:            "posture-web-subscriber",
		MQTTClientIDDisplay:        "posture-display-subscriber",

		TopicAccel:               "posture/accel",
		TopicOrientation:         "posture/orientation",
		TopicPosture:             "posture/state",
		TopicCalibrationProgress: "posture/calibration/progress",
		TopicCalibrationResult:   "posture/calibration/result",
		TopicCalibrationCommand:  "posture/calibration/command",
		TopicMovement:            "posture/movement",
		TopicReminder:            "posture/reminder",
		TopicSession:             "posture/session",

		WindowCapacity:             20,
		CalibrationRequiredSamples: 50,
		CalibrationBudgetMS:        5000,
		ProgressIntervalMS:         100,
		MovementThreshold:          0.05,
		StillReminderSeconds:       60,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		IMUI2CBus:           "1",
		IMUI2CAddr:          0x53,
		IMUSampleIntervalMS: 20,
		IMUAccelRange:       0,

		DisplayUpdateIntervalMS: 500,

		WebServerPort: 8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
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
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_SERIAL_PRODUCER":
		c.MQTTClientIDSerialProducer = value
	case "MQTT_CLIENT_ID_IMU_PRODUCER":
		c.MQTTClientIDIMUProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_POSTURE":
		c.TopicPosture = value
	case "TOPIC_CALIBRATION_PROGRESS":
		c.TopicCalibrationProgress = value
	case "TOPIC_CALIBRATION_RESULT":
		c.TopicCalibrationResult = value
	case "TOPIC_CALIBRATION_COMMAND":
		c.TopicCalibrationCommand = value
	case "TOPIC_MOVEMENT":
		c.TopicMovement = value
	case "TOPIC_REMINDER":
		c.TopicReminder = value
	case "TOPIC_SESSION":
		c.TopicSession = value

	// Core tuning
	case "WINDOW_CAPACITY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_CAPACITY %q: %w", value, err)
		}
		if n < 2 {
			return fmt.Errorf("WINDOW_CAPACITY must be at least 2, got %d", n)
		}
		c.WindowCapacity = n
	case "CALIBRATION_REQUIRED_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_REQUIRED_SAMPLES %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("CALIBRATION_REQUIRED_SAMPLES must be positive, got %d", n)
		}
		c.CalibrationRequiredSamples = n
	case "CALIBRATION_BUDGET_MS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_BUDGET_MS %q: %w", value, err)
		}
		if n < 100 {
			return fmt.Errorf("CALIBRATION_BUDGET_MS must be at least 100, got %d", n)
		}
		c.CalibrationBudgetMS = n
	case "PROGRESS_INTERVAL_MS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PROGRESS_INTERVAL_MS %q: %w", value, err)
		}
		if n < 10 {
			return fmt.Errorf("PROGRESS_INTERVAL_MS must be at least 10, got %d", n)
		}
		c.ProgressIntervalMS = n
	case "MOVEMENT_THRESHOLD":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOVEMENT_THRESHOLD %q: %w", value, err)
		}
		if f <= 0 {
			return fmt.Errorf("MOVEMENT_THRESHOLD must be positive, got %g", f)
		}
		c.MovementThreshold = f
	case "STILL_REMINDER_SECONDS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STILL_REMINDER_SECONDS %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("STILL_REMINDER_SECONDS must be positive, got %d", n)
		}
		c.StillReminderSeconds = n

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// I2C accelerometer
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		c.IMUI2CAddr = uint16(addr)
	case "IMU_SAMPLE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL_MS %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("IMU_SAMPLE_INTERVAL_MS must be positive, got %d", interval)
		}
		c.IMUSampleIntervalMS = interval
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Display
	case "DISPLAY_UPDATE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL_MS %q: %w", value, err)
		}
		if interval < 50 {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL_MS must be at least 50, got %d", interval)
		}
		c.DisplayUpdateIntervalMS = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

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
	if c.SerialBaudRate == 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required")
	}
	return nil
}

// CalibrationBudget returns the collection budget as a duration.
func (c *Config) CalibrationBudget() time.Duration {
	return time.Duration(c.CalibrationBudgetMS) * time.Millisecond
}

// ProgressInterval returns the progress cadence as a duration.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so this only runs once even if called multiple times. A
// missing config file is not fatal: the shipped defaults apply.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			globalConfig = defaults()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
