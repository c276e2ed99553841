package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posture_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
# broker on another host
MQTT_BROKER=tcp://192.168.1.10:1883
TOPIC_ACCEL=lab/accel

WINDOW_CAPACITY=40
CALIBRATION_REQUIRED_SAMPLES=100
CALIBRATION_BUDGET_MS=10000
MOVEMENT_THRESHOLD=0.1
STILL_REMINDER_SECONDS=120
SERIAL_PORT=/dev/ttyAMA0
IMU_I2C_ADDR=0x1D
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://192.168.1.10:1883", cfg.MQTTBroker)
	assert.Equal(t, "lab/accel", cfg.TopicAccel)
	assert.Equal(t, 40, cfg.WindowCapacity)
	assert.Equal(t, 100, cfg.CalibrationRequiredSamples)
	assert.Equal(t, 0.1, cfg.MovementThreshold)
	assert.Equal(t, 120, cfg.StillReminderSeconds)
	assert.Equal(t, "/dev/ttyAMA0", cfg.SerialPort)
	assert.Equal(t, uint16(0x1D), cfg.IMUI2CAddr)

	// Untouched keys keep their defaults.
	assert.Equal(t, "posture/state", cfg.TopicPosture)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, 8080, cfg.WebServerPort)

	assert.Equal(t, 10*time.Second, cfg.CalibrationBudget())
	assert.Equal(t, 100*time.Millisecond, cfg.ProgressInterval())
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "NO_SUCH_KEY=1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_SUCH_KEY")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeConfig(t, "WINDOW_CAPACITY\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadValidatesValues(t *testing.T) {
	cases := map[string]string{
		"window too small":     "WINDOW_CAPACITY=1",
		"samples not a number": "CALIBRATION_REQUIRED_SAMPLES=lots",
		"budget too short":     "CALIBRATION_BUDGET_MS=50",
		"threshold negative":   "MOVEMENT_THRESHOLD=-0.05",
		"accel range invalid":  "IMU_ACCEL_RANGE=4",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, line+"\n"))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaults()
	assert.NoError(t, cfg.validate())
}
