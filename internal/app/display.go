package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"
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

	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/monitor"
	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/session"
)

// DisplayData holds the latest data for the desk display
type DisplayData struct {
	mu sync.RWMutex

	posture     monitor.PostureEvent
	havePosture bool

	orient     orientation.Orientation
	haveOrient bool

	stats     session.Stats
	haveStats bool
}

// RunDisplay drives the little SSD1306 desk display: current posture
// state on top, live tilt below, session totals at the bottom.
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
	log.Println("display: initialized (128x64)")

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPosture, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p monitor.PostureEvent
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("display: posture unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.posture = p
		data.havePosture = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicPosture)

	token = client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var o orientation.Orientation
		if err := json.Unmarshal(msg.Payload(), &o); err != nil {
			log.Printf("display: orientation unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.orient = o
		data.haveOrient = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicOrientation)

	token = client.Subscribe(cfg.TopicSession, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s session.Stats
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: session unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.stats = s
		data.haveStats = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicSession)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snapshot := DisplayData{
			posture:     data.posture,
			havePosture: data.havePosture,
			orient:      data.orient,
			haveOrient:  data.haveOrient,
			stats:       data.stats,
			haveStats:   data.haveStats,
		}
		data.mu.RUnlock()

		if err := updatePostureDisplay(display, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updatePostureDisplay(dev *ssd1306.Dev, data *DisplayData) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !data.havePosture {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Posture"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	// State
	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(strings.ToUpper(string(data.posture.State))))

	// Message (truncated to what fits in 128px of 7px glyphs)
	msg := data.posture.Message
	if len(msg) > 18 {
		msg = msg[:18]
	}
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(msg))

	// Tilt
	if data.haveOrient {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("P:%6.1f R:%6.1f", data.orient.Pitch, data.orient.Roll)))
	}

	// Session totals
	if data.haveStats {
		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("G%4d W%4d B%4d", data.stats.GoodSeconds, data.stats.WarningSeconds, data.stats.BadSeconds)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Posture Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("samples"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
