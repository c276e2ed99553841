package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/sensors"
)

// RunIMUProducer reads the prototype rig's I2C accelerometer at a fixed
// interval and publishes samples to the accel topic. It is the
// direct-attached alternative to the serial tether producer.
func RunIMUProducer() error {
	log.Println("starting posture-monitor accelerometer producer (I2C → MQTT)")

	cfg := config.Get()

	reader, err := sensors.NewADXL345()
	if err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDIMUProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	logEvery := 1000 / cfg.IMUSampleIntervalMS
	if logEvery < 1 {
		logEvery = 1
	}

	ticks := 0
	for range ticker.C {
		sample, err := reader.Read()
		if err != nil {
			log.Printf("accelerometer read error: %v", err)
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("json marshal error (sample): %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicAccel, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (accel): %v", token.Error())
			continue
		}

		// Once a second, log a tilt estimate so a headless rig is easy
		// to sanity-check.
		ticks++
		if ticks%logEvery == 0 {
			est := orientation.Estimate(sample)
			log.Printf("tick: pitch=%.2f roll=%.2f |a|=%.3fg (seq=%d)",
				est.Pitch, est.Roll, est.Magnitude, sample.Seq)
		}
	}
	return nil
}
