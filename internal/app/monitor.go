// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_monitor/internal/calibration"
	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/monitor"
)

// RunMonitor runs the core pipeline service: accel samples in over
// MQTT, posture/calibration/movement/session events back out, and a
// command topic for starting or cancelling calibration.
func RunMonitor() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDMonitor)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("monitor: connected to MQTT broker at %s", cfg.MQTTBroker)

	bus := monitor.NewBus()
	unsubscribe := bus.Subscribe(NewMQTTBridge(client, cfg))
	defer unsubscribe()

	source := NewMQTTSource(client, cfg.TopicAccel)
	m := monitor.New(source, bus, monitor.Options{
		WindowCapacity: cfg.WindowCapacity,
		Calibration: calibration.Params{
			RequiredSamples:   cfg.CalibrationRequiredSamples,
			Budget:            cfg.CalibrationBudget(),
			MovementThreshold: cfg.MovementThreshold,
		},
		MovementThreshold:    cfg.MovementThreshold,
		StillReminderSeconds: cfg.StillReminderSeconds,
		ProgressInterval:     cfg.ProgressInterval(),
	})

	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	// Calibration control: "start" or "cancel" on the command topic.
	cmdToken := client.Subscribe(cfg.TopicCalibrationCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		switch cmd := strings.TrimSpace(string(msg.Payload())); cmd {
		case "start":
			if err := m.StartCalibration(); err != nil {
				log.Printf("monitor: calibration start rejected: %v", err)
			}
		case "cancel":
			m.CancelCalibration()
		default:
			log.Printf("monitor: unknown calibration command %q", cmd)
		}
	})
	cmdToken.Wait()
	if cmdToken.Error() != nil {
		return cmdToken.Error()
	}
	log.Printf("monitor: subscribed to %s", cfg.TopicCalibrationCommand)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("monitor: shutting down")
	// Give in-flight publishes a moment to drain before disconnect.
	time.Sleep(100 * time.Millisecond)
	return nil
}
