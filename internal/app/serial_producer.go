package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/headset"
)

// RunSerialProducer opens the headset's serial tether, parses PACC
// sentences, and publishes acceleration samples as JSON to the accel
// topic.
func RunSerialProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerialProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("serial producer connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open headset serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("headset serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	published := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("headset read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Headset sentences start with '$'; anything else is boot
		// chatter from the firmware.
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sample, err := headset.Parse(line)
		if err != nil {
			// Partial sentences and checksum failures happen on a
			// noisy tether; skip and keep reading.
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("sample JSON marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicAccel, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("sample publish error: %v", token.Error())
			continue
		}

		published++
		if published%500 == 0 {
			log.Printf("published %d samples (last seq=%d)", published, sample.Seq)
		}
	}
}
