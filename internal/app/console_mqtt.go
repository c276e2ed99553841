package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/monitor"
	"github.com/relabs-tech/posture_monitor/internal/movement"
	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/session"
)

// RunConsoleMQTT subscribes to the posture topics and prints a live
// text feed. Handy for watching the pipeline without the web dashboard.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to orientation
	orientToken := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var o orientation.Orientation
		if err := json.Unmarshal(msg.Payload(), &o); err != nil {
			log.Printf("console: orientation unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[TILT]  PITCH=%6.2f  ROLL=%6.2f  YAW=%6.2f  |a|=%5.3fg\n",
			o.Pitch, o.Roll, o.Yaw, o.Magnitude,
		)
	})
	orientToken.Wait()
	if orientToken.Error() != nil {
		return orientToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicOrientation)

	// Subscribe to posture state
	postureToken := client.Subscribe(cfg.TopicPosture, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p monitor.PostureEvent
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: posture unmarshal error: %v", err)
			return
		}

		fmt.Printf("[POSE]  %-11s %s\n", p.State, p.Message)
	})
	postureToken.Wait()
	if postureToken.Error() != nil {
		return postureToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPosture)

	// Subscribe to calibration progress
	progressToken := client.Subscribe(cfg.TopicCalibrationProgress, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p monitor.CalibrationProgressEvent
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: calibration progress unmarshal error: %v", err)
			return
		}

		fmt.Printf("[CAL ]  %3.0f%% complete, %d samples to go\n", p.PercentComplete, p.RemainingSamples)
	})
	progressToken.Wait()
	if progressToken.Error() != nil {
		return progressToken.Error()
	}

	// Subscribe to calibration result
	resultToken := client.Subscribe(cfg.TopicCalibrationResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r monitor.CalibrationResultEvent
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: calibration result unmarshal error: %v", err)
			return
		}

		if r.Success {
			fmt.Printf("[CAL ]  complete: baseline pitch=%.2f roll=%.2f (good/warn/bad %.0f/%.0f/%.0f)\n",
				r.Profile.BaselinePitch, r.Profile.BaselineRoll,
				r.Profile.GoodPitch, r.Profile.WarningPitch, r.Profile.BadPitch)
		} else {
			fmt.Println("[CAL ]  failed: hold still and try again")
		}
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCalibrationResult)

	// Subscribe to movement
	movementToken := client.Subscribe(cfg.TopicMovement, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m movement.State
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: movement unmarshal error: %v", err)
			return
		}

		if !m.IsMoving {
			fmt.Printf("[MOVE]  still for %ds\n", m.StillSeconds)
		}
	})
	movementToken.Wait()
	if movementToken.Error() != nil {
		return movementToken.Error()
	}

	// Subscribe to stillness reminders
	reminderToken := client.Subscribe(cfg.TopicReminder, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Println("[MOVE]  you've been still a while, take a stretch break")
	})
	reminderToken.Wait()
	if reminderToken.Error() != nil {
		return reminderToken.Error()
	}

	// Subscribe to session stats
	sessionToken := client.Subscribe(cfg.TopicSession, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s session.Stats
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: session unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[SESS]  elapsed=%ds good=%ds warn=%ds bad=%ds\n",
			s.ElapsedSeconds, s.GoodSeconds, s.WarningSeconds, s.BadSeconds,
		)
	})
	sessionToken.Wait()
	if sessionToken.Error() != nil {
		return sessionToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSession)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
