package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/monitor"
)

// mqttBridge fans pipeline events out to their MQTT topics. Publishes
// are fire-and-forget at QoS 0; a presentation consumer that misses one
// catches up on the next.
type mqttBridge struct {
	client mqtt.Client
	cfg    *config.Config
}

// NewMQTTBridge returns a bus listener publishing every event to the
// configured topics.
func NewMQTTBridge(client mqtt.Client, cfg *config.Config) func(monitor.Event) {
	b := &mqttBridge{client: client, cfg: cfg}
	return b.handle
}

func (b *mqttBridge) handle(e monitor.Event) {
	switch ev := e.(type) {
	case monitor.OrientationEvent:
		b.publish(b.cfg.TopicOrientation, ev.Orientation)
	case monitor.PostureEvent:
		b.publish(b.cfg.TopicPosture, ev)
	case monitor.CalibrationProgressEvent:
		b.publish(b.cfg.TopicCalibrationProgress, ev)
	case monitor.CalibrationResultEvent:
		b.publish(b.cfg.TopicCalibrationResult, ev)
	case monitor.MovementEvent:
		b.publish(b.cfg.TopicMovement, ev.State)
	case monitor.StillnessReminderEvent:
		b.publish(b.cfg.TopicReminder, ev)
	case monitor.SessionStatsEvent:
		b.publish(b.cfg.TopicSession, ev.Stats)
	}
}

func (b *mqttBridge) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("monitor: marshal error (%s): %v", topic, err)
		return
	}
	if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("monitor: MQTT publish error (%s): %v", topic, token.Error())
	}
}
