package app

import (
	"encoding/json"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_monitor/internal/accel"
)

// mqttSource adapts an MQTT subscription on the accel topic to the
// accel.Source capability the pipeline is built against.
type mqttSource struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSource wraps a connected MQTT client as a sample source
// reading from topic.
func NewMQTTSource(client mqtt.Client, topic string) accel.Source {
	return &mqttSource{client: client, topic: topic}
}

func (s *mqttSource) Subscribe(h accel.Handler) (func(), error) {
	token := s.client.Subscribe(s.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sample accel.Sample
		if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
			log.Printf("monitor: accel sample unmarshal error: %v", err)
			return
		}
		h(sample)
	})
	token.Wait()
	if token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("monitor: subscribed to %s", s.topic)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
				log.Printf("monitor: unsubscribe error: %v", token.Error())
			}
		})
	}
	return cancel, nil
}
