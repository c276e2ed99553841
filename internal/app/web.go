// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/posture_monitor/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsCommand is what the browser sends over the WebSocket.
type wsCommand struct {
	Action string `json:"action"` // start, cancel
}

// wsUpdate wraps an MQTT payload with its kind so the browser can route
// it without knowing topic names.
type wsUpdate struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// dashboard holds the latest payload per kind and the set of connected
// WebSocket clients.
type dashboard struct {
	mu      sync.RWMutex
	latest  map[string]json.RawMessage
	clients map[*websocket.Conn]chan wsUpdate
}

func newDashboard() *dashboard {
	return &dashboard{
		latest:  make(map[string]json.RawMessage),
		clients: make(map[*websocket.Conn]chan wsUpdate),
	}
}

// update stores the payload and fans it out to every connected client.
// Slow clients drop updates rather than stall the MQTT callback.
func (d *dashboard) update(kind string, payload []byte) {
	data := json.RawMessage(append([]byte(nil), payload...))
	d.mu.Lock()
	d.latest[kind] = data
	for _, ch := range d.clients {
		select {
		case ch <- wsUpdate{Kind: kind, Data: data}:
		default:
		}
	}
	d.mu.Unlock()
}

// snapshot returns a copy of the latest payload per kind.
func (d *dashboard) snapshot() map[string]json.RawMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(d.latest))
	for k, v := range d.latest {
		out[k] = v
	}
	return out
}

func (d *dashboard) addClient(conn *websocket.Conn) chan wsUpdate {
	ch := make(chan wsUpdate, 16)
	d.mu.Lock()
	d.clients[conn] = ch
	d.mu.Unlock()
	return ch
}

func (d *dashboard) removeClient(conn *websocket.Conn) {
	d.mu.Lock()
	if ch, ok := d.clients[conn]; ok {
		delete(d.clients, conn)
		close(ch)
	}
	d.mu.Unlock()
}

// RunWeb serves the browser dashboard: a JSON snapshot endpoint, a
// WebSocket streaming live updates, and static files from ./web.
// Calibration start/cancel requests from the browser are forwarded to
// the monitor over the MQTT command topic.
func RunWeb() error {
	cfg := config.Get()
	dash := newDashboard()

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to every outbound topic, caching the latest payload
	kinds := map[string]string{
		cfg.TopicOrientation:         "orientation",
		cfg.TopicPosture:             "posture",
		cfg.TopicCalibrationProgress: "calibration_progress",
		cfg.TopicCalibrationResult:   "calibration_result",
		cfg.TopicMovement:            "movement",
		cfg.TopicReminder:            "reminder",
		cfg.TopicSession:             "session",
	}
	for topic, kind := range kinds {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			dash.update(kind, msg.Payload())
		})
		if token.Wait(); token.Error() != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
		}
	}
	log.Printf("web: subscribed to %d topics", len(kinds))

	// 3) JSON API endpoint: latest payload per kind
	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		snap := dash.snapshot()
		if len(snap) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) WebSocket endpoint: live updates out, calibration commands in
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleDashboardWS(w, r, dash, client, cfg)
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

func handleDashboardWS(w http.ResponseWriter, r *http.Request, dash *dashboard, client mqtt.Client, cfg *config.Config) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := dash.addClient(conn)
	defer dash.removeClient(conn)

	// Replay the cached state so a fresh client renders immediately.
	for kind, data := range dash.snapshot() {
		if err := conn.WriteJSON(wsUpdate{Kind: kind, Data: data}); err != nil {
			return
		}
	}

	// Writer: drain the fan-out channel onto the socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}()

	// Reader: calibration commands from the browser.
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		switch cmd.Action {
		case "start", "cancel":
			token := client.Publish(cfg.TopicCalibrationCommand, 0, false, cmd.Action)
			if token.Wait(); token.Error() != nil {
				log.Printf("web: command publish error: %v", token.Error())
			} else {
				log.Printf("web: forwarded calibration command %q", cmd.Action)
			}
		default:
			log.Printf("web: unknown action %q", cmd.Action)
		}
	}
	dash.removeClient(conn) // closes ch so the writer exits
	<-done
}
