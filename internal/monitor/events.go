// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package monitor

import (
	"sync"

	"github.com/relabs-tech/posture_monitor/internal/movement"
	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/posture"
	"github.com/relabs-tech/posture_monitor/internal/session"
)

// Event is one of the typed notifications the pipeline fans out to
// collaborators. Delivery is fire-and-forget: listeners must not block.
type Event interface {
	isEvent()
}

// OrientationEvent is emitted on every processed sample.
type OrientationEvent struct {
	Orientation orientation.Orientation `json:"orientation"`
}

// PostureEvent is emitted on every classified sample once calibrated,
// and on state transitions driven by calibration.
type PostureEvent struct {
	State   posture.State `json:"state"`
	Message string        `json:"message"`
}

// CalibrationProgressEvent is emitted on the 100 ms progress tick while
// collecting. The core reports structured data only; human-readable
// countdown text is composed by presentation collaborators.
type CalibrationProgressEvent struct {
	PercentComplete  float64 `json:"percent_complete"`
	RemainingSamples int     `json:"remaining_samples"`
}

// CalibrationResultEvent is emitted when a run completes or fails. A
// cancelled run emits no result event.
type CalibrationResultEvent struct {
	Success bool             `json:"success"`
	Profile *posture.Profile `json:"profile,omitempty"`
}

// MovementEvent is emitted on the 1 Hz tick.
type MovementEvent struct {
	movement.State
}

// StillnessReminderEvent fires once per continuous still period, when
// the still counter crosses its threshold.
type StillnessReminderEvent struct {
	StillSeconds int `json:"still_seconds"`
}

// SessionStatsEvent is emitted at 1 Hz.
type SessionStatsEvent struct {
	session.Stats
}

func (OrientationEvent) isEvent()         {}
func (PostureEvent) isEvent()             {}
func (CalibrationProgressEvent) isEvent() {}
func (CalibrationResultEvent) isEvent()   {}
func (MovementEvent) isEvent()            {}
func (StillnessReminderEvent) isEvent()   {}
func (SessionStatsEvent) isEvent()        {}

// Bus is a minimal observer fan-out: listeners subscribe a callback and
// get every published event, in publish order per listener. It replaces
// the ad-hoc add/remove-callback lists of the original app so the core
// is decoupled from any particular UI.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]func(Event))}
}

// Subscribe registers fn and returns an unsubscribe function that is
// safe to call more than once.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current listener synchronously.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.listeners {
		fn(e)
	}
}
