// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package monitor

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/posture_monitor/internal/accel"
	"github.com/relabs-tech/posture_monitor/internal/calibration"
	"github.com/relabs-tech/posture_monitor/internal/movement"
	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/posture"
	"github.com/relabs-tech/posture_monitor/internal/session"
)

// ErrSourceInactive is returned when an operation requires a subscribed
// sample source and there is none.
var ErrSourceInactive = errors.New("monitor: sensor source not active")

// DefaultProgressInterval is the cadence of calibration progress
// reporting.
const DefaultProgressInterval = 100 * time.Millisecond

// Options tunes a Monitor. Zero values fall back to defaults.
type Options struct {
	WindowCapacity       int
	Calibration          calibration.Params
	MovementThreshold    float64
	StillReminderSeconds int
	ProgressInterval     time.Duration
}

// Monitor is the single logical pipeline: every incoming sample runs
// Estimator → Window → (Calibration | Classifier+Movement) atomically
// under one mutex, so the smoothing windows and calibration
// accumulators are never touched concurrently. Samples may arrive from
// a concurrent source; the mutex serializes them. A 1 Hz tick drives
// the stillness counter and session accounting; a 100 ms tick reports
// calibration progress.
type Monitor struct {
	opts Options
	bus  *Bus

	mu           sync.Mutex
	source       accel.Source
	cancelSource func()
	started      bool

	pitchWin *posture.Window
	rollWin  *posture.Window
	engine   *calibration.Engine
	detector *movement.Detector
	tracker  *session.Tracker

	profile         *posture.Profile
	state           posture.State
	message         string
	progressRunning bool

	done chan struct{}
	wg   sync.WaitGroup

	clock func() time.Time
}

// New creates a stopped monitor reading from source and publishing to
// bus.
func New(source accel.Source, bus *Bus, opts Options) *Monitor {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Monitor{
		opts:     opts,
		bus:      bus,
		source:   source,
		pitchWin: posture.NewWindow(opts.WindowCapacity),
		rollWin:  posture.NewWindow(opts.WindowCapacity),
		engine:   calibration.NewEngine(opts.Calibration),
		detector: movement.NewDetector(opts.MovementThreshold, opts.StillReminderSeconds),
		state:    posture.StateNeutral,
		message:  posture.MsgAnalyzing,
		clock:    time.Now,
	}
}

// Start subscribes to the sample source and begins the 1 Hz tick. The
// session clock and all per-session state reset here, so reconnecting
// starts a fresh session. Starting a started monitor is a no-op.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	now := m.clock()
	m.pitchWin.Reset()
	m.rollWin.Reset()
	m.detector.Reset()
	m.tracker = session.NewTracker(now)
	m.state = posture.StateNeutral
	m.message = posture.MsgAnalyzing

	cancel, err := m.source.Subscribe(m.handleSample)
	if err != nil {
		return err
	}
	m.cancelSource = cancel
	m.done = make(chan struct{})
	m.started = true

	m.wg.Add(1)
	go m.tickLoop(m.done)

	log.Println("monitor: started, subscribed to sample source")
	return nil
}

// Stop tears the pipeline down: it unsubscribes from the sample source,
// cancels the periodic ticks, and aborts any in-flight calibration
// without emitting a result. Stop is idempotent; calling it twice
// produces no error and no duplicate notifications.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	if m.cancelSource != nil {
		m.cancelSource()
		m.cancelSource = nil
	}
	close(m.done)
	m.engine.Cancel()
	m.mu.Unlock()

	m.wg.Wait()
	log.Println("monitor: stopped")
}

// State returns the current posture state and message.
func (m *Monitor) State() (posture.State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.message
}

// Profile returns a copy of the active calibration profile, or nil when
// uncalibrated.
func (m *Monitor) Profile() *posture.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Calibrating reports whether a calibration run is in flight.
func (m *Monitor) Calibrating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Collecting()
}

// StartCalibration begins a guided calibration run. It is only valid
// while the sample source is active. Starting during a run restarts it.
func (m *Monitor) StartCalibration() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrSourceInactive
	}
	m.engine.Start(m.clock())
	m.state = posture.StateCalibrating
	m.message = "Hold still, calibrating..."
	done := m.done
	spawn := !m.progressRunning
	if spawn {
		m.progressRunning = true
		m.wg.Add(1)
	}
	m.mu.Unlock()

	if spawn {
		go m.progressLoop(done)
	}

	m.bus.Publish(PostureEvent{State: posture.StateCalibrating, Message: "Hold still, calibrating..."})
	log.Printf("monitor: calibration started (%d samples in %s)",
		m.engine.Params().RequiredSamples, m.engine.Params().Budget)
	return nil
}

// CancelCalibration aborts an in-flight run. The engine returns to
// idle, no profile is produced, and no result event is emitted: this is
// a caller-initiated cancellation, not a data-quality failure.
// Cancelling when no run is in flight is a no-op.
func (m *Monitor) CancelCalibration() {
	m.mu.Lock()
	res := m.engine.Cancel()
	var events []Event
	if res != nil {
		events = m.leaveCalibration()
		log.Printf("monitor: calibration aborted after %d/%d samples", res.Collected, res.Required)
	}
	m.mu.Unlock()
	m.publish(events)
}

// handleSample is the single entry point for the sample path. Each
// sample is processed synchronously and atomically before the next one
// is accepted.
func (m *Monitor) handleSample(s accel.Sample) {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}

	est := orientation.Estimate(s)
	m.pitchWin.Push(est.Pitch)
	m.rollWin.Push(est.Roll)

	events := []Event{OrientationEvent{Orientation: est}}

	if m.engine.Collecting() {
		res := m.engine.Offer(est, m.pitchWin.Variance(), m.rollWin.Variance(), m.clock())
		if res != nil {
			events = append(events, m.finishCalibration(res)...)
		}
	} else {
		n := m.pitchWin.Len()
		if m.rollWin.Len() < n {
			n = m.rollWin.Len()
		}
		m.detector.Update(m.pitchWin.Variance(), m.rollWin.Variance(), n)

		if m.profile != nil {
			m.state, m.message = posture.Classify(m.pitchWin, m.rollWin, *m.profile)
			events = append(events, PostureEvent{State: m.state, Message: m.message})
		}
	}
	m.mu.Unlock()

	m.publish(events)
}

// tickLoop drives the 1 Hz session and stillness accounting.
func (m *Monitor) tickLoop(done chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.tracker.Tick(m.state)

	mvState, remind := m.detector.Tick()
	events := []Event{MovementEvent{State: mvState}}
	if remind {
		events = append(events, StillnessReminderEvent{StillSeconds: mvState.StillSeconds})
	}
	events = append(events, SessionStatsEvent{Stats: m.tracker.Snapshot(m.clock())})
	m.mu.Unlock()

	m.publish(events)
}

// progressLoop reports calibration progress every ProgressInterval. It
// only reads the engine's atomic counter, except when the time budget
// has run out with no further samples arriving, in which case it
// finishes the run under the pipeline lock.
func (m *Monitor) progressLoop(done chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			m.mu.Lock()
			m.progressRunning = false
			m.mu.Unlock()
			return
		case <-ticker.C:
			m.mu.Lock()
			if !m.engine.Collecting() {
				m.progressRunning = false
				m.mu.Unlock()
				return
			}
			if m.engine.Expired(m.clock()) {
				events := m.finishCalibration(m.engine.Finish())
				m.progressRunning = false
				m.mu.Unlock()
				m.publish(events)
				return
			}
			percent, remaining := m.engine.Progress()
			m.mu.Unlock()

			m.bus.Publish(CalibrationProgressEvent{
				PercentComplete:  percent,
				RemainingSamples: remaining,
			})
		}
	}
}

// finishCalibration applies a terminal calibration result. A completed
// run replaces the profile wholesale; a failed run keeps any previously
// active profile (no partial profile is ever produced). Must be called
// with m.mu held; returns the events to publish after unlocking.
func (m *Monitor) finishCalibration(res *calibration.Result) []Event {
	if res == nil {
		return nil
	}

	events := m.leaveCalibration()

	switch res.Outcome {
	case calibration.OutcomeComplete:
		m.profile = res.Profile
		log.Printf("monitor: calibration complete, baseline pitch=%.2f roll=%.2f",
			res.Profile.BaselinePitch, res.Profile.BaselineRoll)
		events = append(events, CalibrationResultEvent{Success: true, Profile: res.Profile})
	case calibration.OutcomeFailed:
		log.Printf("monitor: calibration failed, %d/%d still samples", res.Collected, res.Required)
		events = append(events, CalibrationResultEvent{Success: false})
	}
	return events
}

// leaveCalibration returns the pipeline to the monitoring state after a
// run ends for any reason. Must be called with m.mu held.
func (m *Monitor) leaveCalibration() []Event {
	m.state = posture.StateNeutral
	m.message = posture.MsgAnalyzing
	return []Event{PostureEvent{State: m.state, Message: m.message}}
}

func (m *Monitor) publish(events []Event) {
	for _, e := range events {
		m.bus.Publish(e)
	}
}
