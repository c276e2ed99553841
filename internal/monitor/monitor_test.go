// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package monitor

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_monitor/internal/accel"
	"github.com/relabs-tech/posture_monitor/internal/calibration"
	"github.com/relabs-tech/posture_monitor/internal/posture"
)

// scriptedSource delivers samples only when the test pushes them, so
// the pipeline can be driven deterministically.
type scriptedSource struct {
	mu        sync.Mutex
	h         accel.Handler
	cancelled bool
}

func (s *scriptedSource) Subscribe(h accel.Handler) (func(), error) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
	}, nil
}

func (s *scriptedSource) push(sample accel.Sample) {
	s.mu.Lock()
	h := s.h
	s.mu.Unlock()
	h(sample)
}

// recorder collects published events for later inspection.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) last(match func(Event) (Event, bool)) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if e, ok := match(r.events[i]); ok {
			return e
		}
	}
	return nil
}

func lastPosture(r *recorder) *PostureEvent {
	e := r.last(func(e Event) (Event, bool) {
		pe, ok := e.(PostureEvent)
		return pe, ok
	})
	if e == nil {
		return nil
	}
	pe := e.(PostureEvent)
	return &pe
}

func newTestMonitor(t *testing.T) (*Monitor, *scriptedSource, *recorder) {
	t.Helper()
	src := &scriptedSource{}
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(rec.record)

	m := New(src, bus, Options{
		WindowCapacity: 5,
		Calibration: calibration.Params{
			RequiredSamples:   10,
			Budget:            time.Minute,
			MovementThreshold: 0.05,
		},
		MovementThreshold:    0.05,
		StillReminderSeconds: 60,
		ProgressInterval:     time.Hour, // keep the ticker out of deterministic tests
	})
	m.clock = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return m, src, rec
}

// tilted returns a sample whose forward tilt is the given angle in
// degrees.
func tilted(pitchDeg float64) accel.Sample {
	rad := pitchDeg * math.Pi / 180
	return accel.Sample{X: math.Sin(rad), Z: math.Cos(rad)}
}

func calibrate(t *testing.T, m *Monitor, src *scriptedSource) {
	t.Helper()
	require.NoError(t, m.StartCalibration())
	for i := 0; i < 10; i++ {
		src.push(accel.Sample{Z: 1})
	}
	require.NotNil(t, m.Profile(), "calibration should have completed")
}

func TestMonitorPublishesOrientationPerSample(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()

	src.push(tilted(30))

	var orients []OrientationEvent
	for _, e := range rec.all() {
		if oe, ok := e.(OrientationEvent); ok {
			orients = append(orients, oe)
		}
	}
	require.Len(t, orients, 1)
	assert.InDelta(t, 30.0, orients[0].Orientation.Pitch, 1e-9)
}

func TestMonitorUncalibratedStaysNeutral(t *testing.T) {
	m, src, _ := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()

	for i := 0; i < 10; i++ {
		src.push(accel.Sample{Z: 1})
	}

	state, msg := m.State()
	assert.Equal(t, posture.StateNeutral, state)
	assert.Equal(t, posture.MsgAnalyzing, msg)
	assert.Nil(t, m.Profile())
}

func TestMonitorCalibrationEndToEnd(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()

	require.NoError(t, m.StartCalibration())
	assert.True(t, m.Calibrating())
	state, _ := m.State()
	assert.Equal(t, posture.StateCalibrating, state)

	for i := 0; i < 10; i++ {
		src.push(accel.Sample{Z: 1})
	}

	assert.False(t, m.Calibrating())
	profile := m.Profile()
	require.NotNil(t, profile)
	assert.InDelta(t, 0.0, profile.BaselinePitch, 1e-9)

	res := rec.last(func(e Event) (Event, bool) {
		re, ok := e.(CalibrationResultEvent)
		return re, ok
	})
	require.NotNil(t, res)
	assert.True(t, res.(CalibrationResultEvent).Success)
}

func TestMonitorClassifiesAfterCalibration(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()
	calibrate(t, m, src)

	// Upright: good posture once the window refills.
	for i := 0; i < 5; i++ {
		src.push(accel.Sample{Z: 1})
	}
	state, msg := m.State()
	assert.Equal(t, posture.StateGood, state)
	assert.Equal(t, posture.MsgGood, msg)

	// A hard forward slouch flushes the window at 45 degrees.
	for i := 0; i < 5; i++ {
		src.push(tilted(45))
	}
	state, msg = m.State()
	assert.Equal(t, posture.StateBad, state)
	assert.Equal(t, "Leaning too far forward", msg)

	pe := lastPosture(rec)
	require.NotNil(t, pe)
	assert.Equal(t, posture.StateBad, pe.State)
}

func TestMonitorCancelCalibrationEmitsNoResult(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()

	require.NoError(t, m.StartCalibration())
	for i := 0; i < 3; i++ {
		src.push(accel.Sample{Z: 1})
	}
	m.CancelCalibration()

	assert.False(t, m.Calibrating())
	assert.Nil(t, m.Profile())
	res := rec.last(func(e Event) (Event, bool) {
		re, ok := e.(CalibrationResultEvent)
		return re, ok
	})
	assert.Nil(t, res, "an aborted run must not publish a result")

	pe := lastPosture(rec)
	require.NotNil(t, pe)
	assert.Equal(t, posture.StateNeutral, pe.State)

	// Cancelling again is a no-op.
	m.CancelCalibration()
}

func TestMonitorFailedCalibrationKeepsOldProfile(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()
	calibrate(t, m, src)
	old := m.Profile()

	// Second run: advance the clock past the budget with no still
	// samples gathered, so the next offer fails the run.
	require.NoError(t, m.StartCalibration())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.mu.Lock()
	m.clock = func() time.Time { return base.Add(2 * time.Minute) }
	m.mu.Unlock()
	src.push(accel.Sample{Z: 1})

	assert.False(t, m.Calibrating())
	res := rec.last(func(e Event) (Event, bool) {
		re, ok := e.(CalibrationResultEvent)
		return re, ok
	})
	require.NotNil(t, res)
	assert.False(t, res.(CalibrationResultEvent).Success)

	assert.Equal(t, old, m.Profile(), "a failed run keeps the previous profile")
}

func TestMonitorStartCalibrationRequiresActiveSource(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	assert.ErrorIs(t, m.StartCalibration(), ErrSourceInactive)

	require.NoError(t, m.Start())
	m.Stop()
	assert.ErrorIs(t, m.StartCalibration(), ErrSourceInactive)
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	m, src, _ := newTestMonitor(t)
	require.NoError(t, m.Start())
	require.NoError(t, m.Start(), "double start is a no-op")

	m.Stop()
	assert.True(t, src.cancelled)
	m.Stop() // second stop must not panic or block
}

func TestMonitorTickAccountsSession(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()
	calibrate(t, m, src)

	for i := 0; i < 5; i++ {
		src.push(accel.Sample{Z: 1})
	}
	m.tick()
	m.tick()

	se := rec.last(func(e Event) (Event, bool) {
		ev, ok := e.(SessionStatsEvent)
		return ev, ok
	})
	require.NotNil(t, se)
	assert.GreaterOrEqual(t, se.(SessionStatsEvent).GoodSeconds, 2)

	me := rec.last(func(e Event) (Event, bool) {
		ev, ok := e.(MovementEvent)
		return ev, ok
	})
	require.NotNil(t, me)
	assert.False(t, me.(MovementEvent).IsMoving)
	assert.GreaterOrEqual(t, me.(MovementEvent).StillSeconds, 2)
}

func TestMonitorMovementAndStillnessReminder(t *testing.T) {
	m, src, rec := newTestMonitor(t)
	require.NoError(t, m.Start())
	defer m.Stop()

	// An alternating head sway fills the windows with high variance.
	for i := 0; i < 10; i++ {
		deg := 10.0
		if i%2 == 1 {
			deg = -10.0
		}
		src.push(tilted(deg))
	}
	m.tick()
	me := rec.last(func(e Event) (Event, bool) {
		ev, ok := e.(MovementEvent)
		return ev, ok
	})
	require.NotNil(t, me)
	assert.True(t, me.(MovementEvent).IsMoving)

	// Holding still: the window flushes to constant values, the still
	// counter climbs, and the reminder fires exactly once.
	for i := 0; i < 10; i++ {
		src.push(accel.Sample{Z: 1})
	}
	reminders := 0
	for i := 0; i < 120; i++ {
		m.tick()
	}
	for _, e := range rec.all() {
		if _, ok := e.(StillnessReminderEvent); ok {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	var n int
	unsubscribe := bus.Subscribe(func(Event) { n++ })

	bus.Publish(PostureEvent{})
	unsubscribe()
	unsubscribe() // safe to call twice
	bus.Publish(PostureEvent{})

	assert.Equal(t, 1, n)
}
