// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package movement

// minDetectSamples is the smallest window content the detector will act
// on; below it Update leaves the state unchanged (insufficient data is
// a no-op, not an error).
const minDetectSamples = 5

// DefaultMovementThreshold is the variance (deg²) above which an axis
// counts as moving.
const DefaultMovementThreshold = 0.05

// DefaultStillReminderSeconds is how long the head must be continuously
// still before the one-shot stillness reminder fires.
const DefaultStillReminderSeconds = 60

// State is the externally visible movement state.
type State struct {
	IsMoving     bool `json:"is_moving"`
	StillSeconds int  `json:"still_seconds"`
}

// Detector tracks whether the head is moving, using the variance of the
// pitch/roll smoothing windows, and counts continuous still time. The
// stillness reminder fires once per still period: it is re-armed only
// on a moving→still transition so a user who stays frozen is not
// nagged repeatedly.
type Detector struct {
	threshold        float64
	reminderAfterSec int

	state        State
	reminderDone bool
}

// NewDetector creates a detector. Non-positive arguments fall back to
// the defaults.
func NewDetector(threshold float64, reminderAfterSec int) *Detector {
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	if reminderAfterSec <= 0 {
		reminderAfterSec = DefaultStillReminderSeconds
	}
	return &Detector{threshold: threshold, reminderAfterSec: reminderAfterSec}
}

// Update re-evaluates the moving flag from the axis variances and the
// number of samples they were computed over. A moving head resets the
// still counter and re-arms the reminder.
func (d *Detector) Update(pitchVar, rollVar float64, samples int) State {
	if samples < minDetectSamples {
		return d.state
	}

	moving := pitchVar > d.threshold || rollVar > d.threshold
	if moving && !d.state.IsMoving {
		d.reminderDone = false
	}
	d.state.IsMoving = moving
	if moving {
		d.state.StillSeconds = 0
	}
	return d.state
}

// Tick advances the still counter by one second. It is driven by the
// pipeline's 1 Hz tick, not by the sample path. The returned remind
// flag is true exactly once per still period, when the counter crosses
// the reminder threshold.
func (d *Detector) Tick() (state State, remind bool) {
	if d.state.IsMoving {
		return d.state, false
	}
	d.state.StillSeconds++
	if !d.reminderDone && d.state.StillSeconds >= d.reminderAfterSec {
		d.reminderDone = true
		return d.state, true
	}
	return d.state, false
}

// State returns the current movement state.
func (d *Detector) State() State { return d.state }

// Reset clears the counters, e.g. on a new monitoring session.
func (d *Detector) Reset() {
	d.state = State{}
	d.reminderDone = false
}
