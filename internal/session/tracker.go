// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import (
	"time"

	"github.com/relabs-tech/posture_monitor/internal/posture"
)

// Stats is a snapshot of the per-status time accounting for the current
// monitoring session.
type Stats struct {
	GoodSeconds    int `json:"good_seconds"`
	WarningSeconds int `json:"warning_seconds"`
	BadSeconds     int `json:"bad_seconds"`
	ElapsedSeconds int `json:"elapsed_seconds"`
}

// Tracker accumulates elapsed seconds into the bucket matching the
// current posture state. Neutral time is counted in the warning bucket:
// the stats surface distinguishes only good/warning/bad, and "could
// improve" belongs with warning rather than inflating the good total.
// Calibrating time is counted in no bucket.
type Tracker struct {
	startedAt time.Time
	stats     Stats
}

// NewTracker creates a tracker whose session starts now.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{startedAt: now}
}

// Tick records one second spent in the given state. It is driven by the
// pipeline's 1 Hz tick while a source is connected.
func (t *Tracker) Tick(state posture.State) {
	switch state {
	case posture.StateGood:
		t.stats.GoodSeconds++
	case posture.StateWarning, posture.StateNeutral:
		t.stats.WarningSeconds++
	case posture.StateBad:
		t.stats.BadSeconds++
	}
}

// Reset clears all accumulators and restarts the session clock, e.g. on
// (re)connection or an explicit session restart.
func (t *Tracker) Reset(now time.Time) {
	t.startedAt = now
	t.stats = Stats{}
}

// Elapsed returns the time since the session started.
func (t *Tracker) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.startedAt)
}

// Snapshot returns the stats including elapsed seconds.
func (t *Tracker) Snapshot(now time.Time) Stats {
	s := t.stats
	s.ElapsedSeconds = int(t.Elapsed(now) / time.Second)
	return s
}
