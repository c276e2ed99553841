// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/posture_monitor/internal/posture"
)

func TestTrackerBuckets(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTracker(start)

	for i := 0; i < 3; i++ {
		tr.Tick(posture.StateGood)
	}
	tr.Tick(posture.StateWarning)
	tr.Tick(posture.StateNeutral) // neutral counts with warning
	tr.Tick(posture.StateBad)
	tr.Tick(posture.StateCalibrating) // calibrating counts nowhere

	s := tr.Snapshot(start.Add(7 * time.Second))
	assert.Equal(t, 3, s.GoodSeconds)
	assert.Equal(t, 2, s.WarningSeconds)
	assert.Equal(t, 1, s.BadSeconds)
	assert.Equal(t, 7, s.ElapsedSeconds)
}

func TestTrackerReset(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTracker(start)
	tr.Tick(posture.StateGood)
	tr.Tick(posture.StateBad)

	restart := start.Add(time.Minute)
	tr.Reset(restart)

	s := tr.Snapshot(restart.Add(10 * time.Second))
	assert.Equal(t, Stats{ElapsedSeconds: 10}, s)
	assert.Equal(t, 10*time.Second, tr.Elapsed(restart.Add(10*time.Second)))
}
